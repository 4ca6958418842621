package registration

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klayr-reg/internal/rpcclient"
	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
	"github.com/Klingon-tech/klayr-reg/pkg/types"
)

// Relayer is the account that signs and pays for a registration
// transaction.
type Relayer struct {
	key *crypto.PrivateKey
}

// NewRelayer derives the relayer key from a passphrase and a hardened
// derivation path.
func NewRelayer(phrase, path string) (*Relayer, error) {
	if phrase == "" {
		return nil, fmt.Errorf("%w: relayer passphrase is empty", ErrInvalidRequest)
	}
	key, err := crypto.PrivateKeyFromPhraseAndPath(phrase, path)
	if err != nil {
		return nil, fmt.Errorf("%w: derive relayer key: %v", ErrInvalidRequest, err)
	}
	return &Relayer{key: key}, nil
}

// Address returns the relayer's account address.
func (r *Relayer) Address() types.Address {
	return r.key.Address()
}

// PublicKey returns the relayer's ed25519 public key.
func (r *Relayer) PublicKey() []byte {
	return r.key.PublicKey()
}

// Nonce fetches the relayer's current account nonce from api.
func (r *Relayer) Nonce(ctx context.Context, api rpcclient.API) (uint64, error) {
	acc, err := api.AuthAccount(ctx, r.Address())
	if err != nil {
		return 0, fmt.Errorf("%w: get auth account %s: %v", ErrChainQuery, r.Address(), err)
	}
	return uint64(acc.Nonce), nil
}

// Close wipes the private key.
func (r *Relayer) Close() {
	r.key.Zero()
}
