package registration

import (
	"fmt"

	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
)

// BLSScheme signs registration messages and aggregates the signatures.
type BLSScheme interface {
	Sign(chainID, message []byte, s Signer) ([]byte, error)
	Aggregate(keys [][]byte, pairs []crypto.BLSSignaturePair) (crypto.AggregateSignature, error)
}

// KlayrBLS is the BLS12-381 proof-of-possession scheme used on chain.
type KlayrBLS struct{}

// Sign signs message under the chain registration tag and verifies the
// result against the signer's BLS key.
func (KlayrBLS) Sign(chainID, message []byte, s Signer) ([]byte, error) {
	sig, err := crypto.SignBLS(crypto.MessageTagChainRegistration, chainID, message, s.BLSPrivateKey)
	if err != nil {
		return nil, err
	}
	if !crypto.VerifyBLS(crypto.MessageTagChainRegistration, chainID, message, sig, s.BLSKey) {
		return nil, fmt.Errorf("private key does not match BLS key")
	}
	return sig, nil
}

// Aggregate combines signatures over the full key list.
func (KlayrBLS) Aggregate(keys [][]byte, pairs []crypto.BLSSignaturePair) (crypto.AggregateSignature, error) {
	return crypto.AggregateBLS(keys, pairs)
}

// SignAndAggregate has every signer sign message for chainID, one at a
// time in list order, then aggregates the signatures over the full
// ordered validator list.
func SignAndAggregate(scheme BLSScheme, chainID, message []byte, full []Validator, signers []Signer) (crypto.AggregateSignature, error) {
	if len(signers) == 0 {
		return crypto.AggregateSignature{}, ErrNoSigners
	}

	pairs := make([]crypto.BLSSignaturePair, 0, len(signers))
	for _, s := range signers {
		sig, err := scheme.Sign(chainID, message, s)
		if err != nil {
			return crypto.AggregateSignature{}, fmt.Errorf("%w: validator %x: %v", ErrSigning, s.BLSKey, err)
		}
		pairs = append(pairs, crypto.BLSSignaturePair{PublicKey: s.BLSKey, Signature: sig})
	}

	agg, err := scheme.Aggregate(BLSKeys(full), pairs)
	if err != nil {
		return crypto.AggregateSignature{}, fmt.Errorf("%w: aggregate: %v", ErrSigning, err)
	}
	return agg, nil
}
