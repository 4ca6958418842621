package tx

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
)

// Validation errors.
var (
	ErrMissingModule  = errors.New("transaction missing module")
	ErrMissingCommand = errors.New("transaction missing command")
	ErrInvalidSender  = errors.New("invalid sender public key")
	ErrMissingSig     = errors.New("transaction missing signature")
	ErrInvalidSig     = errors.New("invalid signature")
)

// Validate checks the transaction structure. When chainID is non-nil the
// signatures are also verified against the sender key.
func (tx Transaction) Validate(chainID []byte) error {
	if tx.Module == "" {
		return ErrMissingModule
	}
	if tx.Command == "" {
		return ErrMissingCommand
	}
	if len(tx.SenderPublicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: length %d", ErrInvalidSender, len(tx.SenderPublicKey))
	}
	if len(tx.Signatures) == 0 {
		return ErrMissingSig
	}
	if chainID == nil {
		return nil
	}
	msg := tx.SigningBytes()
	for i, sig := range tx.Signatures {
		if !crypto.VerifySignature(crypto.MessageTagTransaction, chainID, msg, sig, tx.SenderPublicKey) {
			return fmt.Errorf("signature %d: %w", i, ErrInvalidSig)
		}
	}
	return nil
}
