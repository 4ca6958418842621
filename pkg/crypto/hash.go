// Package crypto provides the hashing, signing and key derivation
// primitives used to build Klayr registration transactions.
package crypto

import (
	"crypto/sha256"

	"github.com/Klingon-tech/klayr-reg/pkg/types"
)

// HashSize is the length of a SHA-256 digest.
const HashSize = sha256.Size

// Hash computes a SHA-256 hash of the input data.
func Hash(data []byte) [HashSize]byte {
	return sha256.Sum256(data)
}

// AddressFromPubKey derives an address from an ed25519 public key.
// Address = SHA-256(pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
