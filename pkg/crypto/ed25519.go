package crypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klayr-reg/pkg/types"
	"github.com/tyler-smith/go-bip39"
)

// DefaultDerivationPath is the Klayr account path (coin type 134).
const DefaultDerivationPath = "m/44'/134'/0'"

// hardenedOffset is added to an index to mark a hardened child.
const hardenedOffset uint32 = 0x80000000

// ed25519SeedKey is the SLIP-10 HMAC key for the ed25519 curve.
var ed25519SeedKey = []byte("ed25519 seed")

// Errors returned by path parsing.
var (
	ErrInvalidPath    = errors.New("invalid key derivation path format")
	ErrNonHardenedKey = errors.New("only hardened paths are supported")
)

// PrivateKey is an ed25519 key used by a relayer to sign transactions.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// PrivateKeyFromSeed builds a key from a 32-byte ed25519 seed.
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &PrivateKey{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// PrivateKeyFromPhraseAndPath derives an ed25519 key from a BIP-39
// passphrase along a hardened SLIP-10 path such as "m/44'/134'/0'".
func PrivateKeyFromPhraseAndPath(phrase, path string) (*PrivateKey, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, fmt.Errorf("empty passphrase")
	}
	indices, err := ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(phrase, "")
	key, chainCode := slip10Master(seed)
	for _, idx := range indices {
		key, chainCode = slip10Child(key, chainCode, idx)
	}
	return PrivateKeyFromSeed(key)
}

// ParseDerivationPath parses "m/a'/b'/..." into hardened child indices.
func ParseDerivationPath(path string) ([]uint32, error) {
	segments := strings.Split(path, "/")
	if len(segments) == 0 || segments[0] != "m" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	indices := make([]uint32, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		if !strings.HasSuffix(seg, "'") {
			if _, err := strconv.ParseUint(seg, 10, 31); err == nil {
				return nil, fmt.Errorf("%w: segment %q", ErrNonHardenedKey, seg)
			}
			return nil, fmt.Errorf("%w: segment %q", ErrInvalidPath, seg)
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(seg, "'"), 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %q", ErrInvalidPath, seg)
		}
		indices = append(indices, hardenedOffset+uint32(n))
	}
	return indices, nil
}

func slip10Master(seed []byte) (key, chainCode []byte) {
	mac := hmac.New(sha512.New, ed25519SeedKey)
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

func slip10Child(key, chainCode []byte, index uint32) ([]byte, []byte) {
	data := make([]byte, 0, 1+len(key)+4)
	data = append(data, 0)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

// PublicKey returns the 32-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.Public().(ed25519.PublicKey)
}

// Address returns the account address for this key.
func (pk *PrivateKey) Address() types.Address {
	return AddressFromPubKey(pk.PublicKey())
}

// Sign signs tag || chainID || msg.
func (pk *PrivateKey) Sign(tag string, chainID, msg []byte) []byte {
	return ed25519.Sign(pk.key, TaggedMessage(tag, chainID, msg))
}

// Zero overwrites the key material.
func (pk *PrivateKey) Zero() {
	for i := range pk.key {
		pk.key[i] = 0
	}
}

// VerifySignature checks an ed25519 signature over tag || chainID || msg.
func VerifySignature(tag string, chainID, msg, signature, publicKey []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(publicKey, TaggedMessage(tag, chainID, msg), signature)
}
