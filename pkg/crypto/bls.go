package crypto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/ecc/bls12381"
	"github.com/cloudflare/circl/sign/bls"
)

// BLS key and signature sizes (public keys in G1, signatures in G2).
const (
	BLSPublicKeySize  = 48
	BLSPrivateKeySize = 32
	BLSSignatureSize  = 96
)

// blsSignatureDST is the proof-of-possession ciphersuite used by Klayr
// validators.
const blsSignatureDST = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_"

// Aggregation errors.
var (
	ErrNoSignatures     = errors.New("no signatures to aggregate")
	ErrUnknownSigner    = errors.New("signer key not in validator list")
	ErrDuplicateSigner  = errors.New("duplicate signer key")
	ErrInvalidBLSKey    = errors.New("invalid BLS key")
	ErrInvalidSignature = errors.New("invalid BLS signature")
)

// BLSSignaturePair is one validator's signature together with its public key.
type BLSSignaturePair struct {
	PublicKey []byte
	Signature []byte
}

// AggregateSignature is a combined BLS signature and the bitmap of the
// validators that contributed to it.
type AggregateSignature struct {
	AggregationBits []byte
	Signature       []byte
}

// SignBLS signs tag || chainID || msg with a 32-byte BLS secret key and
// returns the 96-byte compressed G2 signature.
func SignBLS(tag string, chainID, msg, privateKey []byte) ([]byte, error) {
	if len(privateKey) != BLSPrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidBLSKey, BLSPrivateKeySize, len(privateKey))
	}
	var sk bls12381.Scalar
	if err := sk.UnmarshalBinary(privateKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBLSKey, err)
	}

	var q bls12381.G2
	q.Hash(TaggedMessage(tag, chainID, msg), []byte(blsSignatureDST))
	q.ScalarMult(&sk, &q)
	return q.BytesCompressed(), nil
}

// VerifyBLS checks a single signature against a 48-byte public key.
func VerifyBLS(tag string, chainID, msg, signature, publicKey []byte) bool {
	var pk bls12381.G1
	if err := pk.SetBytes(publicKey); err != nil || pk.IsIdentity() {
		return false
	}
	var sig bls12381.G2
	if err := sig.SetBytes(signature); err != nil {
		return false
	}
	var h bls12381.G2
	h.Hash(TaggedMessage(tag, chainID, msg), []byte(blsSignatureDST))

	lhs := bls12381.Pair(&pk, &h)
	rhs := bls12381.Pair(bls12381.G1Generator(), &sig)
	return lhs.IsEqual(rhs)
}

// BLSPublicKey returns the compressed public key for a secret key.
func BLSPublicKey(privateKey []byte) ([]byte, error) {
	sk := new(bls.PrivateKey[bls.G1])
	if err := sk.UnmarshalBinary(privateKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBLSKey, err)
	}
	return sk.PublicKey().MarshalBinary()
}

// GenerateBLSKey derives a BLS key pair from at least 32 bytes of input
// keying material.
func GenerateBLSKey(ikm []byte) (privateKey, publicKey []byte, err error) {
	sk, err := bls.KeyGen[bls.G1](ikm, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("bls keygen: %w", err)
	}
	privateKey, err = sk.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal bls key: %w", err)
	}
	publicKey, err = sk.PublicKey().MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal bls public key: %w", err)
	}
	return privateKey, publicKey, nil
}

// AggregationBits returns a bitmap over keys with bit i (byte i/8, bit
// i%8) set when keys[i] is in signers. Every signer must appear in keys
// exactly once.
func AggregationBits(keys, signers [][]byte) ([]byte, error) {
	bits := make([]byte, (len(keys)+7)/8)
	for _, s := range signers {
		idx := indexOfKey(keys, s)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %x", ErrUnknownSigner, s)
		}
		if bits[idx/8]&(1<<(idx%8)) != 0 {
			return nil, fmt.Errorf("%w: %x", ErrDuplicateSigner, s)
		}
		bits[idx/8] |= 1 << (idx % 8)
	}
	return bits, nil
}

// AggregateBLS combines the signatures in pairs. keys is the full ordered
// validator key list used to build the aggregation bitmap.
func AggregateBLS(keys [][]byte, pairs []BLSSignaturePair) (AggregateSignature, error) {
	if len(pairs) == 0 {
		return AggregateSignature{}, ErrNoSignatures
	}

	signers := make([][]byte, len(pairs))
	sigs := make([]bls.Signature, len(pairs))
	for i, p := range pairs {
		if len(p.Signature) != BLSSignatureSize {
			return AggregateSignature{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(p.Signature))
		}
		signers[i] = p.PublicKey
		sigs[i] = p.Signature
	}

	bits, err := AggregationBits(keys, signers)
	if err != nil {
		return AggregateSignature{}, err
	}

	agg, err := bls.Aggregate(bls.G1{}, sigs)
	if err != nil {
		return AggregateSignature{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return AggregateSignature{AggregationBits: bits, Signature: agg}, nil
}

func indexOfKey(keys [][]byte, key []byte) int {
	for i, k := range keys {
		if bytes.Equal(k, key) {
			return i
		}
	}
	return -1
}
