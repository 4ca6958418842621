package registration

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
	"github.com/Klingon-tech/klayr-reg/pkg/tx"
	"github.com/stretchr/testify/require"
)

var (
	mainchainID = []byte{0x04, 0x00, 0x00, 0x00}
	sidechainID = []byte{0x04, 0x00, 0x00, 0x01}
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testRelayerKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.PrivateKeyFromSeed(bytes.Repeat([]byte{0x11}, 32))
	require.NoError(t, err)
	return key
}

type testBLSKey struct {
	sk, pk []byte
}

func newBLSKey(t *testing.T, fill byte) testBLSKey {
	t.Helper()
	sk, pk, err := crypto.GenerateBLSKey(bytes.Repeat([]byte{fill}, 32))
	require.NoError(t, err)
	return testBLSKey{sk: sk, pk: pk}
}

// fakeScheme accepts keys of any length. Signatures are a hash of the
// signer key and message, so aggregation only has to build the bitmap.
type fakeScheme struct {
	signed  [][]byte
	failKey []byte
}

func (f *fakeScheme) Sign(chainID, message []byte, s Signer) ([]byte, error) {
	if f.failKey != nil && bytes.Equal(f.failKey, s.BLSKey) {
		return nil, errors.New("boom")
	}
	f.signed = append(f.signed, s.BLSKey)
	h := sha256.Sum256(append(append(append([]byte(nil), chainID...), message...), s.BLSKey...))
	return bytes.Repeat(h[:], 3), nil
}

func (f *fakeScheme) Aggregate(keys [][]byte, pairs []crypto.BLSSignaturePair) (crypto.AggregateSignature, error) {
	signers := make([][]byte, len(pairs))
	for i, p := range pairs {
		signers[i] = p.PublicKey
	}
	bits, err := crypto.AggregationBits(keys, signers)
	if err != nil {
		return crypto.AggregateSignature{}, err
	}
	return crypto.AggregateSignature{AggregationBits: bits, Signature: make([]byte, crypto.BLSSignatureSize)}, nil
}

type fixedEstimator struct {
	fee   uint64
	err   error
	calls int
}

func (e *fixedEstimator) EstimateMinFee(tx.Transaction) (uint64, error) {
	e.calls++
	return e.fee, e.err
}

func u64(v uint64) *uint64 { return &v }
