package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testBLSKey(t *testing.T, fill byte) (sk, pk []byte) {
	t.Helper()
	sk, pk, err := GenerateBLSKey(bytes.Repeat([]byte{fill}, 32))
	require.NoError(t, err)
	require.Len(t, sk, BLSPrivateKeySize)
	require.Len(t, pk, BLSPublicKeySize)
	return sk, pk
}

func TestSignBLS_Verify(t *testing.T) {
	sk, pk := testBLSKey(t, 1)
	chainID := []byte{0x04, 0, 0, 1}
	msg := []byte("registration message")

	sig, err := SignBLS(MessageTagChainRegistration, chainID, msg, sk)
	require.NoError(t, err)
	require.Len(t, sig, BLSSignatureSize)

	require.True(t, VerifyBLS(MessageTagChainRegistration, chainID, msg, sig, pk))
	require.False(t, VerifyBLS(MessageTagChainRegistration, []byte{0x04, 0, 0, 2}, msg, sig, pk))
	require.False(t, VerifyBLS(MessageTagTransaction, chainID, msg, sig, pk))
}

func TestSignBLS_Deterministic(t *testing.T) {
	sk, _ := testBLSKey(t, 2)
	s1, err := SignBLS(MessageTagChainRegistration, nil, []byte("m"), sk)
	require.NoError(t, err)
	s2, err := SignBLS(MessageTagChainRegistration, nil, []byte("m"), sk)
	require.NoError(t, err)
	require.Equal(t, s1, s2)
}

func TestSignBLS_BadKey(t *testing.T) {
	_, err := SignBLS(MessageTagChainRegistration, nil, nil, []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidBLSKey)
}

func TestBLSPublicKey(t *testing.T) {
	sk, pk := testBLSKey(t, 3)
	got, err := BLSPublicKey(sk)
	require.NoError(t, err)
	require.Equal(t, pk, got)
}

func TestAggregateBLS_Bitmap(t *testing.T) {
	skA, pkA := testBLSKey(t, 4)
	_, pkB := testBLSKey(t, 5)
	skC, pkC := testBLSKey(t, 6)
	keys := [][]byte{pkA, pkB, pkC}

	msg := []byte("msg")
	sigA, err := SignBLS(MessageTagChainRegistration, nil, msg, skA)
	require.NoError(t, err)
	sigC, err := SignBLS(MessageTagChainRegistration, nil, msg, skC)
	require.NoError(t, err)

	agg, err := AggregateBLS(keys, []BLSSignaturePair{
		{PublicKey: pkA, Signature: sigA},
		{PublicKey: pkC, Signature: sigC},
	})
	require.NoError(t, err)
	require.Equal(t, []byte{0b101}, agg.AggregationBits)
	require.Len(t, agg.Signature, BLSSignatureSize)
}

func TestAggregateBLS_SingleSignerEqualsSignature(t *testing.T) {
	sk, pk := testBLSKey(t, 7)
	sig, err := SignBLS(MessageTagChainRegistration, nil, []byte("x"), sk)
	require.NoError(t, err)

	agg, err := AggregateBLS([][]byte{pk}, []BLSSignaturePair{{PublicKey: pk, Signature: sig}})
	require.NoError(t, err)
	require.Equal(t, sig, agg.Signature)
	require.True(t, VerifyBLS(MessageTagChainRegistration, nil, []byte("x"), agg.Signature, pk))
}

func TestAggregateBLS_BitmapSpansBytes(t *testing.T) {
	keys := make([][]byte, 10)
	for i := range keys {
		keys[i] = []byte{byte(i)}
	}
	sk, _ := testBLSKey(t, 8)
	sig, err := SignBLS(MessageTagChainRegistration, nil, nil, sk)
	require.NoError(t, err)

	agg, err := AggregateBLS(keys, []BLSSignaturePair{{PublicKey: keys[9], Signature: sig}})
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x02}, agg.AggregationBits)
}

func TestAggregateBLS_Errors(t *testing.T) {
	sk, pk := testBLSKey(t, 9)
	sig, err := SignBLS(MessageTagChainRegistration, nil, nil, sk)
	require.NoError(t, err)
	pair := BLSSignaturePair{PublicKey: pk, Signature: sig}

	_, err = AggregateBLS([][]byte{pk}, nil)
	require.ErrorIs(t, err, ErrNoSignatures)

	_, err = AggregateBLS([][]byte{{0x01}}, []BLSSignaturePair{pair})
	require.ErrorIs(t, err, ErrUnknownSigner)

	_, err = AggregateBLS([][]byte{pk}, []BLSSignaturePair{pair, pair})
	require.ErrorIs(t, err, ErrDuplicateSigner)

	_, err = AggregateBLS([][]byte{pk}, []BLSSignaturePair{{PublicKey: pk, Signature: []byte{1}}})
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestAggregationBits(t *testing.T) {
	keys := [][]byte{{0x01}, {0xaa}}
	bits, err := AggregationBits(keys, [][]byte{{0x01}})
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, bits)

	bits, err = AggregationBits(keys, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00}, bits)
}
