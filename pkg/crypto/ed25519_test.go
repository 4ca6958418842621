package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    []uint32
		wantErr error
	}{
		{"default", DefaultDerivationPath, []uint32{0x80000000 + 44, 0x80000000 + 134, 0x80000000}, nil},
		{"master only", "m", []uint32{}, nil},
		{"missing m", "44'/134'", nil, ErrInvalidPath},
		{"non hardened", "m/44'/134", nil, ErrNonHardenedKey},
		{"garbage segment", "m/abc'", nil, ErrInvalidPath},
		{"out of range", "m/2147483648'", nil, ErrInvalidPath},
		{"empty", "", nil, ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDerivationPath(tt.path)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPrivateKeyFromPhraseAndPath_Deterministic(t *testing.T) {
	k1, err := PrivateKeyFromPhraseAndPath(testPhrase, DefaultDerivationPath)
	require.NoError(t, err)
	k2, err := PrivateKeyFromPhraseAndPath(testPhrase, DefaultDerivationPath)
	require.NoError(t, err)

	require.Len(t, k1.PublicKey(), 32)
	require.Equal(t, k1.PublicKey(), k2.PublicKey())
	require.Equal(t, k1.Address(), k2.Address())
}

func TestPrivateKeyFromPhraseAndPath_PathChangesKey(t *testing.T) {
	k1, err := PrivateKeyFromPhraseAndPath(testPhrase, "m/44'/134'/0'")
	require.NoError(t, err)
	k2, err := PrivateKeyFromPhraseAndPath(testPhrase, "m/44'/134'/1'")
	require.NoError(t, err)
	require.NotEqual(t, k1.PublicKey(), k2.PublicKey())
}

func TestPrivateKeyFromPhraseAndPath_Errors(t *testing.T) {
	_, err := PrivateKeyFromPhraseAndPath("", DefaultDerivationPath)
	require.Error(t, err)

	_, err = PrivateKeyFromPhraseAndPath(testPhrase, "m/44/134")
	require.ErrorIs(t, err, ErrNonHardenedKey)
}

// SLIP-10 test vector 1 for ed25519, chain m/0'.
func TestSLIP10_Vector(t *testing.T) {
	seed := mustHex(t, "000102030405060708090a0b0c0d0e0f")

	key, cc := slip10Master(seed)
	require.Equal(t, "2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7", hexString(key))
	require.Equal(t, "90046a93de5380a72b5e45010748567d5ea02bbf6522f979e05c0d8d8ca9fffb", hexString(cc))

	key, cc = slip10Child(key, cc, 0x80000000)
	require.Equal(t, "68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3", hexString(key))
	require.Equal(t, "8b59aa11380b624e81507a27fedda59fea6d0b779a778918a2fd3590e16e9c69", hexString(cc))
}

func TestPrivateKey_SignVerify(t *testing.T) {
	key, err := PrivateKeyFromPhraseAndPath(testPhrase, DefaultDerivationPath)
	require.NoError(t, err)

	chainID := []byte{0x04, 0x00, 0x00, 0x00}
	msg := []byte("payload")
	sig := key.Sign(MessageTagTransaction, chainID, msg)
	require.Len(t, sig, 64)

	require.True(t, VerifySignature(MessageTagTransaction, chainID, msg, sig, key.PublicKey()))
	require.False(t, VerifySignature(MessageTagTransaction, []byte{0x04, 0, 0, 1}, msg, sig, key.PublicKey()))
	require.False(t, VerifySignature(MessageTagChainRegistration, chainID, msg, sig, key.PublicKey()))
}

func TestPrivateKey_Zero(t *testing.T) {
	key, err := PrivateKeyFromSeed(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	key.Zero()
	for _, b := range key.key {
		require.Zero(t, b)
	}
}

func TestTaggedMessage(t *testing.T) {
	got := TaggedMessage("T_", []byte{1, 2}, []byte{3})
	require.Equal(t, []byte{'T', '_', 1, 2, 3}, got)
}

func TestAddressFromPubKey(t *testing.T) {
	pub := bytes.Repeat([]byte{1}, 32)
	h := Hash(pub)
	addr := AddressFromPubKey(pub)
	require.Equal(t, h[:20], addr[:])
}
