package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Supported key derivation functions and ciphers.
const (
	KDFArgon2 = "argon2id"
	KDFPBKDF2 = "PBKDF2"
	CipherAES = "aes-256-gcm"
)

const (
	keySize    = 32
	saltSize   = 16
	ivSize     = 12
	tagSize    = 16
	msgVersion = "1"
)

// ErrWrongPassword is returned when the MAC does not match.
var ErrWrongPassword = errors.New("wrong password or corrupted entry")

// KDFParams holds the key derivation parameters of an encrypted message.
type KDFParams struct {
	Parallelism uint8  `json:"parallelism"`
	Iterations  uint32 `json:"iterations"`
	MemorySize  uint32 `json:"memorySize"`
	Salt        string `json:"salt"`
}

// CipherParams holds the AES-GCM nonce and tag.
type CipherParams struct {
	IV  string `json:"iv"`
	Tag string `json:"tag"`
}

// EncryptedMessage is a password-encrypted blob as written by Klayr key
// tooling.
type EncryptedMessage struct {
	Version      string       `json:"version"`
	Ciphertext   string       `json:"ciphertext"`
	Mac          string       `json:"mac"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	Cipher       string       `json:"cipher"`
	CipherParams CipherParams `json:"cipherparams"`
}

// DefaultArgon2Params returns the argon2id settings used for new messages.
func DefaultArgon2Params() KDFParams {
	return KDFParams{Parallelism: 4, Iterations: 1, MemorySize: 2024}
}

func deriveKey(kdf string, password, salt []byte, p KDFParams) ([]byte, error) {
	switch kdf {
	case KDFArgon2:
		return argon2.IDKey(password, salt, p.Iterations, p.MemorySize, p.Parallelism, keySize), nil
	case KDFPBKDF2:
		return pbkdf2.Key(password, salt, int(p.Iterations), keySize, sha256.New), nil
	default:
		return nil, fmt.Errorf("unsupported kdf %q", kdf)
	}
}

func computeMac(key, ciphertext []byte) []byte {
	h := sha256.New()
	h.Write(key[16:32])
	h.Write(ciphertext)
	return h.Sum(nil)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Decrypt verifies the MAC and returns the plaintext.
func Decrypt(msg *EncryptedMessage, password []byte) ([]byte, error) {
	if msg.Cipher != CipherAES {
		return nil, fmt.Errorf("unsupported cipher %q", msg.Cipher)
	}
	salt, err := hex.DecodeString(msg.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	iv, err := hex.DecodeString(msg.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	tag, err := hex.DecodeString(msg.CipherParams.Tag)
	if err != nil {
		return nil, fmt.Errorf("decode tag: %w", err)
	}
	ciphertext, err := hex.DecodeString(msg.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	mac, err := hex.DecodeString(msg.Mac)
	if err != nil {
		return nil, fmt.Errorf("decode mac: %w", err)
	}

	key, err := deriveKey(msg.KDF, password, salt, msg.KDFParams)
	if err != nil {
		return nil, err
	}
	defer zero(key)

	if subtle.ConstantTimeCompare(computeMac(key, ciphertext), mac) != 1 {
		return nil, ErrWrongPassword
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

// Encrypt encrypts plaintext with AES-256-GCM under a key derived by kdf.
func Encrypt(plaintext, password []byte, kdf string, params KDFParams) (*EncryptedMessage, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	key, err := deriveKey(kdf, password, salt, params)
	if err != nil {
		return nil, err
	}
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	sealed := aead.Seal(nil, iv, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	params.Salt = hex.EncodeToString(salt)
	return &EncryptedMessage{
		Version:      msgVersion,
		Ciphertext:   hex.EncodeToString(ciphertext),
		Mac:          hex.EncodeToString(computeMac(key, ciphertext)),
		KDF:          kdf,
		KDFParams:    params,
		Cipher:       CipherAES,
		CipherParams: CipherParams{IV: hex.EncodeToString(iv), Tag: hex.EncodeToString(tag)},
	}, nil
}
