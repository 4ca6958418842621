// Package keystore reads validator BLS keys from a Klayr keys file.
package keystore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	klog "github.com/Klingon-tech/klayr-reg/internal/log"
	"github.com/Klingon-tech/klayr-reg/pkg/codec"
	"github.com/Klingon-tech/klayr-reg/pkg/types"
	"github.com/mitchellh/go-homedir"
)

// Field numbers of the encrypted plain-keys payload.
const (
	fieldGeneratorKey        = 1
	fieldGeneratorPrivateKey = 2
	fieldBLSKey              = 3
	fieldBLSPrivateKey       = 4
)

// Entry is one validator's BLS key pair.
type Entry struct {
	BLSKey        []byte
	BLSPrivateKey []byte
}

// plainKeys is the unencrypted section of a keys file entry.
type plainKeys struct {
	GeneratorKey        types.HexBytes `json:"generatorKey,omitempty"`
	GeneratorPrivateKey types.HexBytes `json:"generatorPrivateKey,omitempty"`
	BLSKey              types.HexBytes `json:"blsKey"`
	BLSPrivateKey       types.HexBytes `json:"blsPrivateKey"`
}

// fileEntry is one element of the "keys" array.
type fileEntry struct {
	Address   string            `json:"address,omitempty"`
	Plain     *plainKeys        `json:"plain,omitempty"`
	Encrypted *EncryptedMessage `json:"encrypted,omitempty"`
}

// file is the on-disk keys file.
type file struct {
	Keys []fileEntry `json:"keys"`
}

// Keystore is a read-only set of validator BLS keys.
type Keystore struct {
	entries []Entry
}

// Load reads the keys file at path. A missing file yields an empty
// keystore. Entries that only carry an encrypted section are decrypted
// with password; when password is empty they are skipped.
func Load(path string, password []byte) (*Keystore, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand keys path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if errors.Is(err, fs.ErrNotExist) {
		klog.Keystore.Warn().Str("path", expanded).Msg("Keys file not found, no validator can sign")
		return &Keystore{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}
	return Parse(data, password)
}

// Parse decodes keys file contents.
func Parse(data []byte, password []byte) (*Keystore, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse keys file: %w", err)
	}

	ks := &Keystore{}
	skipped := 0
	for i, fe := range f.Keys {
		switch {
		case fe.Plain != nil && len(fe.Plain.BLSKey) > 0:
			ks.entries = append(ks.entries, Entry{
				BLSKey:        fe.Plain.BLSKey,
				BLSPrivateKey: fe.Plain.BLSPrivateKey,
			})
		case fe.Encrypted != nil && len(password) > 0:
			entry, err := decryptEntry(fe.Encrypted, password)
			if err != nil {
				return nil, fmt.Errorf("keys[%d]: %w", i, err)
			}
			ks.entries = append(ks.entries, entry)
		default:
			skipped++
		}
	}

	klog.Keystore.Debug().
		Int("entries", len(ks.entries)).
		Int("skipped", skipped).
		Msg("Keystore loaded")
	return ks, nil
}

func decryptEntry(msg *EncryptedMessage, password []byte) (Entry, error) {
	plain, err := Decrypt(msg, password)
	if err != nil {
		return Entry{}, err
	}
	fields, err := codec.Decode(plain)
	if err != nil {
		return Entry{}, fmt.Errorf("decode keys: %w", err)
	}
	blsKey, ok := fields.Bytes(fieldBLSKey)
	if !ok {
		return Entry{}, fmt.Errorf("decrypted keys missing blsKey")
	}
	blsPriv, ok := fields.Bytes(fieldBLSPrivateKey)
	if !ok {
		return Entry{}, fmt.Errorf("decrypted keys missing blsPrivateKey")
	}
	return Entry{BLSKey: blsKey, BLSPrivateKey: blsPriv}, nil
}

// New builds a keystore from entries.
func New(entries ...Entry) *Keystore {
	return &Keystore{entries: append([]Entry(nil), entries...)}
}

// Len returns the number of usable entries.
func (ks *Keystore) Len() int {
	return len(ks.entries)
}

// Find returns the entry whose BLS public key equals blsKey.
func (ks *Keystore) Find(blsKey []byte) (Entry, bool) {
	for _, e := range ks.entries {
		if bytes.Equal(e.BLSKey, blsKey) {
			return e, true
		}
	}
	return Entry{}, false
}
