package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// ChainIDLength is the length of a Klayr chain ID in bytes.
const ChainIDLength = 4

// HexBytes is a byte slice carried as a hex string in JSON.
type HexBytes []byte

// String returns the hex encoding.
func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

// Equal reports whether both byte strings are identical.
func (h HexBytes) Equal(o []byte) bool {
	return bytes.Equal(h, o)
}

// MarshalJSON encodes the bytes as a hex string.
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

// UnmarshalJSON decodes a hex string, with or without a 0x prefix.
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := ParseHex(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

// ParseHex decodes a hex string, accepting an optional 0x prefix.
func ParseHex(s string) (HexBytes, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

// Uint64String is a uint64 that nodes deliver as a decimal string
// ("1000") but may also deliver as a JSON number.
type Uint64String uint64

// MarshalJSON encodes the value as a decimal string.
func (u Uint64String) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

// UnmarshalJSON accepts "123" or 123.
func (u *Uint64String) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid uint64 string %q: %w", s, err)
		}
		*u = Uint64String(v)
		return nil
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid uint64: %w", err)
	}
	*u = Uint64String(v)
	return nil
}
