// Package types defines the value types shared by the registration tool.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// AddressSize is the length of an address in bytes.
const AddressSize = 20

// Address is the first 20 bytes of SHA-256(ed25519 public key).
type Address [AddressSize]byte

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the klayr32-encoded address (e.g. "kly...").
func (a Address) String() string {
	s, err := Klayr32Encode(a[:])
	if err != nil {
		// Unreachable: the array length always matches.
		return hex.EncodeToString(a[:])
	}
	return s
}

// Hex returns the raw hex-encoded address.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// MarshalJSON encodes the address as a klayr32 string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a klayr32 or raw hex string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a klayr32 address or a raw 40-char hex address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}

	var raw []byte
	var err error
	if len(s) == Klayr32Length {
		raw, err = Klayr32Decode(s)
	} else {
		raw, err = hex.DecodeString(s)
	}
	if err != nil {
		return Address{}, fmt.Errorf("invalid address: %w", err)
	}
	if len(raw) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(raw))
	}

	var a Address
	copy(a[:], raw)
	return a, nil
}
