package types

import (
	"fmt"
	"strings"
)

// Klayr32Prefix is prepended to every klayr32 address.
const Klayr32Prefix = "kly"

// Klayr32Length is the length of an encoded address: prefix, 32 data
// characters and a 6 character checksum.
const Klayr32Length = len(Klayr32Prefix) + 32 + 6

// klayr32Charset is the base32 alphabet used for address encoding.
const klayr32Charset = "zxvcpmbn3465o978uyrtkqew2adsjhfg"

// klayr32CharsetRev maps klayr32 characters to their 5-bit values. -1 = invalid.
var klayr32CharsetRev [128]int8

func init() {
	for i := range klayr32CharsetRev {
		klayr32CharsetRev[i] = -1
	}
	for i, c := range klayr32Charset {
		klayr32CharsetRev[c] = int8(i)
	}
}

// Klayr32Encode encodes a 20-byte address as "kly" + base32 data + checksum.
func Klayr32Encode(data []byte) (string, error) {
	if len(data) != AddressSize {
		return "", fmt.Errorf("klayr32: address must be %d bytes, got %d", AddressSize, len(data))
	}

	conv, err := convertBits(data, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("klayr32: convert bits: %w", err)
	}
	chk := klayr32CreateChecksum(conv)

	var sb strings.Builder
	sb.Grow(Klayr32Length)
	sb.WriteString(Klayr32Prefix)
	for _, b := range conv {
		sb.WriteByte(klayr32Charset[b])
	}
	for _, b := range chk {
		sb.WriteByte(klayr32Charset[b])
	}
	return sb.String(), nil
}

// Klayr32Decode validates a klayr32 string and returns the 20-byte address.
func Klayr32Decode(s string) ([]byte, error) {
	if len(s) != Klayr32Length {
		return nil, fmt.Errorf("klayr32: length must be %d, got %d", Klayr32Length, len(s))
	}
	if !strings.HasPrefix(s, Klayr32Prefix) {
		return nil, fmt.Errorf("klayr32: missing %q prefix", Klayr32Prefix)
	}

	dataStr := s[len(Klayr32Prefix):]
	data5 := make([]byte, len(dataStr))
	for i, c := range dataStr {
		if c > 127 {
			return nil, fmt.Errorf("klayr32: invalid character %q", c)
		}
		val := klayr32CharsetRev[c]
		if val < 0 {
			return nil, fmt.Errorf("klayr32: invalid character %q", c)
		}
		data5[i] = byte(val)
	}

	if klayr32Polymod(data5) != 1 {
		return nil, fmt.Errorf("klayr32: invalid checksum")
	}

	data8, err := convertBits(data5[:len(data5)-6], 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("klayr32: convert bits: %w", err)
	}
	return data8, nil
}

// klayr32Polymod computes the BCH checksum polynomial over 5-bit values.
// Unlike bech32 there is no human-readable part mixed in.
func klayr32Polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func klayr32CreateChecksum(data []byte) []byte {
	values := make([]byte, 0, len(data)+6)
	values = append(values, data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	polymod := klayr32Polymod(values) ^ 1
	ret := make([]byte, 6)
	for i := 0; i < 6; i++ {
		ret[i] = byte((polymod >> uint(5*(5-i))) & 31)
	}
	return ret
}

// convertBits converts between bit groups.
// fromBits/toBits are the source/destination group sizes (e.g. 8 and 5).
// pad controls whether incomplete groups are zero-padded.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	maxv := uint32((1 << toBits) - 1)
	var ret []byte

	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, fmt.Errorf("invalid data byte: %d", b)
		}
		acc = acc<<fromBits | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			ret = append(ret, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			ret = append(ret, byte((acc<<(toBits-bits))&maxv))
		}
	} else {
		if bits >= fromBits {
			return nil, fmt.Errorf("non-zero padding")
		}
		if (acc<<(toBits-bits))&maxv != 0 {
			return nil, fmt.Errorf("non-zero padding")
		}
	}

	return ret, nil
}
