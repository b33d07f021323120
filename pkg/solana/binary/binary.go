// Package binary provides the little-endian field layout used by on-chain
// program instruction and account data.
//
// Put functions write at dst[*offset:] and advance the offset. Callers size
// dst up front. Get functions read at src[*offset:], advance the offset and
// fail with ErrShortBuffer instead of panicking on truncated input.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"
)

var (
	ErrShortBuffer = errors.New("buffer too short")
)

// SizeOfBytes is the encoded size of a u32 length prefixed byte string.
func SizeOfBytes(v []byte) int {
	return 4 + len(v)
}

func PutKey32(dst []byte, src ed25519.PublicKey, offset *int) {
	copy(dst[*offset:*offset+ed25519.PublicKeySize], src)
	*offset += ed25519.PublicKeySize
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset += 1
}

func PutBool(dst []byte, v bool, offset *int) {
	if v {
		PutUint8(dst, 1, offset)
	} else {
		PutUint8(dst, 0, offset)
	}
}

func PutUint16(dst []byte, v uint16, offset *int) {
	binary.LittleEndian.PutUint16(dst[*offset:], v)
	*offset += 2
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst[*offset:], v)
	*offset += 4
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}

// PutBytes writes a 4 byte little-endian length followed by the raw bytes.
// There is no padding and no terminator.
func PutBytes(dst []byte, v []byte, offset *int) {
	PutUint32(dst, uint32(len(v)), offset)
	copy(dst[*offset:], v)
	*offset += len(v)
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) error {
	if err := ensure(src, *offset, ed25519.PublicKeySize, "key"); err != nil {
		return err
	}

	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:])
	*offset += ed25519.PublicKeySize
	return nil
}

func GetUint8(src []byte, dst *uint8, offset *int) error {
	if err := ensure(src, *offset, 1, "u8"); err != nil {
		return err
	}

	*dst = src[*offset]
	*offset += 1
	return nil
}

func GetBool(src []byte, dst *bool, offset *int) error {
	var v uint8
	if err := GetUint8(src, &v, offset); err != nil {
		return err
	}

	switch v {
	case 0:
		*dst = false
	case 1:
		*dst = true
	default:
		return errors.Errorf("invalid bool value %d at offset %d", v, *offset-1)
	}
	return nil
}

func GetUint16(src []byte, dst *uint16, offset *int) error {
	if err := ensure(src, *offset, 2, "u16"); err != nil {
		return err
	}

	*dst = binary.LittleEndian.Uint16(src[*offset:])
	*offset += 2
	return nil
}

func GetUint32(src []byte, dst *uint32, offset *int) error {
	if err := ensure(src, *offset, 4, "u32"); err != nil {
		return err
	}

	*dst = binary.LittleEndian.Uint32(src[*offset:])
	*offset += 4
	return nil
}

func GetUint64(src []byte, dst *uint64, offset *int) error {
	if err := ensure(src, *offset, 8, "u64"); err != nil {
		return err
	}

	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
	return nil
}

// GetBytes reads a u32 length prefixed byte string.
func GetBytes(src []byte, dst *[]byte, offset *int) error {
	var length uint32
	if err := GetUint32(src, &length, offset); err != nil {
		return err
	}
	if err := ensure(src, *offset, int(length), "bytes"); err != nil {
		return err
	}

	*dst = make([]byte, length)
	copy(*dst, src[*offset:])
	*offset += int(length)
	return nil
}

func ensure(src []byte, offset, size int, field string) error {
	if offset < 0 || size < 0 || len(src)-offset < size {
		return errors.Wrapf(ErrShortBuffer, "%s needs %d bytes at offset %d, have %d", field, size, offset, len(src))
	}
	return nil
}
