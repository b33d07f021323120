package binary

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// EncodeCompactU16Len encodes a length using the compact-u16 ("shortvec")
// format used throughout the transaction wire format: 7 bits per byte, high
// bit set on every byte but the last.
//
// If v > math.MaxUint16, an error is returned.
func EncodeCompactU16Len(w io.Writer, v int) (n int, err error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, errors.Errorf("compact-u16 value out of range: %d", v)
	}

	var buf [3]byte
	for {
		buf[n] = byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			n++
			break
		}

		buf[n] |= 0x80
		n++
	}

	return w.Write(buf[:n])
}

// DecodeCompactU16Len decodes a compact-u16 encoded length.
func DecodeCompactU16Len(r io.ByteReader) (int, error) {
	var val int
	for i := 0; i < 3; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		val |= int(b&0x7f) << (i * 7)
		if b&0x80 == 0 {
			if val > math.MaxUint16 {
				return 0, errors.Errorf("compact-u16 value out of range: %d", val)
			}
			return val, nil
		}
	}

	return 0, errors.New("invalid compact-u16 encoding: more than 3 bytes")
}
