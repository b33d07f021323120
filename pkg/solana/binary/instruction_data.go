package binary

import (
	"github.com/pkg/errors"
)

var (
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrTrailingBytes   = errors.New("trailing bytes after payload")
)

// EncodeInstructionData encodes the discriminator followed by a single u32
// length prefixed byte string:
//
//	| discriminator | len (u32 LE) | payload |
//
// A maxPayload <= 0 disables the length check.
func EncodeInstructionData(d Discriminator, payload []byte, maxPayload int) ([]byte, error) {
	if maxPayload > 0 && len(payload) > maxPayload {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "payload is %d bytes, max is %d", len(payload), maxPayload)
	}

	var offset int
	data := make([]byte, d.Size()+SizeOfBytes(payload))

	PutDiscriminator(data, d, &offset)
	PutBytes(data, payload, &offset)

	return data, nil
}

// DecodeInstructionData is the inverse of EncodeInstructionData.
func DecodeInstructionData(d Discriminator, data []byte) ([]byte, error) {
	var offset int
	if err := GetDiscriminator(data, d, &offset); err != nil {
		return nil, err
	}

	var payload []byte
	if err := GetBytes(data, &payload, &offset); err != nil {
		return nil, errors.Wrap(err, "failed to read payload")
	}

	if offset != len(data) {
		return nil, errors.Wrapf(ErrTrailingBytes, "%d unread", len(data)-offset)
	}

	return payload, nil
}
