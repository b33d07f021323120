package binary

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields_RoundTrip(t *testing.T) {
	key, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	payload := []byte("MinhNguyen")

	var offset int
	data := make([]byte, 1+1+2+4+8+ed25519.PublicKeySize+SizeOfBytes(payload))
	PutUint8(data, 7, &offset)
	PutBool(data, true, &offset)
	PutUint16(data, 0x0102, &offset)
	PutUint32(data, 0x01020304, &offset)
	PutUint64(data, 0x0102030405060708, &offset)
	PutKey32(data, key, &offset)
	PutBytes(data, payload, &offset)
	require.Equal(t, len(data), offset)

	// Little endian, no padding.
	assert.Equal(t, []byte{0x02, 0x01}, data[2:4])
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, data[4:8])
	assert.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, data[8:16])
	assert.Equal(t, []byte{10, 0, 0, 0}, data[48:52])

	var (
		u8      uint8
		b       bool
		u16     uint16
		u32     uint32
		u64     uint64
		actual  ed25519.PublicKey
		decoded []byte
	)
	offset = 0
	require.NoError(t, GetUint8(data, &u8, &offset))
	require.NoError(t, GetBool(data, &b, &offset))
	require.NoError(t, GetUint16(data, &u16, &offset))
	require.NoError(t, GetUint32(data, &u32, &offset))
	require.NoError(t, GetUint64(data, &u64, &offset))
	require.NoError(t, GetKey32(data, &actual, &offset))
	require.NoError(t, GetBytes(data, &decoded, &offset))
	assert.Equal(t, len(data), offset)

	assert.EqualValues(t, 7, u8)
	assert.True(t, b)
	assert.EqualValues(t, 0x0102, u16)
	assert.EqualValues(t, 0x01020304, u32)
	assert.EqualValues(t, 0x0102030405060708, u64)
	assert.Equal(t, key, actual)
	assert.Equal(t, payload, decoded)
}

func TestFields_ShortBuffer(t *testing.T) {
	var offset int
	var u64 uint64
	err := GetUint64(make([]byte, 7), &u64, &offset)
	assert.True(t, errors.Is(err, ErrShortBuffer))
	assert.Equal(t, 0, offset)

	// Length prefix claims more bytes than are available.
	var b []byte
	err = GetBytes([]byte{5, 0, 0, 0, 'a', 'b'}, &b, &offset)
	assert.True(t, errors.Is(err, ErrShortBuffer))

	var key ed25519.PublicKey
	offset = 0
	err = GetKey32(make([]byte, 31), &key, &offset)
	assert.True(t, errors.Is(err, ErrShortBuffer))

	var v bool
	offset = 0
	assert.Error(t, GetBool([]byte{2}, &v, &offset))
}
