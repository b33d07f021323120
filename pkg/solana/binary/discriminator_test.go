package binary

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorDiscriminator(t *testing.T) {
	assert.Equal(t, Discriminator{0, 77, 224, 147, 136, 25, 88, 76}, AnchorDiscriminator("complete"))
	assert.Equal(t, Discriminator{219, 200, 88, 176, 158, 63, 253, 127}, AnchorDiscriminator("update"))
	assert.Equal(t, Discriminator{63, 77, 126, 195, 95, 106, 211, 120}, AnchorAccountDiscriminator("PrereqAccount"))

	assert.Equal(t, AnchorDiscriminatorSize, AnchorDiscriminator("complete").Size())
	assert.True(t, AnchorDiscriminator("complete").Equal(AnchorDiscriminator("complete")))
	assert.False(t, AnchorDiscriminator("complete").Equal(AnchorDiscriminator("update")))
}

func TestIndexDiscriminator(t *testing.T) {
	d := IndexDiscriminator(1)
	assert.Equal(t, Discriminator{1}, d)
	assert.Equal(t, 1, d.Size())
}

func TestGetDiscriminator(t *testing.T) {
	data := []byte{1, 2, 3}

	var offset int
	require.NoError(t, GetDiscriminator(data, Discriminator{1, 2}, &offset))
	assert.Equal(t, 2, offset)

	offset = 0
	err := GetDiscriminator(data, Discriminator{2}, &offset)
	assert.True(t, errors.Is(err, ErrUnexpectedDiscriminator))
	assert.Equal(t, 0, offset)

	err = GetDiscriminator(data, Discriminator{1, 2, 3, 4}, &offset)
	assert.True(t, errors.Is(err, ErrShortBuffer))
}
