package binary

import (
	"bytes"
	"crypto/sha256"

	"github.com/pkg/errors"
)

const (
	// AnchorDiscriminatorSize is the width of an Anchor instruction or account
	// discriminator.
	AnchorDiscriminatorSize = 8
)

var (
	ErrUnexpectedDiscriminator = errors.New("unexpected discriminator")
)

// Discriminator is the fixed-width prefix that selects a program entry point
// or identifies an account type.
type Discriminator []byte

// IndexDiscriminator returns a single byte enum tag discriminator.
func IndexDiscriminator(index uint8) Discriminator {
	return Discriminator{index}
}

// AnchorDiscriminator returns the discriminator Anchor programs use for the
// instruction with the given name: sha256("global:<name>")[:8].
func AnchorDiscriminator(name string) Discriminator {
	return anchorSighash("global", name)
}

// AnchorAccountDiscriminator returns the discriminator Anchor programs
// prepend to account data: sha256("account:<name>")[:8].
func AnchorAccountDiscriminator(name string) Discriminator {
	return anchorSighash("account", name)
}

func anchorSighash(namespace, name string) Discriminator {
	h := sha256.Sum256([]byte(namespace + ":" + name))
	d := make(Discriminator, AnchorDiscriminatorSize)
	copy(d, h[:AnchorDiscriminatorSize])
	return d
}

// Size is the encoded width of the discriminator.
func (d Discriminator) Size() int {
	return len(d)
}

// Equal reports whether two discriminators have the same bytes.
func (d Discriminator) Equal(other Discriminator) bool {
	return bytes.Equal(d, other)
}

func PutDiscriminator(dst []byte, d Discriminator, offset *int) {
	copy(dst[*offset:*offset+len(d)], d)
	*offset += len(d)
}

// GetDiscriminator consumes len(expected) bytes and checks them against the
// expected discriminator.
func GetDiscriminator(src []byte, expected Discriminator, offset *int) error {
	if err := ensure(src, *offset, len(expected), "discriminator"); err != nil {
		return err
	}

	actual := src[*offset : *offset+len(expected)]
	if !bytes.Equal(actual, expected) {
		return errors.Wrapf(ErrUnexpectedDiscriminator, "got %v, want %v", actual, []byte(expected))
	}

	*offset += len(expected)
	return nil
}
