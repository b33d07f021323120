package prereq

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/turbin3/prereq-client/pkg/solana/binary"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

// MaxGithubLength is the longest github handle the program stores.
const MaxGithubLength = 64

// Program is a binding to a deployed prereq enrollment program. The program id
// comes from configuration, so the same binding can target any cluster.
type Program struct {
	ID ed25519.PublicKey

	discriminators map[InstructionType]binary.Discriminator
}

type Option func(*Program)

// WithIndexDiscriminators selects entry points with a single byte tag
// (complete = 1, update = 2) instead of the Anchor sighash.
func WithIndexDiscriminators() Option {
	return func(p *Program) {
		for t := range p.discriminators {
			p.discriminators[t] = binary.IndexDiscriminator(uint8(t))
		}
	}
}

func NewProgram(id ed25519.PublicKey, opts ...Option) (*Program, error) {
	if len(id) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(ErrInvalidProgram, "program id has length %d", len(id))
	}

	p := &Program{
		ID: id,
		discriminators: map[InstructionType]binary.Discriminator{
			InstructionTypeComplete: binary.AnchorDiscriminator("complete"),
			InstructionTypeUpdate:   binary.AnchorDiscriminator("update"),
		},
	}
	for _, o := range opts {
		o(p)
	}

	return p, nil
}

// NewProgramFromBase58 is NewProgram for a base58 encoded program id.
func NewProgramFromBase58(id string, opts ...Option) (*Program, error) {
	decoded, err := base58.Decode(id)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidProgram, "%s: %v", id, err)
	}

	return NewProgram(decoded, opts...)
}

// Discriminator returns the instruction data prefix of the entry point.
func (p *Program) Discriminator(t InstructionType) binary.Discriminator {
	return p.discriminators[t]
}

func (p *Program) String() string {
	return base58.Encode(p.ID)
}
