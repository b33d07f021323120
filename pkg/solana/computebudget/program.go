package computebudget

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/turbin3/prereq-client/pkg/solana"
	"github.com/turbin3/prereq-client/pkg/solana/binary"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

const (
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

var (
	setComputeUnitLimitDiscriminator = binary.IndexDiscriminator(commandSetComputeUnitLimit)
	setComputeUnitPriceDiscriminator = binary.IndexDiscriminator(commandSetComputeUnitPrice)
)

// SetComputeUnitLimit caps the compute units the transaction may consume.
func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	data := make([]byte, setComputeUnitLimitDiscriminator.Size()+4)

	var offset int
	binary.PutDiscriminator(data, setComputeUnitLimitDiscriminator, &offset)
	binary.PutUint32(data, computeUnitLimit, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

// SetComputeUnitPrice sets the priority fee, in micro-lamports per compute
// unit.
func SetComputeUnitPrice(computeUnitPrice uint64) solana.Instruction {
	data := make([]byte, setComputeUnitPriceDiscriminator.Size()+8)

	var offset int
	binary.PutDiscriminator(data, setComputeUnitPriceDiscriminator, &offset)
	binary.PutUint64(data, computeUnitPrice, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	if len(data) != 5 {
		return 0, errors.New("invalid length")
	}

	var offset int
	if err := binary.GetDiscriminator(data, setComputeUnitLimitDiscriminator, &offset); err != nil {
		return 0, err
	}

	var limit uint32
	err := binary.GetUint32(data, &limit, &offset)
	return limit, err
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 {
		return 0, errors.New("invalid length")
	}

	var offset int
	if err := binary.GetDiscriminator(data, setComputeUnitPriceDiscriminator, &offset); err != nil {
		return 0, err
	}

	var price uint64
	err := binary.GetUint64(data, &price, &offset)
	return price, err
}

// DecompileSetComputeUnitPrice returns the unit price set by the instruction
// at index.
func DecompileSetComputeUnitPrice(m solana.Message, index int) (uint64, error) {
	if index < 0 || index >= len(m.Instructions) {
		return 0, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return 0, solana.ErrIncorrectProgram
	}

	return ParseSetComputeUnitPriceIxnData(i.Data)
}
