package prereq

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/turbin3/prereq-client/pkg/solana"
	"github.com/turbin3/prereq-client/pkg/solana/binary"
	"github.com/turbin3/prereq-client/pkg/solana/system"
)

// Both entry points take the same accounts and a single github argument:
//
//  0. [WRITE, SIGNER] signer
//  1. [WRITE] prereq account, PDA(["prereq", signer])
//  2. [] system program
func (p *Program) newGithubInstruction(t InstructionType, signer, prereq ed25519.PublicKey, github []byte) (solana.Instruction, error) {
	data, err := binary.EncodeInstructionData(p.discriminators[t], github, MaxGithubLength)
	if err != nil {
		return solana.Instruction{}, errors.Wrapf(err, "invalid %s github argument", t)
	}

	return solana.BuildInstruction(
		p.ID,
		data,
		solana.NewAccountMeta(signer, true),
		solana.NewAccountMeta(prereq, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey, false),
	)
}

func (p *Program) decompileGithubInstruction(t InstructionType, m solana.Message, index int) (signer, prereq ed25519.PublicKey, github []byte, err error) {
	if index < 0 || index >= len(m.Instructions) {
		return nil, nil, nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if int(i.ProgramIndex) >= len(m.Accounts) || !bytes.Equal(m.Accounts[i.ProgramIndex], p.ID) {
		return nil, nil, nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, p.discriminators[t]) {
		return nil, nil, nil, solana.ErrIncorrectInstruction
	}

	if len(i.Accounts) != 3 {
		return nil, nil, nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(m.Accounts[i.Accounts[2]], system.ProgramKey) {
		return nil, nil, nil, errors.Wrap(solana.ErrIncorrectProgram, "expected system program at account 2")
	}

	github, err = binary.DecodeInstructionData(p.discriminators[t], i.Data)
	if err != nil {
		return nil, nil, nil, errors.Wrap(ErrInvalidInstructionData, err.Error())
	}
	if len(github) > MaxGithubLength {
		return nil, nil, nil, errors.Wrapf(binary.ErrPayloadTooLarge, "github is %d bytes", len(github))
	}

	return m.Accounts[i.Accounts[0]], m.Accounts[i.Accounts[1]], github, nil
}
