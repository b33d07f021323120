package prereq

import (
	"crypto/ed25519"

	"github.com/turbin3/prereq-client/pkg/solana"
)

type UpdateInstructionAccounts struct {
	Signer ed25519.PublicKey
	Prereq ed25519.PublicKey
}

type UpdateInstructionArgs struct {
	Github []byte
}

// NewUpdateInstruction replaces the github handle of an existing prereq
// account.
func (p *Program) NewUpdateInstruction(
	accounts *UpdateInstructionAccounts,
	args *UpdateInstructionArgs,
) (solana.Instruction, error) {
	return p.newGithubInstruction(InstructionTypeUpdate, accounts.Signer, accounts.Prereq, args.Github)
}

type DecompiledUpdateInstruction struct {
	Accounts UpdateInstructionAccounts
	Args     UpdateInstructionArgs
}

func (p *Program) DecompileUpdateInstruction(m solana.Message, index int) (*DecompiledUpdateInstruction, error) {
	signer, prereq, github, err := p.decompileGithubInstruction(InstructionTypeUpdate, m, index)
	if err != nil {
		return nil, err
	}

	return &DecompiledUpdateInstruction{
		Accounts: UpdateInstructionAccounts{
			Signer: signer,
			Prereq: prereq,
		},
		Args: UpdateInstructionArgs{
			Github: github,
		},
	}, nil
}
