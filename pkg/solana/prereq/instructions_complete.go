package prereq

import (
	"crypto/ed25519"

	"github.com/turbin3/prereq-client/pkg/solana"
)

type CompleteInstructionAccounts struct {
	Signer ed25519.PublicKey
	Prereq ed25519.PublicKey
}

type CompleteInstructionArgs struct {
	Github []byte
}

// NewCompleteInstruction records the signer's github handle in a freshly
// created prereq account.
func (p *Program) NewCompleteInstruction(
	accounts *CompleteInstructionAccounts,
	args *CompleteInstructionArgs,
) (solana.Instruction, error) {
	return p.newGithubInstruction(InstructionTypeComplete, accounts.Signer, accounts.Prereq, args.Github)
}

type DecompiledCompleteInstruction struct {
	Accounts CompleteInstructionAccounts
	Args     CompleteInstructionArgs
}

func (p *Program) DecompileCompleteInstruction(m solana.Message, index int) (*DecompiledCompleteInstruction, error) {
	signer, prereq, github, err := p.decompileGithubInstruction(InstructionTypeComplete, m, index)
	if err != nil {
		return nil, err
	}

	return &DecompiledCompleteInstruction{
		Accounts: CompleteInstructionAccounts{
			Signer: signer,
			Prereq: prereq,
		},
		Args: CompleteInstructionArgs{
			Github: github,
		},
	}, nil
}
