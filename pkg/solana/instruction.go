package solana

import (
	"bytes"
	"crypto/ed25519"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
	ErrEmptyAccountList     = errors.New("instruction requires at least one account")
)

// AccountMeta is an account referenced by an instruction, with the permissions
// the instruction needs on it.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	isPayer    bool
	isProgram  bool
}

// NewAccountMeta returns a writable account.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta returns an account the instruction only reads.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// permissionRank orders accounts by the groups of the legacy message format:
// writable signers, readonly signers, writable non-signers, then readonly
// non-signers. The payer always comes first.
func (a AccountMeta) permissionRank() int {
	switch {
	case a.isPayer:
		return 0
	case a.IsSigner && a.IsWritable:
		return 1
	case a.IsSigner:
		return 2
	case a.IsWritable:
		return 3
	default:
		return 4
	}
}

// sortAccountMetas sorts accounts into message order. Within a permission
// group programs go last, and ties break on the public key so that
// compilation is deterministic.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
func sortAccountMetas(accounts []AccountMeta) {
	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]

		if ra, rb := a.permissionRank(), b.permissionRank(); ra != rb {
			return ra < rb
		}
		if a.isProgram != b.isProgram {
			return !a.isProgram
		}
		return bytes.Compare(a.PublicKey, b.PublicKey) < 0
	})
}

// Instruction represents a transaction instruction.
//
// The order of Accounts is positional: it must match the account schema of
// the target program exactly.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// BuildInstruction creates a new instruction for a program that requires at
// least one account.
func BuildInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) (Instruction, error) {
	if len(accounts) == 0 {
		return Instruction{}, errors.Wrapf(ErrEmptyAccountList, "program %s", base58.Encode(program))
	}

	return NewInstruction(program, data, accounts...), nil
}

// CompiledInstruction is an instruction within a message, referencing its
// program and accounts by index into Message.Accounts.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
