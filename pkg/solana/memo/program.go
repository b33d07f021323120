package memo

import (
	"bytes"
	"crypto/ed25519"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/turbin3/prereq-client/pkg/solana"
)

// ProgramKey is the address of the SPL memo program (v2).
//
// Current key: MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr
var ProgramKey = ed25519.PublicKey{5, 74, 83, 90, 153, 41, 33, 6, 77, 36, 232, 113, 96, 218, 56, 124, 124, 53, 181, 221, 188, 146, 187, 129, 228, 31, 168, 64, 65, 5, 68, 141}

var (
	ErrInvalidMemo = errors.New("memo must be valid utf-8")
)

// Instruction returns a memo instruction. Every signer listed must also sign
// the transaction, and the memo program verifies that they did.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/memo/program/src/processor.rs
func Instruction(data string, signers ...ed25519.PublicKey) (solana.Instruction, error) {
	if !utf8.ValidString(data) {
		return solana.Instruction{}, ErrInvalidMemo
	}

	accounts := make([]solana.AccountMeta, len(signers))
	for i, s := range signers {
		accounts[i] = solana.NewReadonlyAccountMeta(s, true)
	}

	return solana.NewInstruction(
		ProgramKey,
		[]byte(data),
		accounts...,
	), nil
}

type DecompiledMemo struct {
	Data    []byte
	Signers []ed25519.PublicKey
}

func DecompileMemo(m solana.Message, index int) (*DecompiledMemo, error) {
	if index < 0 || index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}

	decompiled := &DecompiledMemo{Data: i.Data}
	for _, a := range i.Accounts {
		decompiled.Signers = append(decompiled.Signers, m.Accounts[a])
	}

	return decompiled, nil
}
