package network

import (
	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"

	"github.com/turbin3/prereq-client/pkg/solana"
)

var (
	// ErrStaleAnchor indicates the recent blockhash expired before the
	// transaction landed. Rebuild with a fresh anchor.
	ErrStaleAnchor = errors.New("recent blockhash expired")

	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrProgramRejected wraps the *solana.InstructionError of the failing
	// instruction.
	ErrProgramRejected = errors.New("program rejected transaction")

	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionRejected is returned for ledger rejections that don't map
	// to one of the more specific errors.
	ErrTransactionRejected = errors.New("transaction rejected")
)

// programRejection carries the instruction error while matching
// ErrProgramRejected with errors.Is.
type programRejection struct {
	instructionErr *solana.InstructionError
}

func (e *programRejection) Error() string {
	return ErrProgramRejected.Error() + ": " + e.instructionErr.Error()
}

func (e *programRejection) Is(target error) bool {
	return target == ErrProgramRejected
}

func (e *programRejection) As(target interface{}) bool {
	if t, ok := target.(**solana.InstructionError); ok {
		*t = e.instructionErr
		return true
	}
	return false
}

func (e *programRejection) Unwrap() error {
	return e.instructionErr.Err
}

// MapTransactionError translates a ledger rejection into the network error
// taxonomy. The original error stays reachable with errors.As.
func MapTransactionError(txErr *solana.TransactionError) error {
	if txErr == nil {
		return nil
	}

	if instructionErr := txErr.InstructionError(); instructionErr != nil {
		if instructionErr.ErrorKey() == solana.InstructionErrorInsufficientFunds {
			return errors.Wrap(ErrInsufficientFunds, instructionErr.Error())
		}
		return &programRejection{instructionErr: instructionErr}
	}

	switch txErr.ErrorKey() {
	case solana.TransactionErrorBlockhashNotFound:
		return errors.Wrap(ErrStaleAnchor, txErr.Error())
	case solana.TransactionErrorInsufficientFundsForFee, solana.TransactionErrorAccountNotFound:
		return errors.Wrap(ErrInsufficientFunds, txErr.Error())
	}

	return errors.Wrap(ErrTransactionRejected, txErr.Error())
}

// mapSubmitError maps errors returned by sendTransaction. rejected reports
// whether the network refused the transaction, in which case it can never
// land. Any JSON-RPC error response is a refusal: the node answered without
// forwarding the transaction.
func mapSubmitError(err error) (mapped error, rejected bool) {
	var txErr *solana.TransactionError
	if errors.As(err, &txErr) {
		return MapTransactionError(txErr), true
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return errors.Wrap(ErrTransactionRejected, rpcErr.Error()), true
	}

	return errors.Wrap(err, "failed to submit transaction"), false
}

func mapReadError(err error) error {
	switch {
	case errors.Is(err, solana.ErrNoAccountInfo):
		return errors.Wrap(ErrAccountNotFound, err.Error())
	case errors.Is(err, solana.ErrBlockhashNotFound):
		return errors.Wrap(ErrStaleAnchor, err.Error())
	}
	return err
}
