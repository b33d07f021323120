package solana

import (
	"github.com/pkg/errors"
)

var (
	ErrAlreadySubmitted = errors.New("transaction has already been submitted")
)

type TransactionState uint8

const (
	TransactionStateUnsigned TransactionState = iota
	TransactionStatePartiallySigned
	TransactionStateFullySigned
	TransactionStateSubmitted
	TransactionStateConfirmed
	TransactionStateRejected
)

func (s TransactionState) String() string {
	switch s {
	case TransactionStateUnsigned:
		return "unsigned"
	case TransactionStatePartiallySigned:
		return "partially_signed"
	case TransactionStateFullySigned:
		return "fully_signed"
	case TransactionStateSubmitted:
		return "submitted"
	case TransactionStateConfirmed:
		return "confirmed"
	case TransactionStateRejected:
		return "rejected"
	}

	return "unknown"
}

// State returns the lifecycle state of the transaction. Before submission it is
// derived from the signatures present.
func (t *Transaction) State() TransactionState {
	if t.submission != TransactionStateUnsigned {
		return t.submission
	}

	if len(t.Signatures) == 0 {
		return TransactionStateUnsigned
	}

	missing := len(t.MissingSigners())
	switch {
	case missing == 0:
		return TransactionStateFullySigned
	case missing == len(t.Signatures):
		return TransactionStateUnsigned
	default:
		return TransactionStatePartiallySigned
	}
}

// MarkSubmitted records that the transaction was handed to the network. Only a
// fully signed transaction that was never submitted can be marked.
func (t *Transaction) MarkSubmitted() error {
	switch t.State() {
	case TransactionStateFullySigned:
	case TransactionStateSubmitted, TransactionStateConfirmed, TransactionStateRejected:
		return ErrAlreadySubmitted
	default:
		return errors.Wrapf(ErrMissingRequiredSignature, "transaction is %s", t.State())
	}

	t.submission = TransactionStateSubmitted
	return nil
}

func (t *Transaction) MarkConfirmed() {
	t.submission = TransactionStateConfirmed
}

func (t *Transaction) MarkRejected() {
	t.submission = TransactionStateRejected
}
