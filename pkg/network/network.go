// Package network submits transactions to, and reads state from, a Solana
// cluster.
package network

import (
	"context"
	"crypto/ed25519"

	"github.com/turbin3/prereq-client/pkg/solana"
)

// Gateway is the only component with side effects on the network. Every
// method blocks on at least one RPC round trip.
type Gateway interface {
	// GetRecentAnchor returns a recent blockhash to bound the validity window
	// of a transaction.
	GetRecentAnchor(ctx context.Context) (solana.Blockhash, error)

	// GetFeeForMessage returns the fee, in lamports, the network charges for
	// the message. ErrStaleAnchor is returned if its blockhash has expired.
	GetFeeForMessage(ctx context.Context, message solana.Message) (uint64, error)

	// SubmitAndConfirm submits a fully signed transaction and waits until it
	// reaches the configured commitment.
	//
	// A transaction is submitted at most once. If ctx ends first the
	// transaction stays Submitted and the context error is returned: it may
	// or may not land, which callers resolve with GetSignatureStatus.
	SubmitAndConfirm(ctx context.Context, txn *solana.Transaction) (solana.Signature, error)

	// GetSignatureStatus returns the status of a submitted transaction, or nil
	// if the network has no record of it.
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*solana.SignatureStatus, error)

	// GetAccount returns ErrAccountNotFound if the account doesn't exist.
	GetAccount(ctx context.Context, account ed25519.PublicKey) (*solana.AccountInfo, error)

	GetBalance(ctx context.Context, account ed25519.PublicKey) (uint64, error)

	// RequestAirdrop asks the cluster faucet for lamports and waits for the
	// airdrop to be confirmed.
	RequestAirdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64) (solana.Signature, error)
}
