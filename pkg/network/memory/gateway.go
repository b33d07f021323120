// Package memory provides an in-memory network.Gateway that executes the
// system, prereq, memo and compute budget instructions this client builds.
package memory

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/turbin3/prereq-client/pkg/network"
	"github.com/turbin3/prereq-client/pkg/solana"
	"github.com/turbin3/prereq-client/pkg/solana/computebudget"
	"github.com/turbin3/prereq-client/pkg/solana/memo"
	"github.com/turbin3/prereq-client/pkg/solana/prereq"
	"github.com/turbin3/prereq-client/pkg/solana/system"
)

const (
	DefaultFeePerSignature = 5000

	// Rent exemption, in lamports, per byte of account data including the
	// fixed account overhead.
	rentPerByte     = 6960
	accountOverhead = 128
)

const (
	systemAccountAlreadyInUse        solana.CustomError = 0
	systemResultWithNegativeLamports solana.CustomError = 1

	anchorInstructionFallbackNotFound solana.CustomError = 101
	anchorConstraintHasOne            solana.CustomError = 2001
	anchorConstraintSeeds             solana.CustomError = 2006
	anchorAccountNotInitialized       solana.CustomError = 3012
)

type Method string

const (
	MethodGetRecentAnchor    Method = "GetRecentAnchor"
	MethodGetFeeForMessage   Method = "GetFeeForMessage"
	MethodSubmitAndConfirm   Method = "SubmitAndConfirm"
	MethodGetSignatureStatus Method = "GetSignatureStatus"
	MethodGetAccount         Method = "GetAccount"
	MethodGetBalance         Method = "GetBalance"
	MethodRequestAirdrop     Method = "RequestAirdrop"
)

// Gateway is an in-memory network.Gateway. Submitted transactions are checked
// and executed atomically, as a node would during preflight.
type Gateway struct {
	mu sync.Mutex

	program         *prereq.Program
	feePerSignature uint64

	slot      uint64
	blockhash solana.Blockhash
	recent    map[solana.Blockhash]struct{}

	accounts    map[string]*solana.AccountInfo
	statuses    map[solana.Signature]*solana.SignatureStatus
	submissions []solana.Transaction

	induced map[Method]error
}

var _ network.Gateway = (*Gateway)(nil)

// New returns an in-memory gateway that executes instructions for program.
func New(program *prereq.Program) *Gateway {
	g := &Gateway{
		program:         program,
		feePerSignature: DefaultFeePerSignature,
		recent:          make(map[solana.Blockhash]struct{}),
		accounts:        make(map[string]*solana.AccountInfo),
		statuses:        make(map[solana.Signature]*solana.SignatureStatus),
		induced:         make(map[Method]error),
	}
	g.advanceBlockhash()
	return g
}

// SetFeePerSignature sets the fee charged for each required signature.
func (g *Gateway) SetFeePerSignature(fee uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.feePerSignature = fee
}

// SetBalance sets the lamports of a system owned account, creating it if
// needed.
func (g *Gateway) SetBalance(account ed25519.PublicKey, lamports uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.accountOrNew(g.accounts, account).Lamports = lamports
}

// SetAccount replaces the state of an account.
func (g *Gateway) SetAccount(account ed25519.PublicKey, info solana.AccountInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cloned := cloneAccount(&info)
	g.accounts[base58.Encode(account)] = cloned
}

// AdvanceBlockhash issues a new blockhash and expires every previous one.
func (g *Gateway) AdvanceBlockhash() solana.Blockhash {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.recent = make(map[solana.Blockhash]struct{})
	return g.advanceBlockhash()
}

func (g *Gateway) advanceBlockhash() solana.Blockhash {
	_, _ = rand.Read(g.blockhash[:])
	g.recent[g.blockhash] = struct{}{}
	return g.blockhash
}

// InduceError makes the next call of method fail with err.
func (g *Gateway) InduceError(method Method, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.induced[method] = err
}

// Submissions returns every transaction that reached the network, in order.
func (g *Gateway) Submissions() []solana.Transaction {
	g.mu.Lock()
	defer g.mu.Unlock()

	submissions := make([]solana.Transaction, len(g.submissions))
	copy(submissions, g.submissions)
	return submissions
}

func (g *Gateway) takeInduced(ctx context.Context, method Method) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err, ok := g.induced[method]
	if ok {
		delete(g.induced, method)
	}
	return err
}

// GetRecentAnchor implements network.Gateway.GetRecentAnchor
func (g *Gateway) GetRecentAnchor(ctx context.Context) (solana.Blockhash, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeInduced(ctx, MethodGetRecentAnchor); err != nil {
		return solana.Blockhash{}, err
	}
	return g.blockhash, nil
}

// GetFeeForMessage implements network.Gateway.GetFeeForMessage
func (g *Gateway) GetFeeForMessage(ctx context.Context, message solana.Message) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeInduced(ctx, MethodGetFeeForMessage); err != nil {
		return 0, err
	}

	if _, ok := g.recent[message.RecentBlockhash]; !ok {
		return 0, errors.Wrap(network.ErrStaleAnchor, message.RecentBlockhash.String())
	}
	return g.fee(message), nil
}

func (g *Gateway) fee(message solana.Message) uint64 {
	return uint64(message.Header.NumSignatures) * g.feePerSignature
}

// SubmitAndConfirm implements network.Gateway.SubmitAndConfirm
func (g *Gateway) SubmitAndConfirm(ctx context.Context, txn *solana.Transaction) (solana.Signature, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var sig solana.Signature
	if err := ctx.Err(); err != nil {
		return sig, err
	}
	if err := txn.MarkSubmitted(); err != nil {
		return sig, err
	}
	sig = txn.Signatures[0]

	g.submissions = append(g.submissions, *txn)

	if err := g.takeInduced(ctx, MethodSubmitAndConfirm); err != nil {
		var txErr *solana.TransactionError
		if errors.As(err, &txErr) {
			txn.MarkRejected()
			return sig, network.MapTransactionError(txErr)
		}
		return sig, err
	}

	if txErr := g.execute(txn); txErr != nil {
		txn.MarkRejected()
		return sig, network.MapTransactionError(txErr)
	}

	g.slot++
	g.statuses[sig] = &solana.SignatureStatus{
		Slot:               g.slot,
		ConfirmationStatus: "finalized",
	}
	txn.MarkConfirmed()

	return sig, nil
}

// execute runs the transaction against a copy of the ledger and commits it if
// every instruction succeeds.
func (g *Gateway) execute(txn *solana.Transaction) *solana.TransactionError {
	m := txn.Message

	if err := txn.VerifySignatures(); err != nil {
		return solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	if _, ok := g.recent[m.RecentBlockhash]; !ok {
		return solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}
	if _, ok := g.statuses[txn.Signatures[0]]; ok {
		return solana.NewTransactionError(solana.TransactionErrorAlreadyProcessed)
	}

	ledger := make(map[string]*solana.AccountInfo, len(g.accounts))
	for k, v := range g.accounts {
		ledger[k] = v
	}

	payer := ledger[base58.Encode(m.Accounts[0])]
	fee := g.fee(m)
	if payer == nil {
		return solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	}
	if payer.Lamports < fee {
		return solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}
	g.mutable(ledger, m.Accounts[0]).Lamports -= fee

	for i, compiled := range m.Instructions {
		program := m.Accounts[compiled.ProgramIndex]

		var err error
		switch {
		case bytes.Equal(program, system.ProgramKey):
			err = g.executeSystem(ledger, m, i)
		case bytes.Equal(program, g.program.ID):
			err = g.executePrereq(ledger, m, i)
		case bytes.Equal(program, memo.ProgramKey):
			if _, decodeErr := memo.DecompileMemo(m, i); decodeErr != nil {
				err = errors.New(string(solana.InstructionErrorInvalidInstructionData))
			}
		case bytes.Equal(program, computebudget.ProgramKey):
			if !validComputeBudget(compiled.Data) {
				err = errors.New(string(solana.InstructionErrorInvalidInstructionData))
			}
		default:
			err = errors.New(string(solana.InstructionErrorIncorrectProgramID))
		}

		if err != nil {
			return solana.NewInstructionTransactionError(i, err)
		}
	}

	g.accounts = ledger
	return nil
}

func validComputeBudget(data []byte) bool {
	if _, err := computebudget.ParseSetComputeUnitPriceIxnData(data); err == nil {
		return true
	}
	_, err := computebudget.ParseSetComputeUnitLimitIxnData(data)
	return err == nil
}

func (g *Gateway) executeSystem(ledger map[string]*solana.AccountInfo, m solana.Message, index int) error {
	transfer, err := system.DecompileTransfer(m, index)
	if err != nil {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}
	if !isSigner(m, transfer.From) {
		return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
	}

	from := ledger[base58.Encode(transfer.From)]
	if from == nil || from.Lamports < transfer.Lamports {
		return systemResultWithNegativeLamports
	}

	g.mutable(ledger, transfer.From).Lamports -= transfer.Lamports
	g.mutable(ledger, transfer.To).Lamports += transfer.Lamports
	return nil
}

func (g *Gateway) executePrereq(ledger map[string]*solana.AccountInfo, m solana.Message, index int) error {
	if complete, err := g.program.DecompileCompleteInstruction(m, index); err == nil {
		return g.complete(ledger, m, complete.Accounts.Signer, complete.Accounts.Prereq, complete.Args.Github)
	}
	if update, err := g.program.DecompileUpdateInstruction(m, index); err == nil {
		return g.update(ledger, m, update.Accounts.Signer, update.Accounts.Prereq, update.Args.Github)
	}

	return anchorInstructionFallbackNotFound
}

func (g *Gateway) complete(ledger map[string]*solana.AccountInfo, m solana.Message, signer, address ed25519.PublicKey, github []byte) error {
	if !isSigner(m, signer) {
		return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
	}

	expected, _, err := g.program.GetPrereqAddress(signer)
	if err != nil || !bytes.Equal(expected, address) {
		return anchorConstraintSeeds
	}
	if existing := ledger[base58.Encode(address)]; existing != nil && len(existing.Data) > 0 {
		return systemAccountAlreadyInUse
	}

	state := &prereq.PrereqAccount{Github: github, Key: signer}
	data := state.Marshal()
	rent := uint64(accountOverhead+len(data)) * rentPerByte

	payer := ledger[base58.Encode(signer)]
	if payer == nil || payer.Lamports < rent {
		return systemResultWithNegativeLamports
	}
	g.mutable(ledger, signer).Lamports -= rent

	ledger[base58.Encode(address)] = &solana.AccountInfo{
		Data:     data,
		Owner:    g.program.ID,
		Lamports: rent,
	}
	return nil
}

func (g *Gateway) update(ledger map[string]*solana.AccountInfo, m solana.Message, signer, address ed25519.PublicKey, github []byte) error {
	if !isSigner(m, signer) {
		return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
	}

	expected, _, err := g.program.GetPrereqAddress(signer)
	if err != nil || !bytes.Equal(expected, address) {
		return anchorConstraintSeeds
	}

	existing := ledger[base58.Encode(address)]
	if existing == nil {
		return anchorAccountNotInitialized
	}
	state, err := prereq.UnmarshalPrereqAccount(existing.Data)
	if err != nil {
		return anchorAccountNotInitialized
	}
	if !bytes.Equal(state.Key, signer) {
		return anchorConstraintHasOne
	}

	state.Github = github
	g.mutable(ledger, address).Data = state.Marshal()
	return nil
}

// GetSignatureStatus implements network.Gateway.GetSignatureStatus
func (g *Gateway) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*solana.SignatureStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeInduced(ctx, MethodGetSignatureStatus); err != nil {
		return nil, err
	}

	status, ok := g.statuses[sig]
	if !ok {
		return nil, nil
	}
	cloned := *status
	return &cloned, nil
}

// GetAccount implements network.Gateway.GetAccount
func (g *Gateway) GetAccount(ctx context.Context, account ed25519.PublicKey) (*solana.AccountInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeInduced(ctx, MethodGetAccount); err != nil {
		return nil, err
	}

	info, ok := g.accounts[base58.Encode(account)]
	if !ok {
		return nil, errors.Wrapf(network.ErrAccountNotFound, "account %s", base58.Encode(account))
	}
	return cloneAccount(info), nil
}

// GetBalance implements network.Gateway.GetBalance
func (g *Gateway) GetBalance(ctx context.Context, account ed25519.PublicKey) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeInduced(ctx, MethodGetBalance); err != nil {
		return 0, err
	}

	info, ok := g.accounts[base58.Encode(account)]
	if !ok {
		return 0, nil
	}
	return info.Lamports, nil
}

// RequestAirdrop implements network.Gateway.RequestAirdrop
func (g *Gateway) RequestAirdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64) (solana.Signature, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var sig solana.Signature
	if err := g.takeInduced(ctx, MethodRequestAirdrop); err != nil {
		return sig, err
	}

	_, _ = rand.Read(sig[:])
	g.accountOrNew(g.accounts, account).Lamports += lamports

	g.slot++
	g.statuses[sig] = &solana.SignatureStatus{
		Slot:               g.slot,
		ConfirmationStatus: "finalized",
	}
	return sig, nil
}

// mutable returns a copy of the account that is owned by ledger, creating a
// system account if it doesn't exist.
func (g *Gateway) mutable(ledger map[string]*solana.AccountInfo, account ed25519.PublicKey) *solana.AccountInfo {
	key := base58.Encode(account)
	if existing, ok := ledger[key]; ok {
		cloned := cloneAccount(existing)
		ledger[key] = cloned
		return cloned
	}
	return g.accountOrNew(ledger, account)
}

func (g *Gateway) accountOrNew(ledger map[string]*solana.AccountInfo, account ed25519.PublicKey) *solana.AccountInfo {
	key := base58.Encode(account)
	info, ok := ledger[key]
	if !ok {
		info = &solana.AccountInfo{Owner: system.ProgramKey}
		ledger[key] = info
	}
	return info
}

func cloneAccount(info *solana.AccountInfo) *solana.AccountInfo {
	cloned := *info
	cloned.Data = append([]byte(nil), info.Data...)
	cloned.Owner = append(ed25519.PublicKey(nil), info.Owner...)
	return &cloned
}

func isSigner(m solana.Message, account ed25519.PublicKey) bool {
	for _, signer := range m.Signers() {
		if bytes.Equal(signer, account) {
			return true
		}
	}
	return false
}
