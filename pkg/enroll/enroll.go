// Package enroll implements the enrollment flows run against the prereq
// program: funding a wallet, moving lamports, and recording a completion.
package enroll

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/turbin3/prereq-client/pkg/metrics"
	"github.com/turbin3/prereq-client/pkg/network"
	"github.com/turbin3/prereq-client/pkg/retry"
	"github.com/turbin3/prereq-client/pkg/solana"
	"github.com/turbin3/prereq-client/pkg/solana/computebudget"
	"github.com/turbin3/prereq-client/pkg/solana/memo"
	"github.com/turbin3/prereq-client/pkg/solana/prereq"
	"github.com/turbin3/prereq-client/pkg/solana/system"
)

const (
	// DefaultAirdropLamports is the amount requested from the devnet faucet.
	DefaultAirdropLamports = 2_000_000_000

	metricsStructName = "enroll.service"

	completionEventName = "PrereqCompletionSubmitted"
)

// Result describes a confirmed transaction.
type Result struct {
	Signature solana.Signature

	// Lamports moved by a transfer or requested by an airdrop.
	Lamports uint64

	// Fee is only known for flows that query it.
	Fee uint64

	// Address is the prereq account of a completion.
	Address ed25519.PublicKey
}

type options struct {
	checkSignerExists  bool
	computeUnitPrice   uint64
	staleAnchorRetries uint
}

// Option configures a Service.
type Option func(*options)

// WithSignerCheck looks up the signer account before submitting a completion.
func WithSignerCheck(check bool) Option {
	return func(o *options) {
		o.checkSignerExists = check
	}
}

// WithComputeUnitPrice prepends a priority fee instruction, in micro-lamports
// per compute unit, to every transaction.
func WithComputeUnitPrice(price uint64) Option {
	return func(o *options) {
		o.computeUnitPrice = price
	}
}

// WithStaleAnchorRetries rebuilds and resubmits a transaction with a fresh
// blockhash up to n times when its blockhash expired before it landed. Such a
// transaction can never land, so rebuilding cannot duplicate its effect.
func WithStaleAnchorRetries(n uint) Option {
	return func(o *options) {
		o.staleAnchorRetries = n
	}
}

// CallOption configures a single flow.
type CallOption func(*callOptions)

type callOptions struct {
	memo string
}

// WithMemo attaches a memo signed by the fee payer.
func WithMemo(text string) CallOption {
	return func(o *callOptions) {
		o.memo = text
	}
}

type Service struct {
	log     *logrus.Entry
	gateway network.Gateway
	program *prereq.Program
	opts    options
}

func NewService(gateway network.Gateway, program *prereq.Program, opts ...Option) *Service {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return &Service{
		log:     logrus.StandardLogger().WithField("type", "enroll/service"),
		gateway: gateway,
		program: program,
		opts:    o,
	}
}

// SubmitCompletion records github as the signer's completed prerequisite.
func (s *Service) SubmitCompletion(ctx context.Context, signer ed25519.PrivateKey, github string, opts ...CallOption) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SubmitCompletion")
	defer tracer.End()

	result, err := s.submitCompletion(ctx, signer, github, opts...)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	metrics.RecordEvent(ctx, completionEventName, map[string]interface{}{
		"signer":    base58.Encode(publicKey(signer)),
		"address":   base58.Encode(result.Address),
		"signature": result.Signature.String(),
	})
	return result, nil
}

func (s *Service) submitCompletion(ctx context.Context, signer ed25519.PrivateKey, github string, opts ...CallOption) (*Result, error) {
	signerPub := publicKey(signer)
	log := s.log.WithFields(logrus.Fields{
		"method": "SubmitCompletion",
		"signer": base58.Encode(signerPub),
		"github": github,
	})

	if s.opts.checkSignerExists {
		if _, err := s.gateway.GetAccount(ctx, signerPub); err != nil {
			return nil, errors.Wrap(err, "signer account must exist before enrolling")
		}
	}

	address, bump, err := s.program.GetPrereqAddress(signerPub)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive prereq address")
	}
	log = log.WithField("prereq", base58.Encode(address)).WithField("bump", bump)

	instruction, err := s.program.NewCompleteInstruction(
		&prereq.CompleteInstructionAccounts{
			Signer: signerPub,
			Prereq: address,
		},
		&prereq.CompleteInstructionArgs{
			Github: []byte(github),
		},
	)
	if err != nil {
		return nil, err
	}

	sig, err := s.submit(ctx, signer, []solana.Instruction{instruction}, opts...)
	if err != nil {
		log.WithError(err).Info("completion not confirmed")
		return nil, err
	}

	log.WithField("signature", sig.String()).Info("completion confirmed")
	return &Result{
		Signature: sig,
		Address:   address,
	}, nil
}

// UpdateGithub replaces the github handle of an existing enrollment.
func (s *Service) UpdateGithub(ctx context.Context, signer ed25519.PrivateKey, github string, opts ...CallOption) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "UpdateGithub")
	defer tracer.End()

	signerPub := publicKey(signer)
	address, _, err := s.program.GetPrereqAddress(signerPub)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrap(err, "failed to derive prereq address")
	}

	instruction, err := s.program.NewUpdateInstruction(
		&prereq.UpdateInstructionAccounts{
			Signer: signerPub,
			Prereq: address,
		},
		&prereq.UpdateInstructionArgs{
			Github: []byte(github),
		},
	)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	sig, err := s.submit(ctx, signer, []solana.Instruction{instruction}, opts...)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	return &Result{
		Signature: sig,
		Address:   address,
	}, nil
}

// GetEnrollment returns the prereq account of signer and its address.
// network.ErrAccountNotFound is returned if signer never enrolled.
func (s *Service) GetEnrollment(ctx context.Context, signer ed25519.PublicKey) (*prereq.PrereqAccount, ed25519.PublicKey, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetEnrollment")
	defer tracer.End()

	address, _, err := s.program.GetPrereqAddress(signer)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive prereq address")
	}

	info, err := s.gateway.GetAccount(ctx, address)
	if err != nil {
		tracer.OnError(err)
		return nil, address, err
	}
	if len(info.Owner) > 0 && !info.Owner.Equal(s.program.ID) {
		return nil, address, errors.Wrapf(prereq.ErrInvalidAccountData, "account is owned by %s", base58.Encode(info.Owner))
	}

	account, err := prereq.UnmarshalPrereqAccount(info.Data)
	if err != nil {
		return nil, address, err
	}
	return account, address, nil
}

// Transfer moves lamports from the signer to another account.
func (s *Service) Transfer(ctx context.Context, from ed25519.PrivateKey, to ed25519.PublicKey, lamports uint64, opts ...CallOption) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Transfer")
	defer tracer.End()

	sig, err := s.submit(ctx, from, []solana.Instruction{system.Transfer(publicKey(from), to, lamports)}, opts...)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	return &Result{
		Signature: sig,
		Lamports:  lamports,
	}, nil
}

// TransferAll empties the signer account into another account. The fee is
// computed for the exact message being sent, so the signer ends with zero
// lamports.
func (s *Service) TransferAll(ctx context.Context, from ed25519.PrivateKey, to ed25519.PublicKey, opts ...CallOption) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "TransferAll")
	defer tracer.End()

	result, err := s.transferAll(ctx, from, to, opts...)
	if err != nil {
		tracer.OnError(err)
	}
	return result, err
}

func (s *Service) transferAll(ctx context.Context, from ed25519.PrivateKey, to ed25519.PublicKey, opts ...CallOption) (*Result, error) {
	fromPub := publicKey(from)

	var result *Result
	attempt := func() error {
		balance, err := s.gateway.GetBalance(ctx, fromPub)
		if err != nil {
			return err
		}

		blockhash, err := s.gateway.GetRecentAnchor(ctx)
		if err != nil {
			return err
		}

		// The fee depends on the message, not the amount, so it is computed
		// for a draft moving the whole balance.
		draft, err := s.sign(from, blockhash, []solana.Instruction{system.Transfer(fromPub, to, balance)}, opts...)
		if err != nil {
			return err
		}
		fee, err := s.gateway.GetFeeForMessage(ctx, draft.Message)
		if err != nil {
			return err
		}
		if fee >= balance {
			return errors.Wrapf(network.ErrInsufficientFunds, "balance %d does not cover fee %d", balance, fee)
		}

		txn, err := s.sign(from, blockhash, []solana.Instruction{system.Transfer(fromPub, to, balance-fee)}, opts...)
		if err != nil {
			return err
		}

		sig, err := s.gateway.SubmitAndConfirm(ctx, &txn)
		if err != nil {
			return err
		}

		result = &Result{
			Signature: sig,
			Lamports:  balance - fee,
			Fee:       fee,
		}
		return nil
	}

	if err := s.retryStaleAnchor(ctx, attempt); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"method":    "TransferAll",
		"from":      base58.Encode(fromPub),
		"to":        base58.Encode(to),
		"lamports":  result.Lamports,
		"fee":       result.Fee,
		"signature": result.Signature.String(),
	}).Info("balance transferred")
	return result, nil
}

// Airdrop requests lamports from the cluster faucet. Zero requests
// DefaultAirdropLamports.
func (s *Service) Airdrop(ctx context.Context, to ed25519.PublicKey, lamports uint64) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Airdrop")
	defer tracer.End()

	if lamports == 0 {
		lamports = DefaultAirdropLamports
	}

	sig, err := s.gateway.RequestAirdrop(ctx, to, lamports)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return &Result{Signature: sig, Lamports: lamports}, nil
}

// submit signs the instructions with a fresh blockhash and submits them,
// rebuilding on an expired blockhash if configured.
func (s *Service) submit(ctx context.Context, signer ed25519.PrivateKey, instructions []solana.Instruction, opts ...CallOption) (solana.Signature, error) {
	var sig solana.Signature
	err := s.retryStaleAnchor(ctx, func() error {
		blockhash, err := s.gateway.GetRecentAnchor(ctx)
		if err != nil {
			return err
		}

		txn, err := s.sign(signer, blockhash, instructions, opts...)
		if err != nil {
			return err
		}

		sig, err = s.gateway.SubmitAndConfirm(ctx, &txn)
		return err
	})
	return sig, err
}

func (s *Service) retryStaleAnchor(ctx context.Context, action retry.Action) error {
	attempts, err := retry.Retry(
		ctx,
		action,
		retry.RetriableErrors(network.ErrStaleAnchor),
		retry.Limit(s.opts.staleAnchorRetries+1),
	)
	if attempts > 1 {
		s.log.WithField("attempts", attempts).Debug("rebuilt transaction after blockhash expired")
	}
	return err
}

func (s *Service) sign(signer ed25519.PrivateKey, blockhash solana.Blockhash, instructions []solana.Instruction, opts ...CallOption) (solana.Transaction, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	payer := publicKey(signer)

	var all []solana.Instruction
	if s.opts.computeUnitPrice > 0 {
		all = append(all, computebudget.SetComputeUnitPrice(s.opts.computeUnitPrice))
	}
	if o.memo != "" {
		memoInstruction, err := memo.Instruction(o.memo, payer)
		if err != nil {
			return solana.Transaction{}, err
		}
		all = append(all, memoInstruction)
	}
	all = append(all, instructions...)

	txn, err := solana.NewSignedTransaction(payer, blockhash, []ed25519.PrivateKey{signer}, all...)
	if err != nil {
		return txn, errors.Wrap(err, "failed to sign transaction")
	}
	if size := len(txn.Marshal()); size > solana.MaxTransactionSize {
		return txn, errors.Errorf("transaction is %d bytes, max is %d", size, solana.MaxTransactionSize)
	}

	return txn, nil
}

func publicKey(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}
