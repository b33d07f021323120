package network

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/turbin3/prereq-client/pkg/metrics"
	"github.com/turbin3/prereq-client/pkg/solana"
)

const (
	rpcGatewayMetricsName = "network.rpc_gateway"

	confirmationLatencyMetricName = "network.confirmation_latency"
	confirmationPollsMetricName   = "network.confirmation_polls"
)

type options struct {
	commitment     solana.Commitment
	skipPreflight  bool
	callTimeout    time.Duration
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

var defaultOptions = options{
	commitment:     solana.CommitmentConfirmed,
	callTimeout:    30 * time.Second,
	confirmTimeout: 90 * time.Second,
	pollInterval:   2 * time.Second,
}

// Option configures an RPC backed Gateway.
type Option func(*options)

// WithCommitment sets the commitment used for reads and the level a
// submission must reach to be confirmed.
func WithCommitment(commitment solana.Commitment) Option {
	return func(o *options) {
		o.commitment = commitment
	}
}

func WithSkipPreflight(skip bool) Option {
	return func(o *options) {
		o.skipPreflight = skip
	}
}

// WithCallTimeout bounds every individual RPC call.
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.callTimeout = timeout
	}
}

// WithConfirmTimeout bounds the wait for a submission to be confirmed.
func WithConfirmTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.confirmTimeout = timeout
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(o *options) {
		o.pollInterval = interval
	}
}

type rpcGateway struct {
	log  *logrus.Entry
	sc   solana.Client
	opts options
}

// NewRPCGateway returns a Gateway backed by a Solana JSON-RPC client.
func NewRPCGateway(sc solana.Client, opts ...Option) Gateway {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}

	return &rpcGateway{
		log:  logrus.StandardLogger().WithField("type", "network/rpc_gateway"),
		sc:   sc,
		opts: o,
	}
}

func (g *rpcGateway) GetRecentAnchor(ctx context.Context) (solana.Blockhash, error) {
	tracer := metrics.TraceMethodCall(ctx, rpcGatewayMetricsName, "GetRecentAnchor")
	defer tracer.End()

	ctx, cancel := context.WithTimeout(ctx, g.opts.callTimeout)
	defer cancel()

	hash, err := g.sc.GetLatestBlockhash(ctx, g.opts.commitment)
	if err != nil {
		tracer.OnError(err)
		return hash, errors.Wrap(err, "failed to get recent blockhash")
	}

	tracer.AddAttribute("blockhash", hash.String())
	return hash, nil
}

func (g *rpcGateway) GetFeeForMessage(ctx context.Context, message solana.Message) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, rpcGatewayMetricsName, "GetFeeForMessage")
	defer tracer.End()

	ctx, cancel := context.WithTimeout(ctx, g.opts.callTimeout)
	defer cancel()

	fee, err := g.sc.GetFeeForMessage(ctx, message, g.opts.commitment)
	if err != nil {
		tracer.OnError(err)
		return 0, mapReadError(err)
	}

	return fee, nil
}

func (g *rpcGateway) SubmitAndConfirm(ctx context.Context, txn *solana.Transaction) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, rpcGatewayMetricsName, "SubmitAndConfirm")
	defer tracer.End()

	sig, err := g.submitAndConfirm(ctx, txn)
	if err != nil {
		tracer.OnError(err)
	}
	tracer.AddAttribute("state", txn.State().String())

	return sig, err
}

func (g *rpcGateway) submitAndConfirm(ctx context.Context, txn *solana.Transaction) (solana.Signature, error) {
	var sig solana.Signature
	if err := txn.MarkSubmitted(); err != nil {
		return sig, err
	}
	sig = txn.Signatures[0]

	log := g.log.WithFields(logrus.Fields{
		"method":    "SubmitAndConfirm",
		"signature": sig.String(),
		"blockhash": txn.Message.RecentBlockhash.String(),
	})

	start := time.Now()

	submitCtx, cancel := context.WithTimeout(ctx, g.opts.callTimeout)
	_, err := g.sc.SubmitTransaction(submitCtx, *txn, solana.SubmitOptions{
		SkipPreflight:       g.opts.skipPreflight,
		PreflightCommitment: g.opts.commitment,
	})
	cancel()
	if err != nil {
		mapped, rejected := mapSubmitError(err)
		if rejected {
			txn.MarkRejected()
			log.WithError(err).Info("transaction rejected during preflight")
		} else {
			log.WithError(err).Warn("transaction submission outcome unknown")
		}
		return sig, mapped
	}

	log.Debug("transaction submitted")

	blockhash := txn.Message.RecentBlockhash
	status, err := g.waitForConfirmation(ctx, sig, &blockhash)
	if err != nil {
		if errors.Is(err, ErrStaleAnchor) {
			txn.MarkRejected()
		}
		log.WithError(err).Info("transaction not confirmed")
		return sig, err
	}

	if status.ErrorResult != nil {
		txn.MarkRejected()
		log.WithError(status.ErrorResult).Info("transaction failed")
		return sig, MapTransactionError(status.ErrorResult)
	}

	txn.MarkConfirmed()
	metrics.RecordDuration(ctx, confirmationLatencyMetricName, time.Since(start))
	log.WithField("slot", status.Slot).Debug("transaction confirmed")

	return sig, nil
}

// waitForConfirmation polls until the signature reaches the commitment level
// or fails. If blockhash is set, ErrStaleAnchor is returned once it expires
// without the signature being seen.
func (g *rpcGateway) waitForConfirmation(ctx context.Context, sig solana.Signature, blockhash *solana.Blockhash) (*solana.SignatureStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(g.opts.pollInterval)
	defer ticker.Stop()

	var polls uint64
	defer func() {
		metrics.RecordCount(ctx, confirmationPollsMetricName, polls)
	}()

	var lastErr error
	for {
		polls++

		status, err := g.getSignatureStatus(ctx, sig)
		switch {
		case err != nil:
			lastErr = err
			g.log.WithError(err).WithField("signature", sig.String()).Debug("failed to poll signature status")
		case status != nil && (status.ErrorResult != nil || status.Reached(g.opts.commitment)):
			return status, nil
		case status == nil && blockhash != nil:
			expired, err := g.isExpired(ctx, sig, *blockhash)
			if err != nil {
				lastErr = err
				break
			}
			if expired {
				return nil, errors.Wrapf(ErrStaleAnchor, "transaction %s never landed", sig)
			}
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return nil, errors.Wrapf(ctx.Err(), "transaction %s not confirmed (last error: %v)", sig, lastErr)
			}
			return nil, errors.Wrapf(ctx.Err(), "transaction %s not confirmed", sig)
		case <-ticker.C:
		}
	}
}

// isExpired reports whether the blockhash is no longer valid and the
// signature still hasn't been seen. The status is checked again after the
// blockhash, since the transaction may land just before expiry.
func (g *rpcGateway) isExpired(ctx context.Context, sig solana.Signature, blockhash solana.Blockhash) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.callTimeout)
	defer cancel()

	valid, err := g.sc.IsBlockhashValid(callCtx, blockhash, g.opts.commitment)
	if err != nil || valid {
		return false, err
	}

	status, err := g.getSignatureStatus(ctx, sig)
	if err != nil {
		return false, err
	}
	return status == nil, nil
}

func (g *rpcGateway) getSignatureStatus(ctx context.Context, sig solana.Signature) (*solana.SignatureStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.callTimeout)
	defer cancel()

	statuses, err := g.sc.GetSignatureStatuses(ctx, []solana.Signature{sig})
	if err != nil {
		return nil, err
	}
	if len(statuses) != 1 {
		return nil, errors.Errorf("expected 1 signature status, got %d", len(statuses))
	}

	return statuses[0], nil
}

func (g *rpcGateway) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*solana.SignatureStatus, error) {
	tracer := metrics.TraceMethodCall(ctx, rpcGatewayMetricsName, "GetSignatureStatus")
	defer tracer.End()

	status, err := g.getSignatureStatus(ctx, sig)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrapf(err, "failed to get status of %s", sig)
	}

	return status, nil
}

func (g *rpcGateway) GetAccount(ctx context.Context, account ed25519.PublicKey) (*solana.AccountInfo, error) {
	tracer := metrics.TraceMethodCall(ctx, rpcGatewayMetricsName, "GetAccount")
	defer tracer.End()

	ctx, cancel := context.WithTimeout(ctx, g.opts.callTimeout)
	defer cancel()

	info, err := g.sc.GetAccountInfo(ctx, account, g.opts.commitment)
	if err != nil {
		tracer.OnError(err)
		return nil, errors.Wrapf(mapReadError(err), "account %s", base58.Encode(account))
	}

	return &info, nil
}

func (g *rpcGateway) GetBalance(ctx context.Context, account ed25519.PublicKey) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, rpcGatewayMetricsName, "GetBalance")
	defer tracer.End()

	ctx, cancel := context.WithTimeout(ctx, g.opts.callTimeout)
	defer cancel()

	balance, err := g.sc.GetBalance(ctx, account, g.opts.commitment)
	if err != nil {
		tracer.OnError(err)
		return 0, errors.Wrapf(err, "failed to get balance of %s", base58.Encode(account))
	}

	return balance, nil
}

func (g *rpcGateway) RequestAirdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, rpcGatewayMetricsName, "RequestAirdrop")
	defer tracer.End()

	callCtx, cancel := context.WithTimeout(ctx, g.opts.callTimeout)
	sig, err := g.sc.RequestAirdrop(callCtx, account, lamports, g.opts.commitment)
	cancel()
	if err != nil {
		tracer.OnError(err)
		return sig, errors.Wrapf(err, "failed to request airdrop to %s", base58.Encode(account))
	}

	// The faucet builds its own transaction, so there's no blockhash to watch.
	status, err := g.waitForConfirmation(ctx, sig, nil)
	if err != nil {
		tracer.OnError(err)
		return sig, err
	}
	if status.ErrorResult != nil {
		err = MapTransactionError(status.ErrorResult)
		tracer.OnError(err)
		return sig, err
	}

	g.log.WithFields(logrus.Fields{
		"method":    "RequestAirdrop",
		"signature": sig.String(),
		"lamports":  lamports,
	}).Debug("airdrop confirmed")

	return sig, nil
}
