package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/turbin3/prereq-client/pkg/rate"
	"github.com/turbin3/prereq-client/pkg/retry"
	"github.com/turbin3/prereq-client/pkg/retry/backoff"
)

const (
	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	invalidParamCode = -32602
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// ParseCommitment returns the commitment level with the provided name.
func ParseCommitment(name string) (Commitment, error) {
	switch name {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed, "":
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	default:
		return Commitment{}, errors.Errorf("unknown commitment level: %s", name)
	}
}

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrNoBalance         = errors.New("no balance")
	ErrBlockhashNotFound = errors.New("blockhash not found")
)

// AccountInfo contains the Solana account information.
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() {
		return true
	}

	if s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}

	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Reached reports whether the status satisfies the commitment level.
func (s SignatureStatus) Reached(commitment Commitment) bool {
	switch commitment {
	case CommitmentProcessed:
		return true
	case CommitmentFinalized:
		return s.Finalized()
	default:
		return s.Confirmed()
	}
}

// SubmitOptions controls how a transaction is handed to the RPC node.
type SubmitOptions struct {
	SkipPreflight       bool
	PreflightCommitment Commitment
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(context.Context, ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetBalance(context.Context, ed25519.PublicKey, Commitment) (uint64, error)
	GetFeeForMessage(context.Context, Message, Commitment) (uint64, error)
	GetLatestBlockhash(context.Context, Commitment) (Blockhash, error)
	GetSignatureStatuses(context.Context, []Signature) ([]*SignatureStatus, error)
	IsBlockhashValid(context.Context, Blockhash, Commitment) (bool, error)
	RequestAirdrop(context.Context, ed25519.PublicKey, uint64, Commitment) (Signature, error)
	SubmitTransaction(context.Context, Transaction, SubmitOptions) (Signature, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type rpcResponse struct {
	Context struct {
		Slot int64 `json:"slot"`
	} `json:"context"`
	Value interface{} `json:"value"`
}

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier
	limiter rate.Limiter

	blockMu   sync.RWMutex
	blockhash Blockhash
	lastWrite time.Time
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

// NewWithTimeout returns a client whose HTTP requests are bounded by timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) Client {
	return NewWithRPCOptions(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: timeout},
	})
}

// NewWithLimiter returns a client whose HTTP requests are bounded by timeout
// and paced per RPC method by limiter.
func NewWithLimiter(endpoint string, timeout time.Duration, limiter rate.Limiter) Client {
	c := NewWithTimeout(endpoint, timeout).(*client)
	c.limiter = limiter
	return c
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return &client{
		log:     logrus.StandardLogger().WithField("type", "solana/client"),
		client:  jsonrpc.NewClientWithOpts(endpoint, opts),
		limiter: &rate.NoLimiter{},
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
	}
}

// call is used by every read-only method. Rate limiting and node failures are
// retried.
func (c *client) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(ctx, func() error {
		err := c.callOnce(ctx, out, method, params...)
		if err == nil {
			return nil
		}

		return c.handleRpcError(method, err)
	})

	return err
}

// callOnce performs a single request. The underlying transport has no notion of
// a context, so the request is abandoned rather than cancelled when ctx ends.
func (c *client) callOnce(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	if err := c.limiter.Wait(ctx, method); err != nil {
		return err
	}

	result := make(chan error, 1)
	go func() {
		result <- c.client.CallFor(out, method, params...)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *client) handleRpcError(method string, err error) error {
	switch typed := err.(type) {
	case *jsonrpc.RPCError:
		if typed.Code == http.StatusTooManyRequests {
			c.log.WithField("method", method).Warn("rate limited")
			return errRateLimited
		}
		if typed.Code >= http.StatusInternalServerError || typed.Code == rpcNodeUnhealthyCode {
			return errServiceError
		}
	case *jsonrpc.HTTPError:
		if typed.Code == http.StatusTooManyRequests {
			c.log.WithField("method", method).Warn("rate limited")
			return errRateLimited
		}
		if typed.Code >= http.StatusInternalServerError {
			return errServiceError
		}
	}

	return err
}

func (c *client) GetLatestBlockhash(ctx context.Context, commitment Commitment) (hash Blockhash, err error) {
	// To avoid having thrashing around a similar periodic interval, we
	// randomize when we refresh our block hash.
	window := time.Duration(float64(2*time.Second) * (0.8 + rand.Float64()))

	c.blockMu.RLock()
	if time.Since(c.lastWrite) < window {
		hash = c.blockhash
	}
	c.blockMu.RUnlock()

	if hash != (Blockhash{}) {
		return hash, nil
	}

	type response struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	// note: we have to wrap the commitment in an []interface{} otherwise the
	//       client sends the object itself as the params, which the node rejects.
	var resp response
	if err := c.call(ctx, &resp, "getLatestBlockhash", []interface{}{commitment}); err != nil {
		return hash, errors.Wrapf(err, "getLatestBlockhash() failed to send request")
	}

	hashBytes, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return hash, errors.Wrap(err, "invalid base58 encoded hash in response")
	}
	if len(hashBytes) != len(hash) {
		return hash, errors.Errorf("invalid blockhash length: %d", len(hashBytes))
	}

	copy(hash[:], hashBytes)

	c.blockMu.Lock()
	c.blockhash = hash
	c.lastWrite = time.Now()
	c.blockMu.Unlock()

	return hash, nil
}

// forgetBlockhash drops the cached blockhash if it is hash, so the next
// GetLatestBlockhash fetches a fresh one.
func (c *client) forgetBlockhash(hash Blockhash) {
	c.blockMu.Lock()
	if c.blockhash == hash {
		c.blockhash = Blockhash{}
		c.lastWrite = time.Time{}
	}
	c.blockMu.Unlock()
}

func (c *client) IsBlockhashValid(ctx context.Context, hash Blockhash, commitment Commitment) (bool, error) {
	type response struct {
		Value bool `json:"value"`
	}

	var resp response
	if err := c.call(ctx, &resp, "isBlockhashValid", hash.String(), commitment); err != nil {
		return false, errors.Wrapf(err, "isBlockhashValid() failed to send request")
	}

	if !resp.Value {
		c.forgetBlockhash(hash)
	}
	return resp.Value, nil
}

// GetFeeForMessage returns the fee, in lamports, the network will charge for
// the message. ErrBlockhashNotFound is returned if the message's blockhash is
// unknown to the node.
func (c *client) GetFeeForMessage(ctx context.Context, message Message, commitment Commitment) (uint64, error) {
	type response struct {
		Value *uint64 `json:"value"`
	}

	encoded := base64.StdEncoding.EncodeToString(message.Marshal())

	var resp response
	if err := c.call(ctx, &resp, "getFeeForMessage", encoded, commitment); err != nil {
		return 0, errors.Wrapf(err, "getFeeForMessage() failed to send request")
	}

	if resp.Value == nil {
		c.forgetBlockhash(message.RecentBlockhash)
		return 0, ErrBlockhashNotFound
	}

	return *resp.Value, nil
}

func (c *client) GetBalance(ctx context.Context, account ed25519.PublicKey, commitment Commitment) (uint64, error) {
	var resp rpcResponse
	if err := c.call(ctx, &resp, "getBalance", base58.Encode(account[:]), commitment); err != nil {
		jsonRPCErr, ok := err.(*jsonrpc.RPCError)
		if ok && jsonRPCErr.Code == invalidParamCode {
			return 0, ErrNoBalance
		}

		return 0, errors.Wrapf(err, "getBalance() failed to send request")
	}

	if balance, ok := resp.Value.(float64); ok {
		return uint64(balance), nil
	}

	return 0, errors.Errorf("invalid value in response")
}

// SubmitTransaction sends the transaction to the node. It is never retried:
// a resend with the same blockhash is the caller's decision.
//
// If the node rejects the transaction during preflight, the returned error
// wraps a *TransactionError.
func (c *client) SubmitTransaction(ctx context.Context, txn Transaction, opts SubmitOptions) (Signature, error) {
	var sig Signature
	if len(txn.Signatures) == 0 {
		return sig, errors.Wrap(ErrMissingRequiredSignature, "transaction has no signatures")
	}
	sig = txn.Signatures[0]

	preflight := opts.PreflightCommitment
	if preflight == (Commitment{}) {
		preflight = CommitmentConfirmed
	}

	config := struct {
		Encoding            string `json:"encoding"`
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		Encoding:            "base64",
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: preflight.Commitment,
	}

	var sigStr string
	err := c.callOnce(ctx, &sigStr, "sendTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), config)
	if err != nil {
		jsonRPCErr, ok := err.(*jsonrpc.RPCError)
		if !ok {
			return sig, errors.Wrapf(err, "sendTransaction() failed to send request")
		}

		txResult, parseErr := ParseRPCError(jsonRPCErr)
		if parseErr != nil {
			c.log.WithError(parseErr).Warn("failed to parse transaction error")
		}
		if txResult != nil {
			if txResult.ErrorKey() == TransactionErrorBlockhashNotFound {
				c.forgetBlockhash(txn.Message.RecentBlockhash)
			}
			return sig, errors.Wrap(txResult, "sendTransaction() rejected")
		}

		return sig, errors.Wrapf(err, "sendTransaction() failed")
	}

	returned, err := base58.Decode(sigStr)
	if err != nil || !bytes.Equal(returned, sig[:]) {
		c.log.WithField("expected", sig.String()).WithField("actual", sigStr).Warn("unexpected signature returned from node")
	}

	return sig, nil
}

func (c *client) GetAccountInfo(ctx context.Context, account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(ctx, &resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(resp.Value.Data) == 0 {
		return accountInfo, errors.New("missing account data in response")
	}
	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) RequestAirdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	var sigStr string
	if err := c.call(ctx, &sigStr, "requestAirdrop", base58.Encode(account[:]), lamports, commitment); err != nil {
		return Signature{}, errors.Wrapf(err, "requestAirdrop() failed to send request")
	}

	sigBytes, err := base58.Decode(sigStr)
	if err != nil {
		return Signature{}, errors.Wrap(err, "invalid signature in response")
	}

	var sig Signature
	copy(sig[:], sigBytes)

	if sig == (Signature{}) {
		return Signature{}, errors.New("empty signature returned")
	}

	return sig, nil
}

// GetSignatureStatuses returns the status of each signature, in order. A nil
// entry means the node has no record of the signature.
func (c *client) GetSignatureStatuses(ctx context.Context, sigs []Signature) ([]*SignatureStatus, error) {
	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = base58.Encode(sigs[i][:])
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: false,
	}

	type signatureStatus struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	type rpcResp struct {
		Context struct {
			Slot int `json:"slot"`
		} `json:"context"`
		Value []*signatureStatus `json:"value"`
	}

	var resp rpcResp
	if err := c.call(ctx, &resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		return nil, errors.Wrap(err, "getSignatureStatuses() failed to send request")
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil || i >= len(statuses) {
			continue
		}

		statuses[i] = &SignatureStatus{}
		statuses[i].Confirmations = v.Confirmations
		statuses[i].ConfirmationStatus = v.ConfirmationStatus
		statuses[i].Slot = v.Slot

		if len(v.Err) > 0 {
			var txError interface{}
			d := json.NewDecoder(bytes.NewBuffer(v.Err))
			d.UseNumber()
			if err := d.Decode(&txError); err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}

			var err error
			statuses[i].ErrorResult, err = ParseTransactionError(txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}
		}
	}

	return statuses, nil
}
