package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/HSuiteNetwork/v1-dex-provider/metrics"
	"github.com/HSuiteNetwork/v1-dex-provider/registry"
)

// Operation names understood by the smart nodes. The wire events derive
// from these: requests go out as "<name>Request", responses come back on
// the bare name.
const (
	// OpSwapPool asks the node to assemble an unsigned swap transaction.
	OpSwapPool = "swapPool"

	// OpSwapExecute submits a signed swap transaction for execution.
	OpSwapExecute = "swapExecute"
)

// Options tunes a Client. Zero values pick the defaults.
type Options struct {
	// ConnectTimeout bounds the transport confirmation. Default 10s.
	ConnectTimeout time.Duration

	// AuthTimeout bounds the challenge-verdict exchange. Default
	// DefaultAuthTimeout.
	AuthTimeout time.Duration

	// RequestTimeout bounds each correlated operation. Default
	// DefaultRequestTimeout.
	RequestTimeout time.Duration

	// Metrics, when set, records connection, handshake and operation
	// outcomes.
	Metrics *metrics.ClientMetrics

	// Transport overrides the WebSocket transport; tests script sessions
	// through a MockTransport here.
	Transport Transport
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.AuthTimeout <= 0 {
		o.AuthTimeout = DefaultAuthTimeout
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	return o
}

// Client is one authenticated session against one smart node. It performs
// no retries and no endpoint failover; when the session dies the caller
// decides whether to dial again.
type Client struct {
	conn     *Connection
	signer   Signer
	endpoint registry.Endpoint
	opts     Options
}

// Dial opens a connection to the endpoint and runs the handshake. Any
// failure closes the connection; a handshake rejection surfaces as an
// *AuthError.
func Dial(ctx context.Context, endpoint registry.Endpoint, signer Signer, opts Options) (*Client, error) {
	opts = opts.withDefaults()

	tr := opts.Transport
	if tr == nil {
		wsURL, err := GatewayURL(endpoint.BaseURL)
		if err != nil {
			return nil, err
		}
		tr = NewWebSocketTransport(wsURL)
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	conn, err := Open(connectCtx, tr, endpoint.BaseURL, signer.AccountID())
	if err != nil {
		observe(opts.Metrics, func(m *metrics.ClientMetrics) { m.ObserveConnect(metrics.OutcomeError) })
		return nil, err
	}
	observe(opts.Metrics, func(m *metrics.ClientMetrics) { m.ObserveConnect(metrics.OutcomeOK) })

	if err := Authenticate(ctx, conn, signer, opts.AuthTimeout); err != nil {
		observe(opts.Metrics, func(m *metrics.ClientMetrics) { m.ObserveHandshake(metrics.OutcomeError) })
		_ = conn.Close()
		return nil, err
	}
	observe(opts.Metrics, func(m *metrics.ClientMetrics) { m.ObserveHandshake(metrics.OutcomeOK) })

	return &Client{conn: conn, signer: signer, endpoint: endpoint, opts: opts}, nil
}

// SwapProposal is a node-assembled swap transaction awaiting the wallet's
// signature. The transaction bytes are opaque to this client; the ledger
// SDK owns their encoding.
type SwapProposal struct {
	TransactionBytes ByteList `json:"transactionBytes"`
	PoolID           string   `json:"poolId,omitempty"`
	Memo             string   `json:"memo,omitempty"`
}

// SwapReceipt reports the execution of a signed swap transaction.
type SwapReceipt struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// CreateSwap asks the node to assemble a swap transaction for the given
// request payload. The payload shape is pool-specific and passes through
// unmodified.
func (c *Client) CreateSwap(ctx context.Context, payload any) (*SwapProposal, error) {
	prop, err := request[SwapProposal](ctx, c, OpSwapPool, payload)
	if err != nil {
		return nil, err
	}
	if len(prop.TransactionBytes) == 0 {
		return nil, &OperationError{Kind: KindProtocolViolation, Op: OpSwapPool,
			Message: "proposal missing transaction bytes"}
	}
	return prop, nil
}

// ExecuteSwap submits signed transaction bytes for execution.
func (c *Client) ExecuteSwap(ctx context.Context, signedTx []byte) (*SwapReceipt, error) {
	payload := struct {
		SignedTransaction ByteList `json:"signedTransaction"`
	}{SignedTransaction: signedTx}
	return request[SwapReceipt](ctx, c, OpSwapExecute, payload)
}

// request runs one correlated operation with metrics instrumentation.
func request[T any](ctx context.Context, c *Client, op string, payload any) (*T, error) {
	start := time.Now()
	out, err := RequestAs[T](ctx, c.conn, op, payload, c.opts.RequestTimeout)
	observe(c.opts.Metrics, func(m *metrics.ClientMetrics) {
		m.ObserveOperation(op, outcomeLabel(err), time.Since(start))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Connection exposes the underlying connection, mainly for lifecycle
// inspection.
func (c *Client) Connection() *Connection { return c.conn }

// Endpoint returns the node this session talks to.
func (c *Client) Endpoint() registry.Endpoint { return c.endpoint }

// Close ends the session. Idempotent.
func (c *Client) Close() error { return c.conn.Close() }

func observe(m *metrics.ClientMetrics, fn func(*metrics.ClientMetrics)) {
	if m != nil {
		fn(m)
	}
}

// outcomeLabel maps a settlement result onto a metrics label, keeping the
// error kinds distinguishable on dashboards.
func outcomeLabel(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var oe *OperationError
	if errors.As(err, &oe) {
		return string(oe.Kind)
	}
	if errors.Is(err, ErrOperationInFlight) {
		return "in_flight"
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return "not_authenticated"
	}
	return metrics.OutcomeError
}
