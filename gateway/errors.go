package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by connection and correlator preconditions.
var (
	// ErrNotConnected is returned when emitting on a connection that is
	// Idle or Closed.
	ErrNotConnected = errors.New("gateway: not connected")

	// ErrNotAuthenticated is returned when an operation is issued before
	// the handshake has completed successfully.
	ErrNotAuthenticated = errors.New("gateway: not authenticated")

	// ErrOperationInFlight is returned when a request is issued while a
	// request with the same operation name is still outstanding.
	ErrOperationInFlight = errors.New("gateway: operation already in flight")

	// ErrConnectTimeout is returned when the transport does not confirm
	// the connection within the caller's deadline.
	ErrConnectTimeout = errors.New("gateway: connect timeout")
)

// ErrorKind classifies how an operation failed. The kinds are deliberately
// distinguishable: "never got a response", "rejected by the node" and
// "connection died mid-flight" require different operator reactions.
type ErrorKind string

const (
	// KindTimeout: the deadline elapsed without a matching response.
	KindTimeout ErrorKind = "timeout"

	// KindTransport: the underlying channel reported an error.
	KindTransport ErrorKind = "transport"

	// KindConnectionLost: the node disconnected while the request was
	// outstanding.
	KindConnectionLost ErrorKind = "connection_lost"

	// KindProtocolViolation: the node answered with something that is not
	// a well-formed operation response.
	KindProtocolViolation ErrorKind = "protocol_violation"

	// KindServerRejected: the node answered with a failure status; Code
	// and Message carry its diagnostics.
	KindServerRejected ErrorKind = "server_rejected"
)

// OperationError is the failure outcome of a correlated request.
type OperationError struct {
	Kind    ErrorKind
	Op      string
	Code    string // node-supplied diagnostic code, KindServerRejected only
	Message string
	Reason  string // disconnect reason, KindConnectionLost only
	Err     error
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("gateway: operation %s failed (%s)", e.Op, e.Kind)
	if e.Code != "" {
		msg += " code=" + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *OperationError) Unwrap() error { return e.Err }

// IsKind reports whether err is an OperationError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OperationError
	return errors.As(err, &oe) && oe.Kind == kind
}

// AuthError is the terminal failure of a handshake. The connection it
// occurred on cannot be re-authenticated; open a fresh one to retry.
type AuthError struct {
	Wallet   string
	Endpoint string
	Reason   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("gateway: authentication of %s against %s failed: %s",
		e.Wallet, e.Endpoint, e.Reason)
}
