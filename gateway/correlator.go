package gateway

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultRequestTimeout bounds a correlated request when the caller does
// not override it.
const DefaultRequestTimeout = 30 * time.Second

// Request emits one operation on an authenticated connection and waits for
// exactly one of: the matching response event, a transport-level error, a
// disconnect, cancellation, or the deadline. Every exit path removes the
// three handlers the call registered and releases the operation name, so a
// settled request leaves nothing attached to the connection.
//
// Responses are matched by operation name; the protocol is strictly
// request-then-response per name, so a second Request for a name that is
// still outstanding fails fast with ErrOperationInFlight and emits nothing.
// Distinct names may be in flight concurrently.
func Request(ctx context.Context, conn *Connection, op string, payload any, timeout time.Duration) (json.RawMessage, error) {
	if conn.State() != StateAuthenticated {
		return nil, ErrNotAuthenticated
	}
	if err := conn.acquire(op); err != nil {
		return nil, err
	}
	defer conn.release(op)

	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	// Handlers only forward into buffered channels; the select below is
	// the single settlement point, so the outcome is one-shot by
	// construction and the dispatch pump is never blocked.
	responses := make(chan json.RawMessage, 1)
	transportErrs := make(chan string, 1)
	disconnects := make(chan string, 1)

	responseID := conn.On(op, func(data json.RawMessage) {
		select {
		case responses <- data:
		default:
		}
	})
	errorID := conn.On(EventError, func(data json.RawMessage) {
		var msg string
		_ = json.Unmarshal(data, &msg)
		select {
		case transportErrs <- msg:
		default:
		}
	})
	disconnectID := conn.On(EventDisconnect, func(data json.RawMessage) {
		select {
		case disconnects <- disconnectReason(data):
		default:
		}
	})
	defer func() {
		conn.Off(op, responseID)
		conn.Off(EventError, errorID)
		conn.Off(EventDisconnect, disconnectID)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	req := OperationRequest{SenderID: conn.WalletID(), Payload: payload}
	if err := conn.Emit(RequestEvent(op), req); err != nil {
		return nil, &OperationError{Kind: KindTransport, Op: op, Message: err.Error(), Err: err}
	}

	select {
	case raw := <-responses:
		return decodeResponse(op, raw)
	case msg := <-transportErrs:
		return nil, &OperationError{Kind: KindTransport, Op: op, Message: msg}
	case reason := <-disconnects:
		return nil, &OperationError{Kind: KindConnectionLost, Op: op, Reason: reason}
	case <-timer.C:
		return nil, &OperationError{Kind: KindTimeout, Op: op}
	case <-ctx.Done():
		// External cancellation takes the same cleanup path as a timeout.
		return nil, &OperationError{Kind: KindTimeout, Op: op, Reason: ctx.Err().Error(), Err: ctx.Err()}
	}
}

// RequestAs issues Request and decodes the success payload into T. A
// success payload that does not decode is a protocol violation, the same
// class as a structurally malformed response.
func RequestAs[T any](ctx context.Context, conn *Connection, op string, payload any, timeout time.Duration) (T, error) {
	var out T
	raw, err := Request(ctx, conn, op, payload, timeout)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &OperationError{
			Kind:    KindProtocolViolation,
			Op:      op,
			Message: "undecodable success payload: " + err.Error(),
			Err:     err,
		}
	}
	return out, nil
}

// decodeResponse classifies one response body. Failure statuses become
// ServerRejected with the node's own diagnostics; anything structurally
// unsound becomes ProtocolViolation rather than a crash in the caller.
func decodeResponse(op string, raw json.RawMessage) (json.RawMessage, error) {
	var resp OperationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &OperationError{
			Kind:    KindProtocolViolation,
			Op:      op,
			Message: "malformed response: " + err.Error(),
			Err:     err,
		}
	}
	switch {
	case resp.Status == "":
		return nil, &OperationError{Kind: KindProtocolViolation, Op: op, Message: "response missing status"}
	case resp.Status != StatusSuccess:
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return nil, &OperationError{Kind: KindServerRejected, Op: op, Code: resp.Code, Message: msg}
	case len(resp.Payload) == 0:
		return nil, &OperationError{Kind: KindProtocolViolation, Op: op, Message: "success response missing payload"}
	}
	return resp.Payload, nil
}
