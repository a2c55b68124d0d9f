package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to open a connection already past the handshake.
func openAuthedConn(t *testing.T) (*Connection, *MockTransport) {
	t.Helper()
	conn, tr := openTestConn(t)
	conn.setState(StateAuthenticated)
	return conn, tr
}

// respondSuccess scripts the node to answer op requests with a success
// payload.
func respondSuccess(tr *MockTransport, op string, payload any) {
	raw, _ := json.Marshal(payload)
	tr.SetEmitHook(func(env Envelope) {
		if env.Event == RequestEvent(op) {
			tr.PushEvent(op, OperationResponse{Status: StatusSuccess, Payload: raw})
		}
	})
}

func TestRequestRequiresAuthentication(t *testing.T) {
	conn, tr := openTestConn(t)

	_, err := Request(context.Background(), conn, "swapPool", nil, time.Second)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, tr.Emitted(), "unauthenticated request must not reach the wire")
}

func TestRequestSuccess(t *testing.T) {
	conn, tr := openAuthedConn(t)
	respondSuccess(tr, "swapPool", map[string]string{"poolId": "0.0.777"})

	raw, err := Request(context.Background(), conn, "swapPool", map[string]int{"amount": 5}, time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"poolId":"0.0.777"}`, string(raw))

	env, ok := tr.LastEmitted("swapPoolRequest")
	require.True(t, ok)
	var req OperationRequest
	require.NoError(t, json.Unmarshal(env.Data, &req))
	assert.Equal(t, "0.0.4242", req.SenderID)

	assert.Zero(t, conn.HandlerCount("swapPool"), "settled request leaves no handlers")
	assert.Zero(t, conn.HandlerCount(EventError))
	assert.Zero(t, conn.HandlerCount(EventDisconnect))
}

func TestRequestServerRejected(t *testing.T) {
	conn, tr := openAuthedConn(t)
	tr.SetEmitHook(func(env Envelope) {
		if env.Event == RequestEvent("swapPool") {
			tr.PushEvent("swapPool", OperationResponse{
				Status: "error",
				Error:  "insufficient liquidity",
				Code:   "POOL_DRY",
			})
		}
	})

	_, err := Request(context.Background(), conn, "swapPool", nil, time.Second)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindServerRejected, opErr.Kind)
	assert.Equal(t, "POOL_DRY", opErr.Code)
	assert.Equal(t, "insufficient liquidity", opErr.Message)
}

func TestRequestRejectionFallsBackToMessageField(t *testing.T) {
	conn, tr := openAuthedConn(t)
	tr.SetEmitHook(func(env Envelope) {
		if env.Event == RequestEvent("swapPool") {
			tr.PushEvent("swapPool", OperationResponse{Status: "failed", Message: "try later"})
		}
	})

	_, err := Request(context.Background(), conn, "swapPool", nil, time.Second)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindServerRejected, opErr.Kind)
	assert.Equal(t, "try later", opErr.Message)
}

func TestRequestMalformedResponse(t *testing.T) {
	conn, tr := openAuthedConn(t)
	tr.SetEmitHook(func(env Envelope) {
		if env.Event == RequestEvent("swapPool") {
			tr.PushRaw("swapPool", json.RawMessage(`{broken`))
		}
	})

	_, err := Request(context.Background(), conn, "swapPool", nil, time.Second)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindProtocolViolation, opErr.Kind)
}

func TestRequestMissingStatusAndPayload(t *testing.T) {
	conn, tr := openAuthedConn(t)

	for name, resp := range map[string]OperationResponse{
		"missing status":  {Payload: json.RawMessage(`{}`)},
		"missing payload": {Status: StatusSuccess},
	} {
		tr.SetEmitHook(func(env Envelope) {
			if env.Event == RequestEvent("swapPool") {
				tr.PushEvent("swapPool", resp)
			}
		})

		_, err := Request(context.Background(), conn, "swapPool", nil, time.Second)
		var opErr *OperationError
		require.ErrorAs(t, err, &opErr, name)
		assert.Equal(t, KindProtocolViolation, opErr.Kind, name)
	}
}

func TestRequestTimeout(t *testing.T) {
	conn, tr := openAuthedConn(t)

	_, err := Request(context.Background(), conn, "swapPool", nil, 30*time.Millisecond)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindTimeout, opErr.Kind)
	assert.Equal(t, "swapPool", opErr.Op)
	assert.Equal(t, 1, tr.EmittedCount("swapPoolRequest"), "timeout must not re-emit")
	assert.Zero(t, conn.HandlerCount("swapPool"))
}

func TestRequestContextCanceled(t *testing.T) {
	conn, _ := openAuthedConn(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Request(ctx, conn, "swapPool", nil, time.Minute)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindTimeout, opErr.Kind)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRequestTransportError(t *testing.T) {
	conn, tr := openAuthedConn(t)
	tr.SetEmitHook(func(env Envelope) {
		if env.Event == RequestEvent("swapPool") {
			tr.PushError(errors.New("write: broken pipe"))
		}
	})

	_, err := Request(context.Background(), conn, "swapPool", nil, time.Second)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindTransport, opErr.Kind)
	assert.Contains(t, opErr.Message, "broken pipe")
}

func TestRequestEmitFailure(t *testing.T) {
	conn, tr := openAuthedConn(t)
	tr.SetEmitError(errors.New("socket gone"))

	_, err := Request(context.Background(), conn, "swapPool", nil, time.Second)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindTransport, opErr.Kind)
	assert.Zero(t, conn.HandlerCount("swapPool"), "failed emit still cleans up")
}

func TestRequestDisconnect(t *testing.T) {
	conn, tr := openAuthedConn(t)
	tr.SetEmitHook(func(env Envelope) {
		if env.Event == RequestEvent("swapPool") {
			tr.PushEvent(EventDisconnect, "node restarting")
		}
	})

	_, err := Request(context.Background(), conn, "swapPool", nil, time.Second)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindConnectionLost, opErr.Kind)
	assert.Equal(t, "node restarting", opErr.Reason)
}

func TestRequestInFlightGuard(t *testing.T) {
	conn, tr := openAuthedConn(t)

	release := make(chan struct{})
	tr.SetEmitHook(func(env Envelope) {
		if env.Event == RequestEvent("swapPool") {
			<-release
			tr.PushEvent("swapPool", OperationResponse{
				Status:  StatusSuccess,
				Payload: json.RawMessage(`{"ok":true}`),
			})
		}
	})

	first := make(chan error, 1)
	go func() {
		_, err := Request(context.Background(), conn, "swapPool", nil, 5*time.Second)
		first <- err
	}()
	require.Eventually(t, func() bool { return tr.EmittedCount("swapPoolRequest") == 1 },
		2*time.Second, 5*time.Millisecond)

	// Same name while outstanding: rejected before reaching the wire.
	_, err := Request(context.Background(), conn, "swapPool", nil, time.Second)
	require.ErrorIs(t, err, ErrOperationInFlight)
	assert.Equal(t, 1, tr.EmittedCount("swapPoolRequest"))

	close(release)
	require.NoError(t, <-first)

	// Released after settlement.
	respondSuccess(tr, "swapPool", map[string]bool{"ok": true})
	_, err = Request(context.Background(), conn, "swapPool", nil, time.Second)
	require.NoError(t, err)
}

func TestRequestDistinctOperationsConcurrently(t *testing.T) {
	conn, tr := openAuthedConn(t)
	tr.SetEmitHook(func(env Envelope) {
		switch env.Event {
		case RequestEvent("swapPool"):
			tr.PushEvent("swapPool", OperationResponse{
				Status: StatusSuccess, Payload: json.RawMessage(`{"op":"pool"}`)})
		case RequestEvent("swapExecute"):
			tr.PushEvent("swapExecute", OperationResponse{
				Status: StatusSuccess, Payload: json.RawMessage(`{"op":"execute"}`)})
		}
	})

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, op := range []string{"swapPool", "swapExecute"} {
		wg.Add(1)
		go func(op string) {
			defer wg.Done()
			raw, err := Request(context.Background(), conn, op, nil, 5*time.Second)
			if err == nil && !json.Valid(raw) {
				err = errors.New("invalid payload for " + op)
			}
			errs <- err
		}(op)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestRequestAsDecodesPayload(t *testing.T) {
	conn, tr := openAuthedConn(t)
	respondSuccess(tr, "swapPool", map[string]any{"poolId": "0.0.777", "memo": "hi"})

	type proposal struct {
		PoolID string `json:"poolId"`
		Memo   string `json:"memo"`
	}
	out, err := RequestAs[proposal](context.Background(), conn, "swapPool", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, proposal{PoolID: "0.0.777", Memo: "hi"}, out)
}

func TestRequestAsUndecodablePayload(t *testing.T) {
	conn, tr := openAuthedConn(t)
	respondSuccess(tr, "swapPool", map[string]any{"poolId": 123})

	type proposal struct {
		PoolID string `json:"poolId"`
	}
	_, err := RequestAs[proposal](context.Background(), conn, "swapPool", nil, time.Second)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindProtocolViolation, opErr.Kind)
}
