package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Signer is the ledger-side collaborator proving control of the caller's
// account. The ledger package provides the Hedera-backed implementation.
type Signer interface {
	// Sign produces a detached signature over message with the account's
	// private key.
	Sign(message []byte) ([]byte, error)

	// AccountID returns the wallet id presented to the gateway.
	AccountID() string
}

// DefaultAuthTimeout bounds the wait for a challenge and verdict.
const DefaultAuthTimeout = 15 * time.Second

// handshake is the per-connection authentication state machine. It settles
// its result exactly once; whichever of verdict, disconnect, transport
// error or deadline lands first wins and the rest are no-ops.
type handshake struct {
	conn   *Connection
	signer Signer

	once   sync.Once
	result chan error
}

// Authenticate runs the challenge-response handshake on a freshly connected
// connection. On success the connection is Authenticated and ready for
// requests. On failure the connection is not usable for operations and
// cannot be re-authenticated; the error is an *AuthError naming the wallet
// and endpoint. Re-running the handshake on any connection that already
// left the Connected state is an error.
func Authenticate(ctx context.Context, conn *Connection, signer Signer, timeout time.Duration) error {
	if s := conn.State(); s != StateConnected {
		if s == StateClosed || s == StateIdle {
			return ErrNotConnected
		}
		return fmt.Errorf("gateway: authenticate requires a connected session, connection is %s", s)
	}
	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}
	conn.setState(StateAuthenticating)

	h := &handshake{
		conn:   conn,
		signer: signer,
		result: make(chan error, 1),
	}

	challengeID := conn.On(EventAuthentication, h.onChallenge)
	verdictID := conn.On(EventAuthenticate, h.onVerdict)
	disconnectID := conn.On(EventDisconnect, h.onDisconnect)
	errorID := conn.On(EventError, h.onTransportError)
	defer func() {
		conn.Off(EventAuthentication, challengeID)
		conn.Off(EventAuthenticate, verdictID)
		conn.Off(EventDisconnect, disconnectID)
		conn.Off(EventError, errorID)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-h.result:
		return err
	case <-timer.C:
		h.settle(h.failure("no verdict within deadline"))
		return <-h.result
	case <-ctx.Done():
		h.settle(h.failure(ctx.Err().Error()))
		return <-h.result
	}
}

// settle resolves the handshake exactly once. The result channel is
// buffered so settlement never blocks the dispatch pump.
func (h *handshake) settle(err error) {
	h.once.Do(func() {
		if err == nil {
			h.conn.setState(StateAuthenticated)
		}
		h.result <- err
	})
}

func (h *handshake) failure(reason string) *AuthError {
	return &AuthError{
		Wallet:   h.signer.AccountID(),
		Endpoint: h.conn.Remote(),
		Reason:   reason,
	}
}

// onChallenge answers the node's challenge: the canonical proof binds the
// node's signature to the challenge payload, is signed by the wallet, and
// goes back out with the wallet id.
func (h *handshake) onChallenge(data json.RawMessage) {
	var ch AuthChallenge
	if err := json.Unmarshal(data, &ch); err != nil {
		h.settle(h.failure("malformed challenge: " + err.Error()))
		return
	}
	if len(ch.Payload) == 0 || len(ch.SignedData.Signature) == 0 {
		h.settle(h.failure("challenge missing payload or signature"))
		return
	}

	proof, err := json.Marshal(authProof{
		ServerSignature: ch.SignedData.Signature,
		OriginalPayload: ch.Payload,
	})
	if err != nil {
		h.settle(h.failure("encode proof: " + err.Error()))
		return
	}

	sig, err := h.signer.Sign(proof)
	if err != nil {
		h.settle(h.failure("sign proof: " + err.Error()))
		return
	}

	resp := AuthResponse{
		SignedData: UserSignature{
			SignedPayload: proof,
			UserSignature: sig,
		},
		WalletID: h.signer.AccountID(),
	}
	if err := h.conn.Emit(EventAuthenticate, resp); err != nil {
		h.settle(h.failure("emit proof: " + err.Error()))
	}
}

func (h *handshake) onVerdict(data json.RawMessage) {
	var v AuthVerdict
	if err := json.Unmarshal(data, &v); err != nil {
		h.settle(h.failure("malformed verdict: " + err.Error()))
		return
	}
	if !v.IsValidSignature {
		h.settle(h.failure("node rejected signature"))
		return
	}
	h.settle(nil)
}

func (h *handshake) onDisconnect(data json.RawMessage) {
	reason := disconnectReason(data)
	h.settle(h.failure("disconnected: " + reason))
}

func (h *handshake) onTransportError(data json.RawMessage) {
	var msg string
	_ = json.Unmarshal(data, &msg)
	h.settle(h.failure("transport error: " + msg))
}

// disconnectReason decodes the reason string of a disconnect event,
// tolerating nodes that send nothing.
func disconnectReason(data json.RawMessage) string {
	var reason string
	if err := json.Unmarshal(data, &reason); err != nil || reason == "" {
		return "connection closed by remote"
	}
	return reason
}
