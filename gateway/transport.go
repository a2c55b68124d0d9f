package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is one duplex channel to one gateway endpoint. Implementations
// deliver inbound envelopes on Inbound and exactly one terminal failure on
// Errors; after either channel is done the transport is unusable.
type Transport interface {
	// Connect establishes the channel. It returns once the transport has
	// confirmed the connection or ctx expires.
	Connect(ctx context.Context) error

	// Emit sends one event frame.
	Emit(event string, payload any) error

	// Inbound delivers decoded frames in arrival order.
	Inbound() <-chan Envelope

	// Errors delivers the transport-level failure that ended the channel.
	Errors() <-chan error

	// Close tears the channel down. Idempotent.
	Close() error
}

// gatewayPath is the fixed path segment of the duplex endpoint.
const gatewayPath = "/gateway"

// GatewayURL converts a node's base address into its duplex endpoint URL:
// http becomes ws, https becomes wss, and the gateway path is appended.
func GatewayURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("gateway: invalid base address %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("gateway: unsupported scheme %q in %q", u.Scheme, base)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + gatewayPath
	return u.String(), nil
}

// WebSocketTransport speaks JSON envelopes over a WebSocket.
type WebSocketTransport struct {
	url    string
	dialer *websocket.Dialer

	writeMu sync.Mutex
	conn    *websocket.Conn

	inbound chan Envelope
	errs    chan error

	closeOnce sync.Once
	done      chan struct{}
}

// NewWebSocketTransport creates a transport for the given ws(s):// URL.
// Use GatewayURL to derive it from a node's base address.
func NewWebSocketTransport(rawURL string) *WebSocketTransport {
	return &WebSocketTransport{
		url: rawURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
		inbound: make(chan Envelope, 32),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
}

func (t *WebSocketTransport) Connect(ctx context.Context) error {
	conn, resp, err := t.dialer.DialContext(ctx, t.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("gateway: dial %s: %w", t.url, err)
	}
	t.writeMu.Lock()
	t.conn = conn
	t.writeMu.Unlock()

	go t.readLoop(conn)

	// The channel is confirmed by the successful upgrade; surface the
	// lifecycle event so listeners observe it uniformly with transports
	// where confirmation arrives in-band.
	t.inbound <- Envelope{Event: EventConnect}
	return nil
}

func (t *WebSocketTransport) readLoop(conn *websocket.Conn) {
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			select {
			case <-t.done:
				// Local close; not a transport failure.
			case t.errs <- err:
			}
			return
		}
		select {
		case t.inbound <- env:
		case <-t.done:
			return
		}
	}
}

func (t *WebSocketTransport) Emit(event string, payload any) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.conn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway: encode %s payload: %w", event, err)
	}
	return t.conn.WriteJSON(Envelope{Event: event, Data: data})
}

func (t *WebSocketTransport) Inbound() <-chan Envelope { return t.inbound }

func (t *WebSocketTransport) Errors() <-chan error { return t.errs }

func (t *WebSocketTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.writeMu.Lock()
		conn := t.conn
		t.conn = nil
		t.writeMu.Unlock()
		if conn != nil {
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = conn.Close()
		}
	})
	return nil
}
