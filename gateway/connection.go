package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// State is the lifecycle position of a Connection.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateAuthenticating
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Handler receives the data of one inbound event.
type Handler func(data json.RawMessage)

// HandlerID identifies one registration for removal via Off.
type HandlerID uint64

// handlerEntry carries a tombstone so a logically removed handler cannot
// fire from a dispatch snapshot taken before the removal.
type handlerEntry struct {
	id      HandlerID
	fn      Handler
	removed atomic.Bool
}

// Connection owns one duplex channel to one gateway endpoint. It is created
// by Open, owned by the caller that created it, and never pooled or reused
// across sessions: a failed handshake or a close ends its life.
type Connection struct {
	tr       Transport
	remote   string
	walletID string

	state atomic.Int32

	mu       sync.Mutex
	handlers map[string][]*handlerEntry
	nextID   HandlerID
	unknown  func(event string, data json.RawMessage)

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// Open establishes the transport and blocks until it confirms or ctx
// expires; a deadline expiry surfaces as ErrConnectTimeout. The returned
// connection is Connected with its dispatch pump running.
func Open(ctx context.Context, tr Transport, remote, walletID string) (*Connection, error) {
	c := &Connection{
		tr:       tr,
		remote:   remote,
		walletID: walletID,
		handlers: make(map[string][]*handlerEntry),
		inflight: make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))

	if err := tr.Connect(ctx); err != nil {
		c.state.Store(int32(StateClosed))
		_ = tr.Close()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %s", ErrConnectTimeout, remote)
		}
		return nil, err
	}

	c.state.Store(int32(StateConnected))
	go c.pump()
	return c, nil
}

// State returns the current lifecycle state.
func (c *Connection) State() State { return State(c.state.Load()) }

func (c *Connection) setState(s State) { c.state.Store(int32(s)) }

// Remote returns the endpoint base address this connection talks to.
func (c *Connection) Remote() string { return c.remote }

// WalletID returns the caller identity bound to this connection.
func (c *Connection) WalletID() string { return c.walletID }

// On registers a handler for an inbound event name. Many handlers may be
// registered per event; each registration has its own id.
func (c *Connection) On(event string, fn Handler) HandlerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.handlers[event] = append(c.handlers[event], &handlerEntry{id: id, fn: fn})
	return id
}

// Off removes one registration. After Off returns the handler is logically
// removed and will not fire, even from an in-progress dispatch.
func (c *Connection) Off(event string, id HandlerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.handlers[event]
	for i, e := range entries {
		if e.id == id {
			e.removed.Store(true)
			c.handlers[event] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(c.handlers[event]) == 0 {
		delete(c.handlers, event)
	}
}

// HandlerCount returns the number of live registrations for an event.
func (c *Connection) HandlerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers[event])
}

// SetUnknownHandler installs the hook invoked for inbound events outside
// the protocol's closed set (no registration and no lifecycle meaning).
func (c *Connection) SetUnknownHandler(fn func(event string, data json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unknown = fn
}

// Emit sends one event frame. It fails with ErrNotConnected when the
// connection is Idle or Closed.
func (c *Connection) Emit(event string, payload any) error {
	switch c.State() {
	case StateIdle, StateClosed:
		return ErrNotConnected
	}
	return c.tr.Emit(event, payload)
}

// pump is the single dispatch loop; all inbound handler invocations happen
// on this goroutine.
func (c *Connection) pump() {
	for {
		select {
		case env, ok := <-c.tr.Inbound():
			if !ok {
				c.fail(errors.New("gateway: transport inbound closed"))
				return
			}
			if c.handleEnvelope(env) {
				return
			}
		case err, ok := <-c.tr.Errors():
			if !ok {
				return
			}
			c.fail(err)
			return
		case <-c.done:
			return
		}
	}
}

// handleEnvelope dispatches one frame; it reports whether the connection
// terminated as a result.
func (c *Connection) handleEnvelope(env Envelope) bool {
	switch env.Event {
	case EventDisconnect:
		c.dispatch(EventDisconnect, env.Data)
		c.Close()
		return true
	case EventConnect, EventAuthentication, EventAuthenticate:
		c.dispatch(env.Event, env.Data)
		return false
	default:
		if !c.dispatch(env.Event, env.Data) {
			c.mu.Lock()
			unknown := c.unknown
			c.mu.Unlock()
			if unknown != nil {
				unknown(env.Event, env.Data)
			}
		}
		return false
	}
}

// fail forwards a transport-level error to error handlers, then closes.
// In-flight operations observe it through their own error handlers.
func (c *Connection) fail(err error) {
	data, _ := json.Marshal(err.Error())
	c.dispatch(EventError, data)
	c.Close()
}

// dispatch invokes the live handlers for an event and reports whether any
// registration existed. Handlers run without the registry lock so they may
// call On, Off and Close; the tombstone check keeps removed handlers from
// firing out of the snapshot.
func (c *Connection) dispatch(event string, data json.RawMessage) bool {
	c.mu.Lock()
	entries := c.handlers[event]
	snapshot := make([]*handlerEntry, len(entries))
	copy(snapshot, entries)
	c.mu.Unlock()

	for _, e := range snapshot {
		if e.removed.Load() {
			continue
		}
		e.fn(data)
	}
	return len(snapshot) > 0
}

// Close transitions to Closed, removes all handlers and releases the
// transport. It is idempotent and safe to call from within a handler fired
// by this connection.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)

		c.mu.Lock()
		for _, entries := range c.handlers {
			for _, e := range entries {
				e.removed.Store(true)
			}
		}
		c.handlers = make(map[string][]*handlerEntry)
		c.mu.Unlock()

		_ = c.tr.Close()
	})
	return nil
}

// acquire reserves an operation name for a single outstanding request.
func (c *Connection) acquire(op string) error {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	if _, busy := c.inflight[op]; busy {
		return fmt.Errorf("%w: %s", ErrOperationInFlight, op)
	}
	c.inflight[op] = struct{}{}
	return nil
}

func (c *Connection) release(op string) {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	delete(c.inflight, op)
}
