package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// MockTransport implements Transport for testing. Tests script the node
// side by pushing inbound events and errors, and may react to emissions
// through an emit hook.
type MockTransport struct {
	mu           sync.Mutex
	emitted      []Envelope
	emitErr      error
	emitHook     func(Envelope)
	connectErr   error
	connectDelay time.Duration

	inbound chan Envelope
	errs    chan error
	closed  atomic.Bool
}

// NewMockTransport creates a mock that connects instantly and accepts all
// emissions.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		inbound: make(chan Envelope, 64),
		errs:    make(chan error, 1),
	}
}

// SetConnectError makes Connect fail with err.
func (t *MockTransport) SetConnectError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connectErr = err
}

// SetConnectDelay makes Connect block for d, or until ctx expires.
func (t *MockTransport) SetConnectDelay(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connectDelay = d
}

// SetEmitError makes Emit fail with err.
func (t *MockTransport) SetEmitError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitErr = err
}

// SetEmitHook installs a callback invoked asynchronously for every
// emission; tests use it to script the node's reaction.
func (t *MockTransport) SetEmitHook(fn func(Envelope)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitHook = fn
}

func (t *MockTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	delay, err := t.connectDelay, t.connectErr
	t.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	t.inbound <- Envelope{Event: EventConnect}
	return nil
}

func (t *MockTransport) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := Envelope{Event: event, Data: data}

	t.mu.Lock()
	if t.emitErr != nil {
		err = t.emitErr
	} else {
		t.emitted = append(t.emitted, env)
	}
	hook := t.emitHook
	t.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		go hook(env)
	}
	return nil
}

func (t *MockTransport) Inbound() <-chan Envelope { return t.inbound }

func (t *MockTransport) Errors() <-chan error { return t.errs }

func (t *MockTransport) Close() error {
	t.closed.Store(true)
	return nil
}

// Closed reports whether the transport has been released.
func (t *MockTransport) Closed() bool { return t.closed.Load() }

// PushEvent injects an inbound event as if the node had sent it.
func (t *MockTransport) PushEvent(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	t.inbound <- Envelope{Event: event, Data: data}
}

// PushRaw injects an inbound event with raw, possibly malformed data.
func (t *MockTransport) PushRaw(event string, data json.RawMessage) {
	t.inbound <- Envelope{Event: event, Data: data}
}

// PushError injects a transport-level failure.
func (t *MockTransport) PushError(err error) {
	select {
	case t.errs <- err:
	default:
	}
}

// Emitted returns a copy of everything emitted so far.
func (t *MockTransport) Emitted() []Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Envelope, len(t.emitted))
	copy(out, t.emitted)
	return out
}

// EmittedCount counts emissions of one event.
func (t *MockTransport) EmittedCount(event string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, env := range t.emitted {
		if env.Event == event {
			n++
		}
	}
	return n
}

// LastEmitted returns the most recent emission of one event, if any.
func (t *MockTransport) LastEmitted(event string) (Envelope, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.emitted) - 1; i >= 0; i-- {
		if t.emitted[i].Event == event {
			return t.emitted[i], true
		}
	}
	return Envelope{}, false
}
