package gateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Wire event names. The protocol is a closed set: lifecycle and handshake
// events below, plus one request/response event pair per operation derived
// by RequestEvent. Anything else reaching a connection is routed to its
// unknown-event hook rather than dropped.
const (
	// EventConnect fires once the transport confirms the channel.
	EventConnect = "connect"

	// EventDisconnect carries the node-supplied reason for ending the
	// session.
	EventDisconnect = "disconnect"

	// EventAuthentication is the inbound challenge opening the handshake.
	EventAuthentication = "authentication"

	// EventAuthenticate carries the outbound signed proof and, inbound,
	// the node's verdict.
	EventAuthenticate = "authenticate"

	// EventError is the local event used to forward transport-level
	// failures to registered handlers. It never crosses the wire.
	EventError = "error"
)

// RequestEvent derives the emission event for an operation name. Responses
// arrive on the bare operation name.
func RequestEvent(op string) string { return op + "Request" }

// Envelope is one frame on the duplex channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ByteList is a byte slice that marshals as a JSON array of numbers, the
// representation the gateway nodes use for raw signature material. It
// accepts either the array form or a base64 string when decoding.
type ByteList []byte

func (b ByteList) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	ints := make([]uint16, len(b))
	for i, v := range b {
		ints[i] = uint16(v)
	}
	return json.Marshal(ints)
}

func (b *ByteList) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err == nil {
		out := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return fmt.Errorf("gateway: byte value %d out of range", v)
			}
			out[i] = byte(v)
		}
		*b = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("gateway: byte list is neither array nor string")
	}
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("gateway: invalid base64 byte list: %w", err)
	}
	*b = out
	return nil
}

// AuthChallenge is the payload of the node's authentication event: an
// opaque payload plus the node's signature over it.
type AuthChallenge struct {
	Payload    json.RawMessage `json:"payload"`
	SignedData ServerSignature `json:"signedData"`
}

// ServerSignature wraps the node-side signature of a challenge.
type ServerSignature struct {
	Signature ByteList `json:"signature"`
}

// authProof is the canonical payload the client signs. Binding the node's
// own signature into the proof ties it to this challenge instance, so a
// captured proof cannot be replayed against a later session. Field order
// is the serialization contract; do not reorder.
type authProof struct {
	ServerSignature ByteList        `json:"serverSignature"`
	OriginalPayload json.RawMessage `json:"originalPayload"`
}

// AuthResponse is the client's answer to a challenge.
type AuthResponse struct {
	SignedData UserSignature `json:"signedData"`
	WalletID   string        `json:"walletId"`
}

// UserSignature carries the canonical proof bytes and the wallet's
// signature over them.
type UserSignature struct {
	SignedPayload json.RawMessage `json:"signedPayload"`
	UserSignature ByteList        `json:"userSignature"`
}

// AuthVerdict is the node's final word on a handshake.
type AuthVerdict struct {
	IsValidSignature bool `json:"isValidSignature"`
}

// OperationRequest is the body emitted under RequestEvent(op).
type OperationRequest struct {
	SenderID string `json:"senderId"`
	Payload  any    `json:"payload,omitempty"`
}

// OperationResponse is the body of every operation response event.
// On success Payload is set; otherwise the node's diagnostics are carried
// in Error/Message/Code.
type OperationResponse struct {
	Status  string          `json:"status"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// StatusSuccess is the response status marking a successful operation.
const StatusSuccess = "success"
