// Package gateway implements the authenticated duplex protocol client for
// the HSuite smart-node network.
//
// A session talks to exactly one smart node over a persistent WebSocket
// channel carrying JSON event envelopes. The pieces layer as follows:
//
//  1. Transport: one duplex channel to one endpoint. The production
//     implementation dials the node's /gateway WebSocket; tests use
//     MockTransport to script inbound traffic.
//
//  2. Connection: owns a Transport, tracks lifecycle state
//     (Idle -> Connecting -> Connected -> Authenticating -> Authenticated ->
//     Closed), and maintains the inbound handler registry. Close is
//     idempotent and safe to call from within a handler.
//
//  3. Handshake: on the node's authentication challenge the client signs a
//     canonical payload binding the node's own signature to this challenge
//     instance and emits the proof together with its wallet id. The node
//     answers with a verdict; the handshake settles exactly once.
//
//  4. Correlator: Request emits a named operation and waits for exactly one
//     of: a matching response, a transport error, a disconnect, or the
//     deadline. All listeners registered by a call are removed on every
//     exit path, and at most one request per operation name may be in
//     flight on a connection.
//
// Client ties these together: Dial selects nothing and retries nothing, it
// opens one connection, authenticates, and exposes the swap operations.
// Endpoint selection lives in the registry package and retry policy belongs
// to the caller.
package gateway
