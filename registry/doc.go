// Package registry holds the static catalog of HSuite smart-node endpoints
// and selects one uniformly at random per session.
//
// The catalog is partitioned by network (mainnet and testnet), loaded once
// at process start and immutable afterwards. Duplicate operator accounts
// are tolerated within a network; duplicate base addresses are not. An
// endpoint's identity key is the node operator's public key, used by the
// node to prove its legitimacy during the session handshake.
package registry
