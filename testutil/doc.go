/*
Package testutil provides deterministic fixtures for the provider tests.

The fixtures cover the two identities the tests need:

  - Signer: an Ed25519 wallet key derived from a fixed seed, satisfying the
    gateway signer contract without touching the Hedera SDK. The same seed
    always yields the same key, so tests can assert exact signatures.
  - Catalog / Endpoint: small endpoint catalogs with valid keys and URLs
    for exercising registry selection without the embedded production set.

Usage:

	signer := testutil.NewSigner("0.0.4242", 1)
	sig, _ := signer.Sign([]byte("challenge"))
	ok := signer.Verify([]byte("challenge"), sig)

	reg, _ := registry.New(testutil.Catalog(3, 2))
	endpoint, _ := reg.Select(registry.Testnet)

This package is intended for testing purposes only.
*/
package testutil
