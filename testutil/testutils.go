package testutil

import (
	"crypto/ed25519"
	"fmt"

	"github.com/HSuiteNetwork/v1-dex-provider/registry"
)

// Signer is a deterministic Ed25519 wallet identity. The key derives from
// the seed alone, so the same seed always produces the same signatures.
type Signer struct {
	accountID  string
	privateKey ed25519.PrivateKey
}

// NewSigner creates a signer for the given account with a key derived from
// seed.
func NewSigner(accountID string, seed byte) *Signer {
	raw := make([]byte, ed25519.SeedSize)
	for i := range raw {
		raw[i] = seed
	}
	return &Signer{
		accountID:  accountID,
		privateKey: ed25519.NewKeyFromSeed(raw),
	}
}

// AccountID returns the wallet account identifier.
func (s *Signer) AccountID() string { return s.accountID }

// Sign signs the message with the wallet key.
func (s *Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.privateKey, message), nil
}

// Verify checks a signature produced by Sign.
func (s *Signer) Verify(message, signature []byte) bool {
	return ed25519.Verify(s.privateKey.Public().(ed25519.PublicKey), message, signature)
}

// PublicKey returns the raw Ed25519 public key bytes.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.privateKey.Public().(ed25519.PublicKey)
}

// Endpoint builds a catalog entry with a derived identity key.
func Endpoint(operator, baseURL string, seed byte) registry.Endpoint {
	return registry.Endpoint{
		IdentityKey: NewSigner(operator, seed).PublicKey(),
		Operator:    operator,
		BaseURL:     baseURL,
	}
}

// Catalog builds a catalog with the given number of mainnet and testnet
// endpoints, each with a distinct operator and URL.
func Catalog(mainnet, testnet int) map[registry.Network][]registry.Endpoint {
	catalog := make(map[registry.Network][]registry.Endpoint)
	seed := byte(1)
	for i := 0; i < mainnet; i++ {
		catalog[registry.Mainnet] = append(catalog[registry.Mainnet], Endpoint(
			fmt.Sprintf("0.0.%d", 1000+i),
			fmt.Sprintf("https://mainnet-sn%d.test.invalid", i+1),
			seed,
		))
		seed++
	}
	for i := 0; i < testnet; i++ {
		catalog[registry.Testnet] = append(catalog[registry.Testnet], Endpoint(
			fmt.Sprintf("0.0.%d", 2000+i),
			fmt.Sprintf("https://testnet-sn%d.test.invalid", i+1),
			seed,
		))
		seed++
	}
	return catalog
}
