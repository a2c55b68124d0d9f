package registry

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default returns the registry built from the embedded smart-node catalog.
func Default() *Registry {
	r, err := New(defaultCatalog())
	if err != nil {
		// The embedded catalog is validated by tests; a failure here is a
		// build defect.
		panic(err)
	}
	return r
}

// catalogFile is the YAML shape of an external catalog override.
//
//	networks:
//	  mainnet:
//	    - operator: "0.0.1786597"
//	      public_key: "df4d188a..."
//	      url: "https://mainnet-sn1.hsuite.network"
type catalogFile struct {
	Networks map[string][]catalogEntry `yaml:"networks"`
}

type catalogEntry struct {
	Operator  string `yaml:"operator"`
	PublicKey string `yaml:"public_key"`
	URL       string `yaml:"url"`
}

// Load reads a catalog override from a YAML file. The file replaces the
// embedded catalog wholesale; it is validated with the same rules.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("registry: parse catalog: %w", err)
	}

	catalog := make(map[Network][]Endpoint, len(file.Networks))
	for name, entries := range file.Networks {
		network := Network(name)
		for _, e := range entries {
			key, err := hex.DecodeString(e.PublicKey)
			if err != nil || len(key) != ed25519.PublicKeySize {
				return nil, fmt.Errorf("registry: invalid public key for %q on %s", e.URL, name)
			}
			catalog[network] = append(catalog[network], Endpoint{
				IdentityKey: ed25519.PublicKey(key),
				Operator:    e.Operator,
				BaseURL:     e.URL,
			})
		}
	}
	return New(catalog)
}

// defaultCatalog lists the public smart nodes per network. The identity
// keys are the operators' published ed25519 public keys.
func defaultCatalog() map[Network][]Endpoint {
	return map[Network][]Endpoint{
		Mainnet: {
			node("0.0.1786597", "df4d188a19b61a04f8ad4c65a40ba6f0a9a9baf66f2e255cbcbd9b9e7b42fd21", "https://mainnet-sn1.hsuite.network"),
			node("0.0.1786598", "4adf7564d1fcd1d0e5eb40dc19ab29ed380e0cd0215bd8a3bf240211a5dcbb0b", "https://mainnet-sn2.hsuite.network"),
			node("0.0.1786599", "87c54e94261a0a87245a70e167e2e715bbde8f0301fdd41bcf0a9ac8cbd5b4f8", "https://mainnet-sn3.hsuite.network"),
			node("0.0.1786344", "7f59048cc0e0f91b03f5c6c2d9b2dd5b25e0c5f6e9c93c5b9964fe4b2e4d8427", "https://mainnet-sn4.hsuite.network"),
			node("0.0.1786344", "1f0dc16d9c4394cbf1ab1cc1f80db7a403c0c9733d2b93c00dba091be0c5e926", "https://mainnet-sn5.hsuite.network"),
			node("0.0.1786365", "da74938d4d4f9cf2e9302a7e4cf794d8d687d1abcf3aee855860f01dd3ac4503", "https://mainnet-sn6.hsuite.network"),
			node("0.0.1786365", "9f7a01821208ccb4f7d6a897c5e161e4cb633f5fc26e6b0a52fdebe01d24533c", "https://mainnet-sn7.hsuite.network"),
			node("0.0.1786533", "8d9e44bd42c1e65e81044200cd244ee7e43c6b640a3757b5d09e3bbf389186a2", "https://mainnet-sn8.hsuite.network"),
		},
		Testnet: {
			node("0.0.467726", "6f43c814995aaf772ef4de45e04b9c28e7ed0e6567f7b861aa7badbd24ef4a98", "https://testnet-sn1.hsuite.network"),
			node("0.0.467732", "208ae4d2ce23bc85b6d93e403bb5d0f81ef8fbd2bdb5e1e09d4894ce312dd8d0", "https://testnet-sn2.hsuite.network"),
			node("0.0.467734", "e14d8735489cf9d0d3cc2c08e9e2a3c32c5b2beea62735bcf9a508b0ea72ab77", "https://testnet-sn3.hsuite.network"),
			node("0.0.467737", "b2e63391b1a4b7ce42930f9c23eee834c962cee3ecfc764cbda165ff8b92b8ba", "https://testnet-sn4.hsuite.network"),
		},
	}
}

func node(operator, publicKeyHex, baseURL string) Endpoint {
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(key) != ed25519.PublicKeySize {
		panic(fmt.Sprintf("registry: bad embedded key for %s", baseURL))
	}
	return Endpoint{
		IdentityKey: ed25519.PublicKey(key),
		Operator:    operator,
		BaseURL:     baseURL,
	}
}
