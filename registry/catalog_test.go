package registry

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	reg := Default()

	mainnet := reg.Endpoints(Mainnet)
	testnet := reg.Endpoints(Testnet)
	require.NotEmpty(t, mainnet)
	require.NotEmpty(t, testnet)

	for _, ep := range append(mainnet, testnet...) {
		assert.Len(t, []byte(ep.IdentityKey), ed25519.PublicKeySize, ep.BaseURL)
		assert.NotEmpty(t, ep.Operator, ep.BaseURL)
	}
}

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCatalogOverride(t *testing.T) {
	keyHex := "df4d188a19b61a04f8ad4c65a40ba6f0a9a9baf66f2e255cbcbd9b9e7b42fd21"
	path := writeCatalog(t, `
networks:
  testnet:
    - operator: "0.0.9001"
      public_key: "`+keyHex+`"
      url: "https://custom-sn1.test.invalid"
`)

	reg, err := Load(path)
	require.NoError(t, err)

	eps := reg.Endpoints(Testnet)
	require.Len(t, eps, 1)
	assert.Equal(t, "0.0.9001", eps[0].Operator)
	assert.Equal(t, "https://custom-sn1.test.invalid", eps[0].BaseURL)

	// Wholesale replacement: the embedded mainnet set is gone.
	assert.Empty(t, reg.Endpoints(Mainnet))
}

func TestLoadCatalogBadKey(t *testing.T) {
	path := writeCatalog(t, `
networks:
  testnet:
    - operator: "0.0.9001"
      public_key: "abc123"
      url: "https://custom-sn1.test.invalid"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid public key")
}

func TestLoadCatalogUnknownNetwork(t *testing.T) {
	keyHex := "df4d188a19b61a04f8ad4c65a40ba6f0a9a9baf66f2e255cbcbd9b9e7b42fd21"
	path := writeCatalog(t, `
networks:
  previewnet:
    - operator: "0.0.9001"
      public_key: "`+keyHex+`"
      url: "https://custom-sn1.test.invalid"
`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidNetwork)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadCatalogMalformedYAML(t *testing.T) {
	path := writeCatalog(t, "networks: [not: a map")
	_, err := Load(path)
	require.Error(t, err)
}
