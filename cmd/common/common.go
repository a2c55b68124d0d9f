// Package common provides shared utilities for the provider CLI commands.
//
// This package contains helper functions used by the standalone binaries to
// reduce code duplication:
//
//   - YAML configuration loading with sane defaults
//   - Wallet loading and generation for Hedera Ed25519 keys
//   - Endpoint catalog resolution (embedded defaults or a YAML override)
package common

import (
	"fmt"
	"os"
	"time"

	"github.com/HSuiteNetwork/v1-dex-provider/ledger"
	"github.com/HSuiteNetwork/v1-dex-provider/registry"
	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the provider binaries.
type Config struct {
	// Network selects the smart-node network, "mainnet" or "testnet".
	Network string `yaml:"network"`

	// Wallet identifies the Hedera account used for authentication.
	Wallet WalletConfig `yaml:"wallet"`

	// HTTPAddr is the status server listen address.
	HTTPAddr string `yaml:"http_addr"`

	// CatalogPath optionally replaces the embedded endpoint catalog.
	CatalogPath string `yaml:"catalog_path"`

	// Timeouts bound the gateway session stages.
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// WalletConfig holds the Hedera account credentials.
type WalletConfig struct {
	// AccountID is the account in shard.realm.num form, e.g. "0.0.123456".
	AccountID string `yaml:"account_id"`

	// PrivateKey is the Ed25519 private key string. A throwaway key is
	// generated when empty, which only works against permissive test nodes.
	PrivateKey string `yaml:"private_key"`
}

// TimeoutConfig bounds the session stages. Zero values fall back to the
// gateway defaults.
type TimeoutConfig struct {
	Connect time.Duration `yaml:"connect"`
	Auth    time.Duration `yaml:"auth"`
	Request time.Duration `yaml:"request"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Network:  string(registry.Testnet),
		HTTPAddr: "127.0.0.1:8080",
	}
}

// LoadConfig reads a YAML configuration file, applying defaults for
// unset fields. An empty path returns DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(body, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Network == "" {
		cfg.Network = string(registry.Testnet)
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = "127.0.0.1:8080"
	}
	return cfg, nil
}

// LoadWallet builds a wallet from the configured credentials, generating a
// throwaway key when none is given.
func LoadWallet(cfg WalletConfig) (*ledger.Wallet, error) {
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("wallet account_id required")
	}
	if cfg.PrivateKey == "" {
		return ledger.Generate(cfg.AccountID)
	}
	return ledger.NewWallet(cfg.AccountID, cfg.PrivateKey)
}

// LoadRegistry resolves the endpoint catalog, preferring the YAML override
// at catalogPath when set.
func LoadRegistry(catalogPath string) (*registry.Registry, error) {
	if catalogPath != "" {
		return registry.Load(catalogPath)
	}
	return registry.Default(), nil
}
