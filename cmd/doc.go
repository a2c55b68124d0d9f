// Package cmd provides the CLI commands of the DEX provider.
//
// # Commands
//
// demo-cli: CLI for interacting with the HSuite smart-node network.
// Selects a node from the endpoint catalog, opens an authenticated
// gateway session and drives the swap flow end to end.
//
//	go run ./cmd/demo-cli swap --config=provider.yaml --pool=0.0.123456 --amount=100
//	go run ./cmd/demo-cli pools --network=testnet --follow
//	go run ./cmd/demo-cli status --network=testnet
//
// # Configuration
//
// Commands take a YAML configuration file via the --config flag.
// Command-line flags override config file values.
//
//	network: "testnet"
//	wallet:
//	  account_id: "0.0.123456"
//	  private_key: ""          # generates a throwaway key if empty
//	http_addr: "127.0.0.1:8080"
//	catalog_path: ""           # optional endpoint catalog override
//	timeouts:
//	  connect: 10s
//	  auth: 15s
//	  request: 30s
//
// # Status Server
//
// The swap command runs a small HTTP server alongside the session with
// /livez, /readyz, /drain, /undrain and Prometheus /metrics endpoints,
// so long-running invocations can be probed and scraped.
package cmd
