// Command provider provides CLI tools for interacting with the HSuite
// smart-node network.
//
// # Commands
//
// swap: Request, sign and execute a swap through an authenticated gateway
// session.
//
//	provider swap --config=provider.yaml --pool=0.0.123456 --amount=100
//
// pools: List the liquidity pools a node exposes, optionally polling.
//
//	provider pools --network=testnet --follow
//
// status: Display a node's identity and health.
//
//	provider status --network=testnet
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HSuiteNetwork/v1-dex-provider/api/httpserver"
	"github.com/HSuiteNetwork/v1-dex-provider/cmd/common"
	"github.com/HSuiteNetwork/v1-dex-provider/gateway"
	"github.com/HSuiteNetwork/v1-dex-provider/metrics"
	"github.com/HSuiteNetwork/v1-dex-provider/query"
	"github.com/HSuiteNetwork/v1-dex-provider/registry"
	"github.com/fatih/color"
	"golang.org/x/time/rate"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "swap":
		err = runSwap(args)
	case "pools":
		err = runPools(args)
	case "status":
		err = runStatus(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`provider - CLI tools for the HSuite smart-node network

Usage:
  provider <command> [options]

Commands:
  swap      Request, sign and execute a swap
  pools     List a node's liquidity pools
  status    Display a node's identity and health

Run 'provider <command> --help' for command-specific options.`)
}

// selectNode resolves the catalog and draws one endpoint for the network.
func selectNode(cfg *common.Config) (registry.Endpoint, error) {
	reg, err := common.LoadRegistry(cfg.CatalogPath)
	if err != nil {
		return registry.Endpoint{}, err
	}
	return reg.Select(registry.Network(cfg.Network))
}

// --- Swap Command ---

func runSwap(args []string) error {
	var (
		configPath string
		poolID     string
		amount     float64
		httpAddr   string
	)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			i++
			if i < len(args) {
				configPath = args[i]
			}
		case "--pool", "-p":
			i++
			if i < len(args) {
				poolID = args[i]
			}
		case "--amount", "-a":
			i++
			if i < len(args) {
				fmt.Sscanf(args[i], "%g", &amount)
			}
		case "--http":
			i++
			if i < len(args) {
				httpAddr = args[i]
			}
		case "--help", "-h":
			fmt.Println(`provider swap - request, sign and execute a swap

Options:
  --config, -c   Path to YAML config file
  --pool, -p     Pool identifier (required)
  --amount, -a   Amount of the base token to swap (required)
  --http         Status server listen address (overrides config)`)
			return nil
		}
	}

	if poolID == "" {
		return fmt.Errorf("--pool is required")
	}
	if amount <= 0 {
		return fmt.Errorf("--amount is required and must be > 0")
	}

	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	wallet, err := common.LoadWallet(cfg.Wallet)
	if err != nil {
		return err
	}

	endpoint, err := selectNode(cfg)
	if err != nil {
		return err
	}
	log.Info("Selected smart node", "operator", endpoint.Operator, "url", endpoint.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	qc, err := query.New(endpoint.BaseURL, 15*time.Second)
	if err != nil {
		return err
	}
	pools, err := qc.Pools(ctx)
	if err != nil {
		return fmt.Errorf("list pools: %w", err)
	}
	known := false
	for _, p := range pools {
		if p.ID == poolID {
			known = true
			break
		}
	}
	if !known {
		color.Yellow("Pool %s not in the node's advertised set (%d pools); proceeding anyway", poolID, len(pools))
	}

	m := metrics.New("dex_provider")
	statusServer, err := httpserver.New(&httpserver.Config{
		ListenAddr:               cfg.HTTPAddr,
		Log:                      log,
		DrainDuration:            5 * time.Second,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              10 * time.Second,
		WriteTimeout:             10 * time.Second,
	}, m)
	if err != nil {
		return err
	}
	statusServer.RunInBackground()
	defer statusServer.Shutdown()

	client, err := gateway.Dial(ctx, endpoint, wallet, gateway.Options{
		ConnectTimeout: cfg.Timeouts.Connect,
		AuthTimeout:    cfg.Timeouts.Auth,
		RequestTimeout: cfg.Timeouts.Request,
		Metrics:        m,
	})
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint.BaseURL, err)
	}
	defer client.Close()
	color.Green("Authenticated as %s against %s", wallet.AccountID(), endpoint.Operator)

	proposal, err := client.CreateSwap(ctx, map[string]any{
		"poolId": poolID,
		"amount": amount,
	})
	if err != nil {
		return fmt.Errorf("create swap: %w", err)
	}
	log.Info("Received swap proposal",
		"pool", proposal.PoolID, "memo", proposal.Memo,
		"transactionSize", len(proposal.TransactionBytes))

	signedTx, err := wallet.SignTransactionBytes(proposal.TransactionBytes)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}

	receipt, err := client.ExecuteSwap(ctx, signedTx)
	if err != nil {
		return fmt.Errorf("execute swap: %w", err)
	}

	color.Green("Swap executed")
	fmt.Printf("  Transaction: %s\n", receipt.TransactionID)
	fmt.Printf("  Status:      %s\n", receipt.Status)
	return nil
}

// --- Pools Command ---

func runPools(args []string) error {
	var (
		configPath string
		network    string
		follow     bool
		interval   time.Duration
		asJSON     bool
	)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			i++
			if i < len(args) {
				configPath = args[i]
			}
		case "--network", "-n":
			i++
			if i < len(args) {
				network = args[i]
			}
		case "--follow", "-f":
			follow = true
		case "--interval":
			i++
			if i < len(args) {
				interval, _ = time.ParseDuration(args[i])
			}
		case "--json":
			asJSON = true
		case "--help", "-h":
			fmt.Println(`provider pools - list a node's liquidity pools

Options:
  --config, -c    Path to YAML config file
  --network, -n   Network to query: mainnet or testnet
  --follow, -f    Keep polling for pool updates
  --interval      Polling interval (default 10s)
  --json          Print raw JSON`)
			return nil
		}
	}

	if interval <= 0 {
		interval = 10 * time.Second
	}

	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if network != "" {
		cfg.Network = network
	}

	endpoint, err := selectNode(cfg)
	if err != nil {
		return err
	}

	qc, err := query.New(endpoint.BaseURL, 15*time.Second)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printOnce := func() error {
		pools, err := qc.Pools(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(pools)
		}
		color.Cyan("%s (%d pools)", endpoint.Operator, len(pools))
		for _, p := range pools {
			fmt.Printf("  %-14s %s/%s  price=%g\n", p.ID, p.BaseToken, p.SwapToken, p.Price)
		}
		return nil
	}

	if !follow {
		return printOnce()
	}

	// One poll per interval, no bursts even after a slow response.
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		if err := printOnce(); err != nil {
			color.Yellow("Poll failed: %v", err)
		}
	}
}

// --- Status Command ---

func runStatus(args []string) error {
	var (
		configPath string
		network    string
	)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			i++
			if i < len(args) {
				configPath = args[i]
			}
		case "--network", "-n":
			i++
			if i < len(args) {
				network = args[i]
			}
		case "--help", "-h":
			fmt.Println(`provider status - display a node's identity and health

Options:
  --config, -c    Path to YAML config file
  --network, -n   Network to query: mainnet or testnet`)
			return nil
		}
	}

	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if network != "" {
		cfg.Network = network
	}

	endpoint, err := selectNode(cfg)
	if err != nil {
		return err
	}

	qc, err := query.New(endpoint.BaseURL, 15*time.Second)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status, err := qc.Status(ctx)
	if err != nil {
		return err
	}

	color.Cyan("Node %s", endpoint.BaseURL)
	fmt.Printf("  Operator: %s\n", status.Operator)
	fmt.Printf("  Network:  %s\n", status.Network)
	fmt.Printf("  Version:  %s\n", status.Version)
	return nil
}
