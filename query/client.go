package query

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client issues read-only queries against one smart node.
type Client struct {
	base *url.URL
	http *http.Client
}

// New builds a client for the node's base address. A non-positive timeout
// leaves the request bound only by the caller's context.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("query: invalid base address %q", baseURL)
	}
	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// Pool is one liquidity pool as reported by the node.
type Pool struct {
	ID        string  `json:"id"`
	BaseToken string  `json:"baseToken"`
	SwapToken string  `json:"swapToken"`
	Price     float64 `json:"price"`
}

// NodeStatus is the node's self-reported state.
type NodeStatus struct {
	Operator string `json:"operator"`
	Network  string `json:"network"`
	Version  string `json:"version"`
}

// Pools lists the node's liquidity pools.
func (c *Client) Pools(ctx context.Context) ([]Pool, error) {
	var pools []Pool
	if err := c.get(ctx, "/pools", &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

// Status fetches the node's status document.
func (c *Client) Status(ctx context.Context) (*NodeStatus, error) {
	var status NodeStatus
	if err := c.get(ctx, "/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("query: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("query: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query: %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("query: decode %s: %w", path, err)
	}
	return nil
}
