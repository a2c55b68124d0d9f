package registry

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
)

// Network identifies one of the two smart-node networks.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// Valid reports whether n names a known network.
func (n Network) Valid() bool { return n == Mainnet || n == Testnet }

var (
	// ErrInvalidNetwork is returned for a network key outside the known
	// set.
	ErrInvalidNetwork = errors.New("registry: unknown network")

	// ErrEmptyNetwork is returned when a known network has no endpoints.
	// The shipped catalog is never empty; the contract still holds for
	// arbitrary configuration.
	ErrEmptyNetwork = errors.New("registry: no endpoints for network")
)

// Endpoint describes one smart node.
type Endpoint struct {
	// IdentityKey is the node operator's ed25519 public key.
	IdentityKey ed25519.PublicKey

	// Operator is the node operator's account id.
	Operator string

	// BaseURL is the node's http(s) base address; the duplex gateway and
	// the read-only query surface both derive from it.
	BaseURL string
}

// Registry is an immutable catalog of endpoints partitioned by network.
type Registry struct {
	endpoints map[Network][]Endpoint
}

// New validates a catalog and builds a registry from it. Within a network,
// base addresses must be unique and parseable; operators may repeat.
func New(catalog map[Network][]Endpoint) (*Registry, error) {
	eps := make(map[Network][]Endpoint, len(catalog))
	for network, nodes := range catalog {
		if !network.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, network)
		}
		seen := make(map[string]struct{}, len(nodes))
		for _, ep := range nodes {
			u, err := url.Parse(ep.BaseURL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return nil, fmt.Errorf("registry: invalid base address %q on %s", ep.BaseURL, network)
			}
			if _, dup := seen[ep.BaseURL]; dup {
				return nil, fmt.Errorf("registry: duplicate base address %q on %s", ep.BaseURL, network)
			}
			seen[ep.BaseURL] = struct{}{}
			if ep.Operator == "" {
				return nil, fmt.Errorf("registry: endpoint %q missing operator", ep.BaseURL)
			}
		}
		eps[network] = append([]Endpoint(nil), nodes...)
	}
	return &Registry{endpoints: eps}, nil
}

// Select picks one endpoint of the network uniformly at random.
func (r *Registry) Select(network Network) (Endpoint, error) {
	if !network.Valid() {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidNetwork, network)
	}
	nodes := r.endpoints[network]
	if len(nodes) == 0 {
		return Endpoint{}, fmt.Errorf("%w: %s", ErrEmptyNetwork, network)
	}
	return nodes[rand.Intn(len(nodes))], nil
}

// Endpoints returns a copy of the network's candidate set.
func (r *Registry) Endpoints(network Network) []Endpoint {
	return append([]Endpoint(nil), r.endpoints[network]...)
}
