// Package registry fetches per-network endpoint descriptors from a
// Cosmos chain-registry mirror.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/cosmoswatch/upgradewatch/internal/core/domain"
	"github.com/cosmoswatch/upgradewatch/internal/metrics"
)

// Config holds chain-registry client settings.
type Config struct {
	MainnetURL string        `yaml:"mainnet_url"`
	TestnetURL string        `yaml:"testnet_url"`
	Timeout    time.Duration `yaml:"timeout"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// Cache stores fetched registry documents. Implemented by the Redis
// client; nil disables caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Endpoints are the REST and RPC endpoint lists of one network.
type Endpoints struct {
	REST []domain.Endpoint
	RPC  []domain.Endpoint
}

// Client reads chain.json documents from the registry base URLs.
type Client struct {
	mainnetURL string
	testnetURL string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	log        *slog.Logger
}

// NewClient creates a registry client. cache may be nil.
func NewClient(cfg Config, cache Cache, logger *slog.Logger) *Client {
	return &Client{
		mainnetURL: cfg.MainnetURL,
		testnetURL: cfg.TestnetURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		log:        logger,
	}
}

// Endpoints returns the REST and RPC endpoint lists registered for a
// network. Callers treat a failed lookup as "no endpoints known".
func (c *Client) Endpoints(ctx context.Context, networkType domain.NetworkType, network string) (Endpoints, error) {
	key := fmt.Sprintf("chain_registry:%s:%s", networkType, network)

	if c.cache != nil {
		if body, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			metrics.RegistryFetchesTotal.WithLabelValues("cache_hit").Inc()
			return parseChainDocument(body)
		} else if err != nil {
			c.log.Warn("registry cache read failed", "network", network, "error", err)
		}
	}

	url := fmt.Sprintf("%s/%s/chain.json", c.baseFor(networkType), network)

	var body []byte
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, err := c.fetch(ctx, url)
		if err != nil {
			return retry.RetryableError(err)
		}
		body = b
		return nil
	})
	if err != nil {
		metrics.RegistryFetchesTotal.WithLabelValues("error").Inc()
		return Endpoints{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	metrics.RegistryFetchesTotal.WithLabelValues("fetched").Inc()

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
			c.log.Warn("registry cache write failed", "network", network, "error", err)
		}
	}

	return parseChainDocument(body)
}

func (c *Client) baseFor(networkType domain.NetworkType) string {
	if networkType == domain.Testnet {
		return c.testnetURL
	}
	return c.mainnetURL
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseChainDocument extracts the endpoint lists from a chain.json body.
// Parsing is best effort; unknown fields are ignored.
func parseChainDocument(body []byte) (Endpoints, error) {
	var doc struct {
		APIs struct {
			REST []domain.Endpoint `json:"rest"`
			RPC  []domain.Endpoint `json:"rpc"`
		} `json:"apis"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return Endpoints{}, fmt.Errorf("parse chain document: %w", err)
	}
	return Endpoints{REST: doc.APIs.REST, RPC: doc.APIs.RPC}, nil
}
