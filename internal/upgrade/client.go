// Package upgrade queries Cosmos nodes for chain height and pending
// software-upgrade data.
//
// Upgrade queries distinguish three outcomes: a non-nil UpgradeInfo
// (upgrade found), nil with nil error (definitively no upgrade), and a
// non-nil error (the endpoint could not answer and another one should be
// tried).
package upgrade

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cosmoswatch/upgradewatch/internal/core/domain"
	"github.com/cosmoswatch/upgradewatch/internal/metrics"
)

const (
	statusPath          = "/status"
	nodeInfoPath        = "/node_info"
	activeProposalsPath = "/cosmos/gov/v1beta1/proposals?proposal_status=2"
	currentPlanPath     = "/cosmos/upgrade/v1beta1/current_plan"

	softwareUpgradeProposalType = "/cosmos.upgrade.v1beta1.SoftwareUpgradeProposal"
)

// Config holds query settings.
type Config struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Client reads chain height and upgrade-plan data from Cosmos nodes.
type Client struct {
	// restClient skips certificate validation: registry REST endpoints
	// commonly serve self-signed or mismatched certs.
	restClient *http.Client
	rpcClient  *http.Client
	log        *slog.Logger
}

// NewClient creates a reader with the given per-call timeout.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		restClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
			},
		},
		rpcClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: logger,
	}
}

type statusResponse struct {
	Result struct {
		SyncInfo struct {
			LatestBlockHeight string `json:"latest_block_height"`
		} `json:"sync_info"`
	} `json:"result"`
}

type planJSON struct {
	Name   string `json:"name"`
	Height string `json:"height"`
}

type proposalsResponse struct {
	Proposals []struct {
		Content struct {
			Type        string   `json:"@type"`
			Description string   `json:"description"`
			Plan        planJSON `json:"plan"`
		} `json:"content"`
	} `json:"proposals"`
}

type currentPlanResponse struct {
	Plan *planJSON `json:"plan"`
}

type nodeInfoResponse struct {
	ApplicationVersion struct {
		Version string `json:"version"`
	} `json:"application_version"`
}

// LatestBlockHeight returns the node's latest block height, or
// domain.HeightUnknown when the endpoint cannot be queried. It never
// returns an error; the sentinel is the failure signal.
func (c *Client) LatestBlockHeight(ctx context.Context, rpcURL string) int64 {
	resp, err := c.get(ctx, c.rpcClient, rpcURL+statusPath)
	if err != nil {
		metrics.HeightQueriesTotal.WithLabelValues("failed").Inc()
		return domain.HeightUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.HeightQueriesTotal.WithLabelValues("failed").Inc()
		return domain.HeightUnknown
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		metrics.HeightQueriesTotal.WithLabelValues("failed").Inc()
		return domain.HeightUnknown
	}

	raw := status.Result.SyncInfo.LatestBlockHeight
	if raw == "" {
		metrics.HeightQueriesTotal.WithLabelValues("ok").Inc()
		return 0
	}
	height, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || height < 0 {
		metrics.HeightQueriesTotal.WithLabelValues("failed").Inc()
		return domain.HeightUnknown
	}

	metrics.HeightQueriesTotal.WithLabelValues("ok").Inc()
	return height
}

// ActiveUpgradeProposals scans voting-period governance proposals for a
// software-upgrade proposal carrying an extractable version. A 501
// response means the chain build predates the query and is answered with
// nil, nil rather than an error.
func (c *Client) ActiveUpgradeProposals(ctx context.Context, restURL string) (*domain.UpgradeInfo, error) {
	resp, err := c.get(ctx, c.restClient, restURL+activeProposalsPath)
	if err != nil {
		metrics.UpgradeQueriesTotal.WithLabelValues("active_proposals", "failed").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotImplemented {
		metrics.UpgradeQueriesTotal.WithLabelValues("active_proposals", "unsupported").Inc()
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		metrics.UpgradeQueriesTotal.WithLabelValues("active_proposals", "failed").Inc()
		return nil, fmt.Errorf("proposals query %s: unexpected status %d", restURL, resp.StatusCode)
	}

	var proposals proposalsResponse
	if err := json.NewDecoder(resp.Body).Decode(&proposals); err != nil {
		metrics.UpgradeQueriesTotal.WithLabelValues("active_proposals", "failed").Inc()
		return nil, fmt.Errorf("decode proposals from %s: %w", restURL, err)
	}

	metrics.UpgradeQueriesTotal.WithLabelValues("active_proposals", "ok").Inc()

	for _, p := range proposals.Proposals {
		if p.Content.Type != softwareUpgradeProposalType {
			continue
		}
		// The more specific match between plan name and description wins.
		version := preferLonger(
			ExtractVersion(p.Content.Plan.Name),
			ExtractVersion(p.Content.Description),
		)
		if version == "" {
			continue
		}
		return &domain.UpgradeInfo{
			Version: version,
			Height:  parseHeight(p.Content.Plan.Height),
		}, nil
	}
	return nil, nil
}

// CurrentUpgradePlan returns the chain's currently scheduled upgrade, or
// nil, nil when no plan is scheduled or the plan name carries no version.
func (c *Client) CurrentUpgradePlan(ctx context.Context, restURL string) (*domain.UpgradeInfo, error) {
	resp, err := c.get(ctx, c.restClient, restURL+currentPlanPath)
	if err != nil {
		metrics.UpgradeQueriesTotal.WithLabelValues("current_plan", "failed").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpgradeQueriesTotal.WithLabelValues("current_plan", "failed").Inc()
		return nil, fmt.Errorf("current plan query %s: unexpected status %d", restURL, resp.StatusCode)
	}

	var current currentPlanResponse
	if err := json.NewDecoder(resp.Body).Decode(&current); err != nil {
		metrics.UpgradeQueriesTotal.WithLabelValues("current_plan", "failed").Inc()
		return nil, fmt.Errorf("decode current plan from %s: %w", restURL, err)
	}

	metrics.UpgradeQueriesTotal.WithLabelValues("current_plan", "ok").Inc()

	if current.Plan == nil {
		return nil, nil
	}
	version := ExtractVersion(current.Plan.Name)
	if version == "" {
		return nil, nil
	}
	return &domain.UpgradeInfo{
		Version: version,
		Height:  parseHeight(current.Plan.Height),
	}, nil
}

// NodeVersion returns the application version reported by the REST
// endpoint's node-info query.
func (c *Client) NodeVersion(ctx context.Context, restURL string) (string, error) {
	resp, err := c.get(ctx, c.restClient, restURL+nodeInfoPath)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("node info query %s: unexpected status %d", restURL, resp.StatusCode)
	}

	var info nodeInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode node info from %s: %w", restURL, err)
	}
	return info.ApplicationVersion.Version, nil
}

func (c *Client) get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", url, err)
	}
	return resp, nil
}

// parseHeight parses a Cosmos height string, defaulting to 0 on failure.
func parseHeight(s string) int64 {
	height, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return height
}
