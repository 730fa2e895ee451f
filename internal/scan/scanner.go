// Package scan reconciles endpoint health, chain height, and upgrade-plan
// data into per-network results.
//
// For each network the scanner probes the registry-listed RPC and REST
// endpoints, reads the current height from the first working RPC server,
// then walks the healthy REST servers until one yields an upgrade whose
// target height is still ahead of the chain.
package scan

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/cosmoswatch/upgradewatch/internal/core/domain"
	"github.com/cosmoswatch/upgradewatch/internal/metrics"
	"github.com/cosmoswatch/upgradewatch/internal/registry"
)

// Prober selects the usable subset of a candidate endpoint list.
type Prober interface {
	HealthyEndpoints(ctx context.Context, endpoints []domain.Endpoint) []domain.Endpoint
}

// UpgradeReader queries individual nodes for height and upgrade data.
type UpgradeReader interface {
	LatestBlockHeight(ctx context.Context, rpcURL string) int64
	ActiveUpgradeProposals(ctx context.Context, restURL string) (*domain.UpgradeInfo, error)
	CurrentUpgradePlan(ctx context.Context, restURL string) (*domain.UpgradeInfo, error)
	NodeVersion(ctx context.Context, restURL string) (string, error)
}

// Registry supplies the candidate endpoint lists per network.
type Registry interface {
	Endpoints(ctx context.Context, networkType domain.NetworkType, network string) (registry.Endpoints, error)
}

// Request is the inbound batch payload: network names per group.
type Request struct {
	Mainnets []string `json:"MAINNETS"`
	Testnets []string `json:"TESTNETS"`
}

// Scanner runs the per-network reconciliation and batch orchestration.
type Scanner struct {
	prober    Prober
	reader    UpgradeReader
	registry  Registry
	blacklist map[string]struct{}
	shuffle   func(n int, swap func(i, j int))
	log       *slog.Logger
}

// NewScanner creates a scanner. blacklist lists REST addresses that are
// never queried (known chronically failing servers).
func NewScanner(prober Prober, reader UpgradeReader, reg Registry, blacklist []string, logger *slog.Logger) *Scanner {
	bl := make(map[string]struct{}, len(blacklist))
	for _, addr := range blacklist {
		bl[addr] = struct{}{}
	}
	return &Scanner{
		prober:    prober,
		reader:    reader,
		registry:  reg,
		blacklist: bl,
		shuffle:   rand.Shuffle,
		log:       logger,
	}
}

// ScanNetwork reconciles one network into a result record. It never
// fails: every component failure degrades into sentinel fields.
func (s *Scanner) ScanNetwork(ctx context.Context, networkType domain.NetworkType, network string) domain.NetworkResult {
	result := domain.NetworkResult{
		Type:              networkType,
		Network:           network,
		LatestBlockHeight: domain.HeightUnknown,
	}

	eps, err := s.registry.Endpoints(ctx, networkType, network)
	if err != nil {
		s.log.Warn("registry lookup failed", "network", network, "error", err)
	}
	s.log.Debug("endpoints discovered",
		"network", network, "rest", len(eps.REST), "rpc", len(eps.RPC))

	healthyRPC := s.prober.HealthyEndpoints(ctx, eps.RPC)
	healthyREST := s.prober.HealthyEndpoints(ctx, eps.REST)

	// Randomize to spread load across registry-listed providers.
	s.shuffleEndpoints(healthyRPC)
	s.shuffleEndpoints(healthyREST)

	for _, ep := range healthyRPC {
		result.LatestBlockHeight = s.reader.LatestBlockHeight(ctx, ep.Address)
		if result.LatestBlockHeight > 0 {
			result.RPCServer = ep.Address
			break
		}
	}

	s.shuffleEndpoints(healthyREST)

	for i, ep := range healthyREST {
		if _, skip := s.blacklist[ep.Address]; skip {
			continue
		}

		active, err := s.reader.ActiveUpgradeProposals(ctx, ep.Address)
		var current *domain.UpgradeInfo
		if err == nil {
			current, err = s.reader.CurrentUpgradePlan(ctx, ep.Address)
		}
		if err != nil {
			if i+1 < len(healthyREST) {
				s.log.Warn("rest endpoint failed, trying next",
					"network", network, "endpoint", ep.Address, "error", err)
				continue
			}
			s.log.Warn("rest endpoint failed, no endpoints left",
				"network", network, "endpoint", ep.Address, "error", err)
			break
		}

		accepted, source := pickUpgrade(active, current, result.LatestBlockHeight)
		if accepted == nil {
			continue
		}

		height := accepted.Height
		result.UpgradeBlockHeight = &height
		result.Version = accepted.Version
		result.Source = source
		result.UpgradeFound = true
		metrics.UpgradesDetected.WithLabelValues(source).Inc()
		s.logNodeVersion(ctx, network, ep.Address)
		break
	}

	return result
}

// ScanAll runs the reconciler over every requested network, sequentially,
// and returns the combined result list with upgrades sorted first.
func (s *Scanner) ScanAll(ctx context.Context, req Request) []domain.NetworkResult {
	groups := []struct {
		networkType domain.NetworkType
		networks    []string
	}{
		{domain.Mainnet, req.Mainnets},
		{domain.Testnet, req.Testnets},
	}

	results := make([]domain.NetworkResult, 0, len(req.Mainnets)+len(req.Testnets))
	for _, g := range groups {
		for _, network := range g.networks {
			start := time.Now()
			result := s.ScanNetwork(ctx, g.networkType, network)
			metrics.ScanDuration.Observe(time.Since(start).Seconds())
			s.log.Info("network scanned",
				"network", network,
				"type", g.networkType,
				"upgrade_found", result.UpgradeFound,
				"latest_block_height", result.LatestBlockHeight)
			results = append(results, result)
		}
	}

	sortUpgradesFirst(results)
	return results
}

// pickUpgrade prefers the active-proposal result over the current plan.
// Either is accepted only when its target height is still ahead of the
// chain; a past-height upgrade is stale and reported by neither.
func pickUpgrade(active, current *domain.UpgradeInfo, latestHeight int64) (*domain.UpgradeInfo, string) {
	if usable(active, latestHeight) {
		return active, domain.SourceActiveProposals
	}
	if usable(current, latestHeight) {
		return current, domain.SourceCurrentPlan
	}
	return nil, ""
}

func usable(info *domain.UpgradeInfo, latestHeight int64) bool {
	return info != nil && info.Version != "" && info.Height > latestHeight
}

// sortUpgradesFirst stable-sorts so records with an upgrade precede those
// without, preserving relative order within each group.
func sortUpgradesFirst(results []domain.NetworkResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].UpgradeFound && !results[j].UpgradeFound
	})
}

func (s *Scanner) shuffleEndpoints(endpoints []domain.Endpoint) {
	s.shuffle(len(endpoints), func(i, j int) {
		endpoints[i], endpoints[j] = endpoints[j], endpoints[i]
	})
}

// logNodeVersion reports the application version of the node that
// supplied an accepted upgrade. Debug-level only; failures are ignored.
func (s *Scanner) logNodeVersion(ctx context.Context, network, restURL string) {
	if !s.log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	version, err := s.reader.NodeVersion(ctx, restURL)
	if err != nil {
		s.log.Debug("node version unavailable",
			"network", network, "endpoint", restURL, "error", err)
		return
	}
	s.log.Debug("upgrade reported by node",
		"network", network, "endpoint", restURL, "app_version", version)
}
