// Package probe implements concurrent liveness checks against
// registry-listed node endpoints.
package probe

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/cosmoswatch/upgradewatch/internal/core/domain"
	"github.com/cosmoswatch/upgradewatch/internal/metrics"
)

// Config holds prober settings.
type Config struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxWorkers int           `yaml:"max_workers"`
	MaxHealthy int           `yaml:"max_healthy"`
}

// Prober checks endpoint liveness with bounded concurrency and caps the
// healthy subset to bound downstream query volume.
type Prober struct {
	client     *http.Client
	maxWorkers int
	maxHealthy int
	log        *slog.Logger
}

// NewProber creates a prober. Certificate validation is disabled because
// registry endpoints commonly serve self-signed or mismatched certs.
func NewProber(cfg Config, logger *slog.Logger) *Prober {
	return &Prober{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
			},
		},
		maxWorkers: cfg.MaxWorkers,
		maxHealthy: cfg.MaxHealthy,
		log:        logger,
	}
}

// HealthyEndpoints probes all endpoints concurrently and returns the
// healthy subset, truncated to the configured cap.
func (p *Prober) HealthyEndpoints(ctx context.Context, endpoints []domain.Endpoint) []domain.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}

	alive := make([]bool, len(endpoints))
	wp := workerpool.New(p.maxWorkers)
	for i := range endpoints {
		i := i
		wp.Submit(func() {
			alive[i] = p.isHealthy(ctx, endpoints[i].Address)
		})
	}
	wp.StopWait()

	var healthy []domain.Endpoint
	for i, ep := range endpoints {
		if !alive[i] {
			continue
		}
		healthy = append(healthy, ep)
		if len(healthy) == p.maxHealthy {
			break
		}
	}

	p.log.Debug("endpoints probed", "total", len(endpoints), "healthy", len(healthy))
	return healthy
}

// isHealthy reports whether the endpoint answers its liveness path with
// 200 OK within the probe timeout. Probe failures never propagate.
func (p *Prober) isHealthy(ctx context.Context, address string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address+"/health", nil)
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("unhealthy").Inc()
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("unhealthy").Inc()
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		metrics.ProbesTotal.WithLabelValues("unhealthy").Inc()
		return false
	}

	metrics.ProbesTotal.WithLabelValues("healthy").Inc()
	return true
}
