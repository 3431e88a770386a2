package firebase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ILara-wd/firebase-remote-config/internal/health"
)

// VendorHealthChecker tracks Remote Config API reachability. It uses the
// backend's HealthPing when available and GetTemplate otherwise.
type VendorHealthChecker struct {
	api          TemplateAPI
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

func NewVendorHealthChecker(api TemplateAPI, log zerolog.Logger, probeTimeout time.Duration) *VendorHealthChecker {
	hc := &VendorHealthChecker{api: api, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0) // unhealthy until the first successful probe
	return hc
}

func (hc *VendorHealthChecker) Name() string { return "remote_config" }

// IsHealthy returns the cached health status (non-blocking).
func (hc *VendorHealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

// MarkHealthy records a successful check made elsewhere, such as the startup
// reachability check.
func (hc *VendorHealthChecker) MarkHealthy() { hc.healthy.Store(1) }

// Start re-checks on every tick. The first status must already be set through
// Check or MarkHealthy.
func (hc *VendorHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.Check(ctx)
		}
	}
}

// Check runs one probe and updates the cached status.
func (hc *VendorHealthChecker) Check(ctx context.Context) bool {
	to := hc.probeTimeout
	if to <= 0 {
		to = 5 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	var err error
	if p, ok := hc.api.(health.HealthPinger); ok {
		err = p.HealthPing(probeCtx)
	} else {
		_, err = hc.api.GetTemplate(probeCtx)
	}
	if err != nil {
		hc.log.Error().Stack().
			Str("checker", hc.Name()).
			Err(err).
			Msg("vendor health check failed")
		hc.healthy.Store(0)
		return false
	}
	hc.healthy.Store(1)
	return true
}
