package health

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers (the vendor API today).
// IsHealthy must be cheap; it is read on every /health request.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker folds component checkers into one service status.
// The status is computed from the components on each call, so it is never
// staler than the components themselves.
type ServiceHealthChecker struct {
	deps []HealthChecker
	log  zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{deps: deps, log: log}
}

// IsHealthy reports whether every component is healthy.
func (h *ServiceHealthChecker) IsHealthy() bool {
	for _, c := range h.deps {
		if !c.IsHealthy() {
			return false
		}
	}
	return true
}

// Unhealthy returns the names of components currently reporting down.
func (h *ServiceHealthChecker) Unhealthy() []string {
	var down []string
	for _, c := range h.deps {
		if !c.IsHealthy() {
			down = append(down, c.Name())
		}
	}
	return down
}

// Watch logs UP/DOWN transitions until ctx is done. It does not drive the
// status; components update themselves from their own Start loops.
func (h *ServiceHealthChecker) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := h.logTransition(nil)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev = h.logTransition(prev)
		}
	}
}

func (h *ServiceHealthChecker) logTransition(prev *bool) *bool {
	cur := h.IsHealthy()
	if prev != nil && *prev == cur {
		return prev
	}
	if cur {
		h.log.Info().Msg("service health: UP")
	} else {
		h.log.Warn().Strs("down", h.Unhealthy()).Msg("service health: DOWN")
	}
	return &cur
}
