package firebase

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ILara-wd/firebase-remote-config/internal/health"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

var (
	vendorCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remote_config_relay",
			Name:      "vendor_calls_total",
			Help:      "Remote Config vendor calls by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	vendorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "remote_config_relay",
			Name:      "vendor_call_duration_seconds",
			Help:      "Latency of Remote Config vendor calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// Instrumented records call counts and latency around another TemplateAPI.
type Instrumented struct {
	next TemplateAPI
}

// Instrument wraps api with vendor call metrics.
func Instrument(api TemplateAPI) *Instrumented {
	return &Instrumented{next: api}
}

func observe(op string, start time.Time, err error) {
	vendorCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	vendorCallsTotal.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

func (i *Instrumented) ProjectID() string { return i.next.ProjectID() }

// HealthPing forwards to the wrapped backend's HealthPing when it has one and
// falls back to GetTemplate otherwise.
func (i *Instrumented) HealthPing(ctx context.Context) error {
	start := time.Now()
	var err error
	if p, ok := i.next.(health.HealthPinger); ok {
		err = p.HealthPing(ctx)
	} else {
		_, err = i.next.GetTemplate(ctx)
	}
	observe("health_ping", start, err)
	return err
}

func (i *Instrumented) GetTemplate(ctx context.Context) (*model.Template, error) {
	start := time.Now()
	tpl, err := i.next.GetTemplate(ctx)
	observe("get_template", start, err)
	return tpl, err
}

func (i *Instrumented) PublishTemplate(ctx context.Context, in *model.Template) (*model.Template, error) {
	start := time.Now()
	tpl, err := i.next.PublishTemplate(ctx, in)
	observe("publish_template", start, err)
	return tpl, err
}

func (i *Instrumented) ListVersions(ctx context.Context, pageSize int) ([]model.Version, error) {
	start := time.Now()
	vs, err := i.next.ListVersions(ctx, pageSize)
	observe("list_versions", start, err)
	return vs, err
}

func (i *Instrumented) Rollback(ctx context.Context, v model.VersionNumber) (*model.Template, error) {
	start := time.Now()
	tpl, err := i.next.Rollback(ctx, v)
	observe("rollback", start, err)
	return tpl, err
}
