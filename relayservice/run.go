package relayservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/ILara-wd/firebase-remote-config/internal/api"
	"github.com/ILara-wd/firebase-remote-config/internal/config"
	"github.com/ILara-wd/firebase-remote-config/internal/firebase"
	"github.com/ILara-wd/firebase-remote-config/internal/health"
	"github.com/ILara-wd/firebase-remote-config/internal/logger"
	"github.com/ILara-wd/firebase-remote-config/internal/services"
)

// Run starts the relay HTTP server and blocks until ctx is cancelled, SIGINT/SIGTERM
// arrives, or the server fails.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.ServiceName).Level(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vendor, info, err := initVendor(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Remote Config client unavailable")
		return err
	}

	reachable := false
	if cfg.StartupProbe {
		if err := probeVendor(ctx, vendor, cfg, log); err != nil {
			log.Error().Stack().Err(err).Msg("startup vendor probe failed")
			return err
		}
		reachable = true
	}

	vendorHealth := startHealthCheckers(ctx, cfg, log, vendor, reachable)
	handler := buildHandler(vendor, info, vendorHealth.IsHealthy, cfg, log)

	ln, err := net.Listen("tcp", cfg.GetHTTPAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GetHTTPAddr(), err)
	}
	return serve(ctx, ln, handler, cfg, log)
}

// initVendor builds the single TemplateAPI handle shared by every request.
func initVendor(ctx context.Context, cfg *config.Config, log zerolog.Logger) (firebase.TemplateAPI, api.ProjectInfo, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn().Str("project", cfg.ProjectID).Msg("Using in-memory Remote Config backend")
		mem := firebase.NewMemoryBackend(cfg.ProjectID, nil)
		return firebase.Instrument(mem), api.ProjectInfo{
			ProjectID:   cfg.ProjectID,
			ClientEmail: "memory@" + cfg.ProjectID + ".local",
		}, nil
	default:
		sa, err := firebase.LoadServiceAccount(cfg.CredentialsFile)
		if err != nil {
			return nil, api.ProjectInfo{}, err
		}
		client, err := firebase.NewClient(ctx, sa, cfg.ProjectID, cfg.VendorBaseURL, cfg.VendorTimeout)
		if err != nil {
			return nil, api.ProjectInfo{}, err
		}
		log.Info().
			Str("project", client.ProjectID()).
			Str("client_email", sa.ClientEmail).
			Msg("Remote Config client initialized")
		return firebase.Instrument(client), api.ProjectInfo{
			ProjectID:   client.ProjectID(),
			ClientEmail: sa.ClientEmail,
		}, nil
	}
}

// probeVendor fetches the template with exponential backoff. Credential and
// permission failures stop retrying immediately.
func probeVendor(ctx context.Context, vendor firebase.TemplateAPI, cfg *config.Config, log zerolog.Logger) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, cfg.StartupProbeAttempts), ctx)

	attempt := 0
	op := func() error {
		attempt++
		probeCtx, cancel := context.WithTimeout(ctx, cfg.HealthProbeTimeout)
		defer cancel()
		tpl, err := vendor.GetTemplate(probeCtx)
		if err != nil {
			var apiErr *firebase.APIError
			if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
				return backoff.Permanent(err)
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("vendor probe failed")
			return err
		}
		log.Info().
			Str("version", tpl.VersionNumber().String()).
			Int("parameters", len(tpl.Parameters)).
			Msg("vendor reachable")
		return nil
	}
	return backoff.Retry(op, policy)
}

// startHealthCheckers sets the first vendor status before any request can read
// it: reachable carries a successful startup check, otherwise one check runs
// inline.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, vendor firebase.TemplateAPI, reachable bool) *health.ServiceHealthChecker {
	vendorChecker := firebase.NewVendorHealthChecker(vendor, log, cfg.HealthProbeTimeout)
	if reachable {
		vendorChecker.MarkHealthy()
	} else {
		vendorChecker.Check(ctx)
	}
	go vendorChecker.Start(ctx, cfg.HealthInterval)

	svcHealth := health.NewServiceHealthChecker(log, vendorChecker)
	go svcHealth.Watch(ctx, cfg.HealthInterval)
	return svcHealth
}

func buildHandler(vendor firebase.TemplateAPI, info api.ProjectInfo, vendorUp func() bool, cfg *config.Config, log zerolog.Logger) http.Handler {
	svc := services.NewTemplateService(vendor, log)
	return api.NewRouter(svc, api.RouterConfig{
		ServiceName:     cfg.ServiceName,
		Info:            info,
		VendorUp:        vendorUp,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		MaxBodyBytes:    cfg.MaxBodyBytes,
	}, log)
}

func newHTTPServer(ctx context.Context, handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// serve runs the server on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, cfg *config.Config, log zerolog.Logger) error {
	server := newHTTPServer(ctx, handler)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server starting")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}
