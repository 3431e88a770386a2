// Package mcp serves the relay's template operations as MCP tools.
package mcp

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ILara-wd/firebase-remote-config/client"
	"github.com/ILara-wd/firebase-remote-config/mcp/internal/handlers"
)

// Config is read from RCADMIN_MCP_* environment variables.
type Config struct {
	RelayURL        string        `envconfig:"RELAY_URL" default:"http://localhost:3001"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ServerName      string        `envconfig:"SERVER_NAME" default:"rcadmin-mcp"`
	ServerVersion   string        `envconfig:"SERVER_VERSION" default:"1.0.0"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":3002"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	HTTPReadTimeout time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	HTTPIdleTimeout time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
	Stdio           *bool         `envconfig:"STDIO"`
}

// LoadConfig reads the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("RCADMIN_MCP", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type toolRegisterer interface {
	RegisterTools(s *server.MCPServer) error
}

// NewServer builds an MCP server with every tool registered against c.
func NewServer(c *client.Client, name, version string) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
	)
	for _, h := range []toolRegisterer{
		handlers.NewTemplateHandler(c),
		handlers.NewProjectHandler(c),
	} {
		if err := h.RegisterTools(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// RunMCPServer serves over stdio when launched by another process, otherwise
// over streamable HTTP.
func RunMCPServer(cfg *Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	// stdout carries the MCP protocol on stdio.
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Caller().Logger()

	rc, err := client.New(cfg.RelayURL)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed to create relay client")
		return err
	}
	s, err := NewServer(rc, cfg.ServerName, cfg.ServerVersion)
	if err != nil {
		return err
	}

	if shouldUseStdio(cfg) {
		log.Info().Str("relay_url", cfg.RelayURL).Msg("Starting rcadmin MCP server (stdio transport)")
		return server.ServeStdio(s)
	}

	streamSrv := server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath("/mcp"),
		server.WithHeartbeatInterval(30*time.Second),
	)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      streamSrv,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("relay_url", cfg.RelayURL).Msg("Starting rcadmin MCP server (Streamable HTTP)")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down MCP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during HTTP server shutdown")
	}
	if err := streamSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during MCP server shutdown")
	}
	return nil
}

func shouldUseStdio(cfg *Config) bool {
	if cfg.Stdio != nil {
		return *cfg.Stdio
	}
	// Launched by another process when stdin is not a terminal.
	if fi, err := os.Stdin.Stat(); err == nil {
		return (fi.Mode() & os.ModeCharDevice) == 0
	}
	return false
}
