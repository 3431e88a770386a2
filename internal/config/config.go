package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

const (
	BackendFirebase = "firebase"
	BackendMemory   = "memory"
)

// Config holds the relay configuration.
// Environment variables are parsed from the RELAY_ prefix, e.g. RELAY_PORT.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	ServiceName string      `envconfig:"SERVICE_NAME" default:"firebase-remote-config-backend"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort        int           `envconfig:"PORT" default:"3001"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:5174,http://localhost:5175,http://localhost:5176,http://localhost:3000,http://localhost:4173,http://localhost:8080"`
	RateLimitPerMin int           `envconfig:"RATE_LIMIT_PER_MIN" default:"300"`

	// Vendor Configuration
	// Backend selects the template source: firebase (REST API) or memory (local, for dev and tests).
	Backend         string        `envconfig:"BACKEND" default:"firebase"`
	CredentialsFile string        `envconfig:"CREDENTIALS_FILE" default:""`
	ProjectID       string        `envconfig:"PROJECT_ID" default:""`
	VendorBaseURL   string        `envconfig:"VENDOR_BASE_URL" default:"https://firebaseremoteconfig.googleapis.com"`
	VendorTimeout   time.Duration `envconfig:"VENDOR_TIMEOUT" default:"30s"`

	// Startup and health probing
	StartupProbe         bool          `envconfig:"STARTUP_PROBE" default:"true"`
	StartupProbeAttempts uint64        `envconfig:"STARTUP_PROBE_ATTEMPTS" default:"3"`
	HealthInterval       time.Duration `envconfig:"HEALTH_INTERVAL" default:"30s"`
	HealthProbeTimeout   time.Duration `envconfig:"HEALTH_PROBE_TIMEOUT" default:"5s"`
}

// ResolveDefaults validates the backend selection and its required settings.
// Production refuses the in-memory backend.
func (c *Config) ResolveDefaults() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case "", BackendFirebase:
		c.Backend = BackendFirebase
		if c.CredentialsFile == "" {
			return fmt.Errorf("CREDENTIALS_FILE is required for the %s backend", BackendFirebase)
		}
	case BackendMemory:
		if c.IsProduction() {
			return fmt.Errorf("the %s backend is not allowed in %s", BackendMemory, EnvProduction)
		}
		if c.ProjectID == "" {
			c.ProjectID = "local-project"
		}
	default:
		return fmt.Errorf("unsupported BACKEND: %s", c.Backend)
	}
	if c.HTTPPort <= 0 {
		return fmt.Errorf("invalid PORT: %d", c.HTTPPort)
	}
	return nil
}

// Load reads an optional .env file and then parses RELAY_* environment variables
// without validating them, so callers can apply overrides first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("RELAY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return &cfg, nil
}

// New is Load followed by ResolveDefaults.
func New() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	cfg.LogSummary()
	return cfg, nil
}

// LogSummary logs the effective settings without secrets.
func (c *Config) LogSummary() {
	log.Info().
		Str("environment", string(c.Environment)).
		Str("backend", c.Backend).
		Str("project", c.ProjectID).
		Int("port", c.HTTPPort).
		Bool("credentials_file_present", c.CredentialsFile != "").
		Strs("allowed_origins", c.AllowedOrigins).
		Msg("Configuration loaded")
}

// NewForTesting creates a config backed by the in-memory template store.
func NewForTesting() *Config {
	return &Config{
		Environment:          EnvTesting,
		ServiceName:          "firebase-remote-config-backend",
		LogLevel:             "debug",
		HTTPPort:             3001,
		MaxBodyBytes:         1 << 20,
		ShutdownTimeout:      time.Second,
		AllowedOrigins:       []string{"http://localhost:5173"},
		RateLimitPerMin:      1000,
		Backend:              BackendMemory,
		ProjectID:            "test-project",
		VendorTimeout:        5 * time.Second,
		StartupProbe:         true,
		StartupProbeAttempts: 1,
		HealthInterval:       time.Second,
		HealthProbeTimeout:   time.Second,
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
