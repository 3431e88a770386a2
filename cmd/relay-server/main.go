package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ILara-wd/firebase-remote-config/internal/config"
	"github.com/ILara-wd/firebase-remote-config/relayservice"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("relay-server exited with error")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port    int
		backend string
		creds   string
	)
	cmd := &cobra.Command{
		Use:           "relay-server",
		Short:         "Relay HTTP requests to the Firebase Remote Config API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// Flags win over the environment.
			if cmd.Flags().Changed("port") {
				cfg.HTTPPort = port
			}
			if cmd.Flags().Changed("backend") {
				cfg.Backend = backend
			}
			if cmd.Flags().Changed("credentials") {
				cfg.CredentialsFile = creds
			}
			if err := cfg.ResolveDefaults(); err != nil {
				return err
			}
			cfg.LogSummary()
			return relayservice.Run(context.Background(), cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (overrides RELAY_PORT)")
	cmd.Flags().StringVar(&backend, "backend", "firebase", "Template backend: firebase or memory (overrides RELAY_BACKEND)")
	cmd.Flags().StringVar(&creds, "credentials", "", "Service account key file (overrides RELAY_CREDENTIALS_FILE)")
	return cmd
}
