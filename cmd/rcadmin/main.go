package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ILara-wd/firebase-remote-config/client"
	"github.com/ILara-wd/firebase-remote-config/consumer"
	"github.com/ILara-wd/firebase-remote-config/form"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
	"github.com/ILara-wd/firebase-remote-config/internal/prompt"
)

var relayURL string
var debug bool

const requestTimeout = 15 * time.Second

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rcadmin",
		Short:         "Manage Firebase Remote Config through the relay server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: "2006-01-02 15:04:05",
				NoColor:    true,
			})
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				log.Debug().Msg("debug logging enabled")
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	defaultURL := getEnv("RCADMIN_RELAY_URL", "http://localhost:3001")
	rootCmd.PersistentFlags().StringVar(&relayURL, "relay-url", defaultURL, "Base URL of the Remote Config relay")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newProjectInfoCmd())
	rootCmd.AddCommand(newGetTemplateCmd())
	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newSaveCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newPublishCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newVersionsCmd())
	rootCmd.AddCommand(newRollbackCmd())
	rootCmd.AddCommand(newGetCmd())

	return rootCmd
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newClient() (*client.Client, error) {
	return client.New(relayURL, client.WithDebugLogging(debug))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the relay health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			h, err := c.Health(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (vendor %s) at %s\n", h.Service, h.Status, h.Vendor, h.Timestamp)
			return nil
		},
	}
}

func newProjectInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "project-info",
		Short: "Show the Firebase project the relay is bound to",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			info, err := c.ProjectInfo(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project: %s\nService account: %s\nStatus: %s\n", info.ProjectID, info.ClientEmail, info.Status)
			return nil
		},
	}
}

func newGetTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-template",
		Short: "Print the active template as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			tpl, err := c.GetTemplate(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tpl)
		},
	}
}

func newLoadCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the active template into form rows and write them as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			f := form.NewEmpty(c, form.WithLogger(log.Logger))
			tpl, err := f.Load(ctx)
			if err != nil {
				return err
			}
			log.Debug().Int("rows", len(f.Rows())).Str("version", tpl.VersionNumber.String()).Msg("template loaded")
			if out == "" || out == "-" {
				return f.Export(cmd.OutOrStdout())
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := f.Export(file); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d parameters (version %s) into %s\n", len(f.Rows()), tpl.VersionNumber, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newSaveCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Submit form rows from a YAML file to the relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			in, err := os.Open(file)
			if err != nil {
				return err
			}
			defer in.Close()
			f := form.NewEmpty(c, form.WithLogger(log.Logger))
			if err := f.Import(in); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			res, err := f.Submit(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Remote Config updated. Version: %s\n", res.VersionNumber)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file written by load (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// parseSet splits key=value[:type]. The suffix is a type only when it names one.
func parseSet(s string) (client.ConfigEntry, error) {
	key, rest, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return client.ConfigEntry{}, fmt.Errorf("invalid --set %q: want key=value[:type]", s)
	}
	entry := client.ConfigEntry{Key: strings.TrimSpace(key), Value: rest, ValueType: "string"}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		suffix := rest[i+1:]
		for _, vt := range model.ValueTypes {
			if strings.EqualFold(suffix, vt.Lower()) {
				entry.Value = rest[:i]
				entry.ValueType = vt.Lower()
				break
			}
		}
	}
	return entry, nil
}

func newUpdateCmd() *cobra.Command {
	var sets []string
	var etag string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Merge parameters into the template and publish",
		Example: `  rcadmin update --set versionName=1.0.1 --set forceUpdate=true:boolean
  rcadmin update --set 'app_config={"dark":true}:json'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sets) == 0 {
				return errors.New("at least one --set is required")
			}
			entries := make([]client.ConfigEntry, 0, len(sets))
			for _, s := range sets {
				e, err := parseSet(s)
				if err != nil {
					return err
				}
				entries = append(entries, e)
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			res, err := c.UpdateConfigs(ctx, entries, etag)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Parameter as key=value[:type]; repeatable")
	cmd.Flags().StringVar(&etag, "etag", "", "Reject the update if the template changed since this etag")
	return cmd
}

func newPublishCmd() *cobra.Command {
	var etag string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Republish the active template unchanged",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			res, err := c.PublishTemplate(ctx, etag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template published. Version: %s\n", res.VersionNumber)
			return nil
		},
	}
	cmd.Flags().StringVar(&etag, "etag", "", "Reject the publish if the template changed since this etag")
	return cmd
}

func newEditCmd() *cobra.Command {
	var load bool
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit parameters interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			f := form.New(c, form.WithLogger(log.Logger))
			if load {
				if _, err := f.Load(cmd.Context()); err != nil {
					return err
				}
			}
			err = prompt.NewEditor(prompt.NewSurveyDriver(cmd.OutOrStdout()), f).Run(cmd.Context())
			if errors.Is(err, prompt.ErrAborted) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&load, "load", false, "Start from the active template instead of the default rows")
	return cmd
}

func newVersionsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List published template versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			vs, err := c.ListVersions(ctx, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, v := range vs {
				ts := ""
				if v.UpdateTime != nil {
					ts = v.UpdateTime.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.VersionNumber, v.UpdateType, ts, v.Description)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum versions to list")
	return cmd
}

func newRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <version>",
		Short: "Republish a previous version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid version %q", args[0])
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			res, err := c.Rollback(ctx, client.VersionNumber(n))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	var valueType, cache string
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Fetch, activate and print one parameter as an app would read it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vt, err := model.ParseValueType(valueType)
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			opts := []consumer.Option{consumer.WithLogger(log.Logger)}
			if cache != "" {
				store, err := consumer.OpenSQLiteStore(cache)
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, consumer.WithStore(store))
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			rc, err := consumer.New(ctx, consumer.NewRelayFetcher(c), opts...)
			if err != nil {
				return err
			}
			b := consumer.Use(ctx, rc, args[0], vt)
			defer b.Close()
			select {
			case <-b.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
			if !b.Resolved() {
				return fmt.Errorf("value for %q is still pending: fetch failed", args[0])
			}
			if vt == model.ValueTypeJSON {
				return printJSON(cmd.OutOrStdout(), b.Value())
			}
			fmt.Fprintln(cmd.OutOrStdout(), b.Value())
			return nil
		},
	}
	cmd.Flags().StringVarP(&valueType, "type", "t", "string", "Value type: string|number|boolean|json")
	cmd.Flags().StringVar(&cache, "cache", "", "SQLite file to persist fetched config between runs")
	return cmd
}
