// Package main is the entry point for the hogcheck CLI, a verification
// client for SMTP-capture test services.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/probekit/hogcheck/internal/capture"
	"github.com/probekit/hogcheck/internal/config"
	"github.com/probekit/hogcheck/internal/mailhog"
	"github.com/probekit/hogcheck/internal/sender"
	smtpsender "github.com/probekit/hogcheck/internal/sender/smtp"
	"github.com/probekit/hogcheck/internal/sender/stdout"
	"github.com/probekit/hogcheck/internal/synth"
	"github.com/probekit/hogcheck/internal/verify"
)

var (
	configPath string
	cfg        *config.Config
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var mismatch *verify.MismatchError
		if errors.As(err, &mismatch) {
			slog.Error("verification failed", "error", err)
			os.Exit(2)
		}
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hogcheck",
		Short:         "Verify an SMTP-capture service end to end",
		Long:          "hogcheck sends synthetic email through an SMTP capture service and confirms delivery through its HTTP JSON API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(configPath)
			if err != nil {
				return err
			}
			setupLogger(cfg.Logging.Level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration file (optional)")

	root.AddCommand(newListCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newRunCmd())
	return root
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List captured messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := mailhog.New(cfg.APIBase, nil)
			list, err := client.ListMessages(cmd.Context(), mailhog.ListParams{
				Start: flagIntPtr(cmd, "start"),
				Limit: flagIntPtr(cmd, "limit"),
			})
			if err != nil {
				return err
			}
			printList(list)
			return nil
		},
	}
	cmd.Flags().Int("start", 0, "page start offset")
	cmd.Flags().Int("limit", 0, "page size limit")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		kindName string
		query    string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search captured messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := mailhog.ParseSearchKind(kindName)
			if err != nil {
				return err
			}

			client := mailhog.New(cfg.APIBase, nil)
			list, err := client.Search(cmd.Context(), mailhog.SearchParams{
				Kind:  kind,
				Query: query,
				Start: flagIntPtr(cmd, "start"),
				Limit: flagIntPtr(cmd, "limit"),
			})
			if err != nil {
				return err
			}
			printList(list)
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "search kind: from, to or containing")
	cmd.Flags().StringVar(&query, "query", "", "search query")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("query")
	cmd.Flags().Int("start", 0, "page start offset")
	cmd.Flags().Int("limit", 0, "page size limit")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		count     int
		kindName  string
		seed      int64
		timeout   time.Duration
		dryRun    bool
		ephemeral bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full verification scenario",
		Long: "Sends synthesized messages to the capture service's SMTP endpoint " +
			"and verifies them through its HTTP API. With --ephemeral, a fresh " +
			"capture instance is provisioned for the run and torn down afterwards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			apiBase := cfg.APIBase
			smtpAddr := cfg.SMTPAddr
			if ephemeral {
				inst, err := capture.Start(ctx, capture.Options{Image: cfg.Image})
				if err != nil {
					return err
				}
				defer func() {
					if err := inst.Terminate(context.Background()); err != nil {
						slog.Warn("failed to terminate capture instance", "id", inst.ID(), "error", err)
					}
				}()
				apiBase = inst.APIBase()
				smtpAddr = inst.SMTPAddr()
				slog.Info("provisioned capture instance",
					"id", inst.ID(),
					"api_base", apiBase,
					"smtp_addr", smtpAddr,
				)
			}

			var snd sender.Sender = smtpsender.New(smtpAddr)
			if dryRun {
				snd = stdout.New()
			}

			gen := synth.NewRandom()
			if seed != 0 {
				gen = synth.New(seed)
			}

			if count <= 0 {
				count = cfg.Count
			}

			scenario := verify.Scenario{
				Client:  mailhog.New(apiBase, nil),
				Sender:  snd,
				Gen:     gen,
				Count:   count,
				Timeout: timeout,
			}
			if err := configureSearch(&scenario, kindName, gen); err != nil {
				return err
			}

			report, err := scenario.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("run %s: verified %d/%d messages in %s\n",
				report.RunID, report.Verified, report.Sent, report.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "number of messages to send (default from config)")
	cmd.Flags().StringVar(&kindName, "kind", "", "retrieve via search instead of listing: from, to or containing")
	cmd.Flags().Int64Var(&seed, "seed", 0, "fixture randomness seed for reproducible runs (0 = time-seeded)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for messages to become retrievable")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print fixtures instead of sending them")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "provision a fresh capture instance for this run")
	return cmd
}

// configureSearch pins the fixture field matching the requested search
// kind and derives the search query from it, so the search provably
// selects the messages this run sent.
func configureSearch(scenario *verify.Scenario, kindName string, gen *synth.Generator) error {
	if kindName == "" {
		return nil
	}
	kind, err := mailhog.ParseSearchKind(kindName)
	if err != nil {
		return err
	}

	var query string
	switch kind {
	case mailhog.SearchFrom:
		query = gen.Addr(nil)
		scenario.Fixture.From = synth.Pin(query)
	case mailhog.SearchTo:
		query = gen.Addr(nil)
		scenario.Fixture.To = synth.Pin(query)
	case mailhog.SearchContaining:
		query = gen.Str(10)
		scenario.Fixture.Subject = synth.Pin(query + " " + gen.Str(30))
	}

	scenario.Search = &mailhog.SearchParams{Kind: kind, Query: query}
	return nil
}

// printList writes one page of messages to stdout.
func printList(list *mailhog.MessageList) {
	fmt.Printf("total=%d start=%d count=%d\n", list.Total, list.Start, list.Count)
	for _, msg := range list.Items {
		subject := ""
		if s := msg.Content.Headers["Subject"]; len(s) > 0 {
			subject = s[0]
		}
		to := make([]string, 0, len(msg.To))
		for _, addr := range msg.To {
			to = append(to, addr.String())
		}
		fmt.Printf("%s  %s  %s -> %v  %q\n",
			msg.ID, msg.Created.Format(time.RFC3339), msg.From.String(), to, subject)
	}
}

// flagIntPtr returns the flag's value only when the caller set it
// explicitly. Unset pagination flags must be omitted from the request,
// not sent as zero.
func flagIntPtr(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return nil
	}
	return &v
}

// loadConfig loads configuration from the specified path (YAML + env
// override) or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and
// the specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
