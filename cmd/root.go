package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kumolabai/upctl/pkg/config"
	"github.com/kumolabai/upctl/pkg/openapi"
	"github.com/kumolabai/upctl/pkg/up"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "upctl",
	Short: "Up Banking tools for LLM clients",
	Long: `upctl exposes your Up Banking accounts, transactions and categories as
MCP tools so an AI agent can answer questions about your money.

It needs a personal access token from the Up app (Data sharing > Personal
Access Token), read from UP_API_TOKEN or the config file.`,
	Version:      version,
	SilenceUsage: true,
}

var (
	configPath       string
	verbose          bool
	baseURL          string
	timeout          time.Duration
	validateRequests bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	flags.StringVar(&baseURL, "base-url", up.DefaultBaseURL, "Up API root")
	flags.DurationVar(&timeout, "timeout", up.DefaultTimeout, "timeout for each Up API request")
	flags.BoolVar(&validateRequests, "validate-requests", false, "check outgoing requests against the Up API description before sending")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig layers command-line flags over the config file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if flags.Changed("validate-requests") {
		cfg.ValidateRequests = validateRequests
	}

	return cfg, cfg.Validate()
}

// newLogger writes to stderr; stdout carries the stdio transport.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newClient(cfg config.Config, logger *slog.Logger) (*up.Client, error) {
	opts := []up.Option{
		up.WithBaseURL(cfg.BaseURL),
		up.WithTimeout(cfg.Timeout),
		up.WithUserAgent("upctl/" + version),
		up.WithLogger(logger),
	}

	if cfg.ValidateRequests {
		contract, err := openapi.LoadContract(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, up.WithTransport(contract.Transport(http.DefaultTransport)))
	}

	return up.NewClient(cfg.Token, opts...)
}
