package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/devsync/pkg/compare"
	"github.com/sdejongh/devsync/pkg/config"
	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/logging"
	"github.com/sdejongh/devsync/pkg/netaddr"
	"github.com/sdejongh/devsync/pkg/session"
)

// SyncFlags holds sync command flags
type SyncFlags struct {
	Project     string
	Device      string
	ListenPort  int
	Sample      bool
	OnTimeout   string
	MaxRetries  int
	Skip        []string
	Timeout     time.Duration
	Bandwidth   string
	Output      string
	MetricsAddr string
	NoHistory   bool
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string

	// MaxRetriesSet is true when --max-retries was given, so 0 can override the config
	MaxRetriesSet bool
}

var syncFlags SyncFlags

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize a project with a device",
		Long: `Synchronize a project folder between this computer and a device.

Without --device, the address of this computer is shown and devsync waits
for the device to announce itself. Each file moves toward the side where it
is missing or older. When a transfer times out you can abort, retry it with
a longer timeout, or ignore the file.`,
		RunE: runSync,
	}

	cmd.Flags().StringVarP(&syncFlags.Project, "project", "p", "", "project folder name (required)")
	cmd.MarkFlagRequired("project")

	cmd.Flags().StringVarP(&syncFlags.Device, "device", "d", "", "device address (host[:port] or URL); waits for an announcement when empty")
	cmd.Flags().IntVar(&syncFlags.ListenPort, "listen-port", 0, "port to wait for the device announcement on")
	cmd.Flags().BoolVar(&syncFlags.Sample, "sample", false, "the project is a sample project (refused)")
	cmd.Flags().StringVar(&syncFlags.OnTimeout, "on-timeout", "", "timeout handling: ask, retry, ignore, abort")
	cmd.Flags().IntVar(&syncFlags.MaxRetries, "max-retries", 0, "retries per file with --on-timeout retry")
	cmd.Flags().StringSliceVar(&syncFlags.Skip, "skip", []string{}, "paths or glob patterns never transferred")
	cmd.Flags().DurationVar(&syncFlags.Timeout, "timeout", 0, "timeout of the first attempt of each request")
	cmd.Flags().StringVarP(&syncFlags.Bandwidth, "bandwidth", "b", "", "upload bandwidth limit (e.g., \"512K\", \"10M\")")
	cmd.Flags().StringVarP(&syncFlags.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().StringVar(&syncFlags.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	cmd.Flags().BoolVar(&syncFlags.NoHistory, "no-history", false, "do not record this session")

	// Logging flags
	cmd.Flags().StringVar(&syncFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&syncFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&syncFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	markExplicitFlags(cmd)
	if err := applyFlagsToConfig(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	collector, stopMetrics, err := startMetrics(cfg.Metrics.Addr, logger)
	if err != nil {
		return fmt.Errorf("failed to set up metrics: %w", err)
	}
	defer stopMetrics()

	store, err := openHistory(cfg)
	if err != nil {
		logger.Warn(ctx, "session history disabled", logging.Fields{"error": err.Error()})
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	stdout := cmd.OutOrStdout()
	sink, err := createSink(cfg, stdout)
	if err != nil {
		return err
	}

	// Keep stdout parseable in JSON mode
	var prompts io.Writer = stdout
	if cfg.Output.Format == "json" {
		prompts = cmd.ErrOrStderr()
	}

	retry, err := retryPolicy(cfg.Sync.OnTimeout, cfg.Sync.MaxRetries, isTerminal(os.Stdin), cmd.InOrStdin(), prompts)
	if err != nil {
		return err
	}

	opts := remoteOptions(cfg)
	if rate := opts.Limiter.Rate(); rate > 0 {
		logger.Info(ctx, "upload bandwidth limited", logging.Fields{"bytes_per_second": rate})
	}

	presenter := &session.ConsolePresenter{W: prompts}
	var peer session.PeerWaiter
	if syncFlags.Device != "" {
		peer = &session.StaticPeer{Addr: syncFlags.Device, Options: opts, Logger: logger}
	} else {
		presenter.Port = cfg.Peer.ListenPort
		peer = &session.ListenPeer{Port: cfg.Peer.ListenPort, Options: opts, Logger: logger}
	}

	s, err := session.New(session.Config{
		Project:   session.Project{Name: syncFlags.Project, Sample: syncFlags.Sample},
		Local:     link.NewLocalLink(dataDir(cfg), logger),
		Resolver:  netaddr.NewResolver(nil, nil, logger),
		Presenter: presenter,
		Peer:      peer,
		Retry:     retry,
		Skip:      cfg.Sync.Skip,
		Policy:    compare.NewTimestampPolicy(cfg.Sync.TimestampTolerance),
		Sink:      sink,
		Metrics:   collector,
		History:   store,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	report, err := s.Run(ctx)
	if err != nil {
		var f *session.Failure
		if errors.As(err, &f) {
			return &ExitError{Code: 2, Err: err, Silent: true}
		}
		return err
	}

	if code := report.Status.ExitCode(); code != 0 {
		return &ExitError{Code: code, Silent: true}
	}
	return nil
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config) error {
	if syncFlags.Timeout > 0 {
		cfg.Device.Timeout = syncFlags.Timeout
	}

	if syncFlags.Bandwidth != "" {
		limit, err := parseBandwidth(syncFlags.Bandwidth)
		if err != nil {
			return err
		}
		cfg.Device.BandwidthLimit = limit
	}

	if syncFlags.OnTimeout != "" {
		cfg.Sync.OnTimeout = syncFlags.OnTimeout
	}
	if syncFlags.MaxRetriesSet {
		cfg.Sync.MaxRetries = syncFlags.MaxRetries
	}

	// Skip patterns add to the configured ones
	cfg.Sync.Skip = append(cfg.Sync.Skip, syncFlags.Skip...)

	if syncFlags.ListenPort > 0 {
		cfg.Peer.ListenPort = syncFlags.ListenPort
	}

	if syncFlags.Output != "" {
		cfg.Output.Format = syncFlags.Output
	}

	if syncFlags.MetricsAddr != "" {
		cfg.Metrics.Addr = syncFlags.MetricsAddr
	}

	if syncFlags.NoHistory {
		cfg.History.Enabled = false
	}

	// Logging
	if syncFlags.LogFile != "" {
		cfg.Logging.File = syncFlags.LogFile
	}
	if syncFlags.LogFormat != "" {
		cfg.Logging.Format = syncFlags.LogFormat
	}
	if syncFlags.LogLevel != "" {
		cfg.Logging.Level = syncFlags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	// The bar would interleave with the debug log
	if globalFlags.Verbose {
		cfg.Output.Progress = false
	}

	return nil
}

// markExplicitFlags records flags whose zero value is a meaningful override
func markExplicitFlags(cmd *cobra.Command) {
	syncFlags.MaxRetriesSet = cmd.Flags().Changed("max-retries")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
