package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/sdejongh/devsync/internal/platform"
	"github.com/sdejongh/devsync/pkg/config"
	"github.com/sdejongh/devsync/pkg/history"
	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/logging"
	"github.com/sdejongh/devsync/pkg/metrics"
	"github.com/sdejongh/devsync/pkg/output"
	"github.com/sdejongh/devsync/pkg/ratelimit"
)

// loadConfig loads configuration from --config or the default location and
// applies the global overrides
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globalFlags.ConfigFile != "" {
		cfg, err = config.LoadFromFile(globalFlags.ConfigFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if globalFlags.DataDir != "" {
		cfg.DataDir = globalFlags.DataDir
	}
	return cfg, nil
}

// dataDir returns the host repository root
func dataDir(cfg *config.Config) string {
	if cfg.DataDir != "" {
		return platform.ExpandHome(cfg.DataDir)
	}
	return platform.DataDir()
}

// parseBandwidth parses limits such as "512K", "10MB" or "1 GiB" as bytes
// per second; empty and "0" mean unlimited
func parseBandwidth(s string) (int64, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bandwidth %q: %w", s, err)
	}
	return int64(n), nil
}

// createLogger returns a stderr debug logger in verbose mode, a file
// logger when one is configured and a null logger otherwise
func createLogger(cfg *config.Config) (logging.Logger, error) {
	if globalFlags.Verbose {
		return logging.NewStreamLogger(os.Stderr, logging.ParseFormat(cfg.Logging.Format), logging.DebugLevel), nil
	}
	if cfg.Logging.File == "" {
		return logging.NewNullLogger(), nil
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       platform.ExpandHome(cfg.Logging.File),
		Format:     logging.ParseFormat(cfg.Logging.Format),
		Level:      logging.ParseLevel(cfg.Logging.Level),
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

// isTerminal reports whether f is an interactive terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// createSink builds the output sink for cfg writing to w
func createSink(cfg *config.Config, w io.Writer) (output.Sink, error) {
	colored := false
	if f, ok := w.(*os.File); ok {
		colored = isTerminal(f)
	}
	return output.New(cfg.Output.Format, cfg.Output.Progress, output.Options{
		Writer: w,
		Color:  colored,
		Quiet:  cfg.Output.Quiet,
	})
}

// remoteOptions derives device link settings from cfg
func remoteOptions(cfg *config.Config) link.RemoteOptions {
	return link.RemoteOptions{
		Timeout:            cfg.Device.Timeout,
		RetryTimeoutFactor: cfg.Device.RetryTimeoutFactor,
		Limiter:            ratelimit.NewLimiter(cfg.Device.BandwidthLimit),
	}
}

// historyPath returns the session history database path
func historyPath(cfg *config.Config) string {
	if cfg.History.Path != "" {
		return platform.ExpandHome(cfg.History.Path)
	}
	return filepath.Join(dataDir(cfg), ".devsync", "history.db")
}

// openHistory opens the history store, or returns nil when disabled
func openHistory(cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(historyPath(cfg))
}

// startMetrics registers the collector and, when addr is set, serves
// /metrics in the background. The returned function stops the server.
func startMetrics(addr string, logger logging.Logger) (*metrics.Collector, func(), error) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, nil, err
	}
	if addr == "" {
		return collector, func() {}, nil
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(context.Background(), "metrics server failed", err, logging.Fields{"addr": addr})
		}
	}()
	return collector, func() { srv.Close() }, nil
}
