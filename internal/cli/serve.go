package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/logging"
	"github.com/sdejongh/devsync/pkg/session"
)

// ServeFlags holds serve command flags
type ServeFlags struct {
	Root        string
	Port        int
	MetricsAddr string
	Announce    string
}

var serveFlags ServeFlags

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a directory as a device",
		Long: `Expose a directory over the device protocol so "sync" can be used
against it. With --announce, the served port is announced to a host that
runs "sync" without --device.`,
		RunE: runServe,
	}

	cmd.Flags().StringVarP(&serveFlags.Root, "root", "r", "", "device repository root (required)")
	cmd.MarkFlagRequired("root")
	cmd.Flags().IntVar(&serveFlags.Port, "port", link.DefaultPort, "port to serve on")
	cmd.Flags().StringVar(&serveFlags.MetricsAddr, "metrics-addr", "", "also serve prometheus metrics on this address")
	cmd.Flags().StringVar(&serveFlags.Announce, "announce", "", "host[:port] waiting for a device announcement")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	if err := os.MkdirAll(serveFlags.Root, 0755); err != nil {
		return fmt.Errorf("failed to create root: %w", err)
	}

	collector, stopMetrics, err := startMetrics(serveFlags.MetricsAddr, logger)
	if err != nil {
		return fmt.Errorf("failed to set up metrics: %w", err)
	}
	defer stopMetrics()

	out := cmd.OutOrStdout()
	server := link.NewServer(link.NewLocalLink(serveFlags.Root, logger), logger)
	server.OnNotify = func(event string) {
		fmt.Fprintf(out, "Received notification: %s\n", event)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(serveFlags.Port)))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	srv := &http.Server{Handler: collector.InstrumentHandler(server), ReadHeaderTimeout: 10 * time.Second}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	fmt.Fprintf(out, "Serving %s on port %d\n", serveFlags.Root, port)
	logger.Info(ctx, "device emulator started", logging.Fields{"root": serveFlags.Root, "port": port})

	if serveFlags.Announce != "" {
		if err := announce(ctx, serveFlags.Announce, port); err != nil {
			srv.Close()
			return err
		}
		fmt.Fprintf(out, "Announced to %s\n", serveFlags.Announce)
	}

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}

// announce tells a waiting host which port this device serves on
func announce(ctx context.Context, host string, port int) error {
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, strconv.Itoa(session.DefaultListenPort))
	}

	body, err := json.Marshal(session.Announcement{Port: port})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+host+"/sync", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to announce to %s: %s", host, link.Classify(err).Message())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to announce to %s: %w", host, &link.StatusError{Code: resp.StatusCode})
	}
	return nil
}
