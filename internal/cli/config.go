package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/devsync/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or modify devsync configuration.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data Dir: %s\n", dataDir(cfg))
			fmt.Fprintf(out, "Device Port: %d\n", cfg.Device.Port)
			fmt.Fprintf(out, "Device Timeout: %s (x%g per retry)\n", cfg.Device.Timeout, cfg.Device.RetryTimeoutFactor)
			fmt.Fprintf(out, "Bandwidth Limit: %d B/s\n", cfg.Device.BandwidthLimit)
			fmt.Fprintf(out, "On Timeout: %s (max retries %d)\n", cfg.Sync.OnTimeout, cfg.Sync.MaxRetries)
			fmt.Fprintf(out, "Timestamp Tolerance: %s\n", cfg.Sync.TimestampTolerance)
			fmt.Fprintf(out, "Skip: %v\n", cfg.Sync.Skip)
			fmt.Fprintf(out, "Listen Port: %d\n", cfg.Peer.ListenPort)
			fmt.Fprintf(out, "Output Format: %s\n", cfg.Output.Format)
			fmt.Fprintf(out, "Log Format: %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log Level: %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "History: %v (%s)\n", cfg.History.Enabled, historyPath(cfg))

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}
}
