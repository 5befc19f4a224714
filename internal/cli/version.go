package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/sdejongh/devsync/pkg/config"
	"github.com/sdejongh/devsync/pkg/session"
	"github.com/spf13/cobra"
)

// Build information, set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// versionInfo is the --json shape of the version command
type versionInfo struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	DevicePort int    `json:"device_port"`
	ListenPort int    `json:"listen_port"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the build, the Go runtime and the default device protocol ports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, Version)
				return nil
			}

			info := versionInfo{
				Version:    Version,
				Commit:     Commit,
				BuildDate:  BuildDate,
				GoVersion:  runtime.Version(),
				Platform:   runtime.GOOS + "/" + runtime.GOARCH,
				DevicePort: config.Default().Device.Port,
				ListenPort: session.DefaultListenPort,
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Fprintf(out, "devsync %s\n", info.Version)
			fmt.Fprintf(out, "  Commit:      %s\n", info.Commit)
			fmt.Fprintf(out, "  Built:       %s\n", info.BuildDate)
			fmt.Fprintf(out, "  Go version:  %s\n", info.GoVersion)
			fmt.Fprintf(out, "  OS/Arch:     %s\n", info.Platform)
			fmt.Fprintf(out, "  Device port: %d (listen %d)\n", info.DevicePort, info.ListenPort)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")

	return cmd
}
