package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds flags shared by every subcommand
type GlobalFlags struct {
	ConfigFile string
	DataDir    string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags registers the persistent flags on the root command
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&globalFlags.ConfigFile, "config", "",
		"config file (default is $DEVSYNC_CONFIG or $HOME/.config/devsync/config.yaml)")
	flags.StringVar(&globalFlags.DataDir, "data-dir", "",
		"host repository root holding the projects (overrides data_dir)")
	flags.BoolVarP(&globalFlags.Verbose, "verbose", "v", false,
		"write a debug log to stderr")
	flags.BoolVarP(&globalFlags.Quiet, "quiet", "q", false,
		"suppress non-error output")
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}
