package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the devsync command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devsync",
		Short: "Synchronize recording projects with a device over the local network",
		Long: `devsync keeps a project folder in step between this computer and a
device on the same network. Files move toward the side where they are
missing or older; nothing is ever deleted.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewAddressCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
