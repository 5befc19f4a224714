package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sdejongh/devsync/internal/platform"
	"github.com/sdejongh/devsync/pkg/compare"
	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/merge"
	"github.com/sdejongh/devsync/pkg/models"
)

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Show what a sync would transfer (dry-run)",
		Long: `Compare a project on this computer and on a device and report which
files a sync would upload or download, without transferring anything.`,
		RunE: runCompare,
	}

	// Reuse sync flags for comparison
	cmd.Flags().StringVarP(&syncFlags.Project, "project", "p", "", "project folder name (required)")
	cmd.Flags().StringVarP(&syncFlags.Device, "device", "d", "", "device address (required)")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("device")

	cmd.Flags().StringSliceVar(&syncFlags.Skip, "skip", []string{}, "paths or glob patterns never transferred")
	cmd.Flags().DurationVar(&syncFlags.Timeout, "timeout", 0, "request timeout")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	if err := applyFlagsToConfig(cfg); err != nil {
		return err
	}

	project, err := platform.CleanRelative(syncFlags.Project)
	if err != nil {
		return err
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	local := link.NewLocalLink(dataDir(cfg), logger)
	remote, err := link.NewRemoteLink(syncFlags.Device, remoteOptions(cfg), logger)
	if err != nil {
		return err
	}

	localFiles, err := local.ListFiles(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to list local files: %w", err)
	}
	remoteFiles, err := remote.ListFiles(ctx, project)
	if err != nil {
		return fmt.Errorf("%s", link.Classify(err).Message())
	}

	plan := merge.BuildPlan(project, localFiles, remoteFiles,
		compare.NewTimestampPolicy(cfg.Sync.TimestampTolerance), merge.NewSkipList(cfg.Sync.Skip))
	writePlan(cmd.OutOrStdout(), project, remote.BaseURL(), plan)
	return nil
}

func writePlan(w io.Writer, project, device string, plan *merge.Plan) {
	fmt.Fprintf(w, "Project %s against %s\n\n", project, device)
	for _, item := range plan.Items {
		arrow := "upload  "
		if item.Direction == models.DirectionDownload {
			arrow = "download"
		}
		if item.Skipped {
			fmt.Fprintf(w, "  skip     %s\n", item.Path)
			continue
		}
		fmt.Fprintf(w, "  %s %s (%s, %s)\n", arrow, item.Path, humanize.Bytes(uint64(item.Size)), item.Reason)
	}
	if len(plan.Items) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d to transfer (%s), %d skipped, %d unchanged\n",
		plan.Transfers(), humanize.Bytes(uint64(plan.Bytes())), len(plan.Items)-plan.Transfers(), plan.Unchanged)
}
