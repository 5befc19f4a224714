package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sdejongh/devsync/pkg/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	var (
		project string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past synchronization sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			store, err := history.Open(historyPath(cfg))
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(project, limit)
			if err != nil {
				return err
			}
			writeHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "only show this project")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of sessions (0 = all)")

	return cmd
}

func writeHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No sessions recorded")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tPROJECT\tSTATE\tUP\tDOWN\tSKIPPED\tBYTES\tDETAIL")
	for _, e := range entries {
		detail := e.Status
		if e.Category != "" {
			detail = e.Category
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			humanize.Time(e.StartTime), e.Project, e.State,
			e.Uploaded, e.Downloaded, e.Skipped, humanize.Bytes(uint64(e.Bytes)), detail)
	}
	tw.Flush()
}
