// Package output renders merge progress and results for the user.
package output

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sdejongh/devsync/pkg/models"
)

// Sink receives progress events from a merge and user-facing messages
// from a session. Implementations include human-readable text, a
// progress bar and JSON.
type Sink interface {
	// Start announces a merge of project with the planned work
	Start(project string, totalFiles int, totalBytes int64) error

	// FileStarted reports that a transfer begins
	FileStarted(path string, direction models.Direction, size int64)

	// FileFinished reports the final outcome of one file
	FileFinished(outcome models.FileOutcome)

	// WriteMessage shows an informational message
	WriteMessage(msg string)

	// WriteError shows a user-facing error message
	WriteError(msg string)

	// Complete finalizes output and displays the summary
	Complete(report *models.MergeReport) error

	// Name returns the sink name
	Name() string
}

// New returns the sink for a configured format. progress selects the bar
// for human output.
func New(format string, progress bool, opts Options) (Sink, error) {
	switch format {
	case "", "human":
		if progress {
			return NewBarSink(opts), nil
		}
		return NewHumanSink(opts), nil
	case "json":
		return NewJSONSink(opts.Writer), nil
	case "none":
		return NullSink{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// directionArrow marks uploads and downloads in text output
func directionArrow(d models.Direction) string {
	if d == models.DirectionDownload {
		return "↓"
	}
	return "↑"
}

// formatBytes formats sizes with binary units ("1.5 KiB")
func formatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Round(time.Millisecond).String()
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
