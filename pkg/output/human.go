package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/sdejongh/devsync/pkg/models"
)

// Options configures the text sinks
type Options struct {
	// Writer receives output (stdout when nil)
	Writer io.Writer
	// Color enables ANSI colors
	Color bool
	// Quiet suppresses per-file lines; errors and the summary still print
	Quiet bool
}

// HumanSink prints one line per file and a summary
type HumanSink struct {
	mu      sync.Mutex
	w       io.Writer
	quiet   bool
	total   int
	current int

	ok    *color.Color
	warn  *color.Color
	fail  *color.Color
	faint *color.Color
	bold  *color.Color
}

// NewHumanSink creates a human-readable sink
func NewHumanSink(opts Options) *HumanSink {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	s := &HumanSink{
		w:     opts.Writer,
		quiet: opts.Quiet,
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		fail:  color.New(color.FgRed, color.Bold),
		faint: color.New(color.Faint),
		bold:  color.New(color.Bold),
	}
	for _, c := range []*color.Color{s.ok, s.warn, s.fail, s.faint, s.bold} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func (s *HumanSink) Start(project string, totalFiles int, totalBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = totalFiles
	s.current = 0
	if !s.quiet {
		s.bold.Fprintf(s.w, "Synchronizing %s: %d files to transfer, %s\n", project, totalFiles, formatBytes(totalBytes))
	}
	return nil
}

func (s *HumanSink) FileStarted(path string, direction models.Direction, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current++
	if !s.quiet {
		s.faint.Fprintf(s.w, "[%d/%d] %s %s (%s)...\n", s.current, s.total, directionArrow(direction), path, formatBytes(size))
	}
}

func (s *HumanSink) FileFinished(o models.FileOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch o.Outcome {
	case models.OutcomeSucceeded:
		if !s.quiet {
			s.ok.Fprintf(s.w, "  ✓ %s %s (%s)\n", directionArrow(o.Direction), o.Path, formatBytes(o.Bytes))
		}
	case models.OutcomeSkippedByPolicy:
		if !s.quiet {
			s.faint.Fprintf(s.w, "  - %s (skip list)\n", o.Path)
		}
	case models.OutcomeSkippedByUser:
		s.warn.Fprintf(s.w, "  ! %s skipped\n", o.Path)
	case models.OutcomeAborted:
		s.fail.Fprintf(s.w, "  ✗ %s: %s\n", o.Path, o.Error)
	}
}

func (s *HumanSink) WriteMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, msg)
}

func (s *HumanSink) WriteError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail.Fprintf(s.w, "Error: %s\n", msg)
}

func (s *HumanSink) Complete(report *models.MergeReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeSummary(s.w, report, s.statusColor(report.Status))
	return nil
}

func (s *HumanSink) Name() string {
	return "human"
}

func (s *HumanSink) statusColor(status models.MergeStatus) *color.Color {
	switch status {
	case models.StatusCompleted:
		return s.ok
	case models.StatusCompletedWithSkips:
		return s.warn
	default:
		return s.fail
	}
}

// writeSummary prints the end-of-merge report shared by the text sinks
func writeSummary(w io.Writer, report *models.MergeReport, status *color.Color) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Merge of %s finished in %s\n", report.Project, formatDuration(report.Duration))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Uploaded:           %d\n", report.Uploaded())
	fmt.Fprintf(w, "  Downloaded:         %d\n", report.Downloaded())
	fmt.Fprintf(w, "  Unchanged:          %d\n", report.Unchanged)
	fmt.Fprintf(w, "  Skipped (policy):   %d\n", report.Count(models.OutcomeSkippedByPolicy))
	fmt.Fprintf(w, "  Skipped (user):     %d\n", report.Count(models.OutcomeSkippedByUser))
	fmt.Fprintf(w, "  Data:               %s\n", formatBytes(report.BytesTransferred()))
	if report.Duration.Seconds() > 0 && report.BytesTransferred() > 0 {
		speed := float64(report.BytesTransferred()) / report.Duration.Seconds()
		fmt.Fprintf(w, "  Average speed:      %s/s\n", formatBytes(int64(speed)))
	}
	fmt.Fprintf(w, "\n")
	status.Fprintf(w, "Status: %s\n", report.Status)
}
