package output

import (
	"fmt"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"

	"github.com/sdejongh/devsync/pkg/models"
)

const barTemplate = `{{string . "file"}} {{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{speed . }}`

// BarSink shows a byte-based progress bar across the whole merge and
// prints only skips, errors and the summary as lines
type BarSink struct {
	*HumanSink
	mu  sync.Mutex
	bar *pb.ProgressBar
}

// NewBarSink creates a progress bar sink
func NewBarSink(opts Options) *BarSink {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	return &BarSink{HumanSink: NewHumanSink(Options{Writer: opts.Writer, Color: opts.Color, Quiet: true})}
}

func (s *BarSink) Start(project string, totalFiles int, totalBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bold.Fprintf(s.w, "Synchronizing %s: %d files to transfer, %s\n", project, totalFiles, formatBytes(totalBytes))
	if totalFiles == 0 {
		return nil
	}

	bar := pb.New64(totalBytes)
	bar.SetTemplateString(barTemplate)
	bar.SetWriter(s.w)
	bar.Set(pb.Bytes, true)
	bar.Set(pb.Color, !color.NoColor)
	bar.Set("file", "")
	if err := bar.Err(); err != nil {
		return fmt.Errorf("invalid progress template: %w", err)
	}
	s.bar = bar.Start()
	return nil
}

func (s *BarSink) FileStarted(path string, direction models.Direction, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		s.bar.Set("file", directionArrow(direction)+" "+path)
	}
}

func (s *BarSink) FileFinished(o models.FileOutcome) {
	s.mu.Lock()
	if s.bar != nil && o.Transferred() {
		s.bar.Add64(o.Bytes)
	}
	s.mu.Unlock()

	if o.Outcome != models.OutcomeSucceeded {
		s.HumanSink.FileFinished(o)
	}
}

func (s *BarSink) Complete(report *models.MergeReport) error {
	s.mu.Lock()
	if s.bar != nil {
		s.bar.Set("file", "")
		s.bar.Finish()
		s.bar = nil
	}
	s.mu.Unlock()
	return s.HumanSink.Complete(report)
}

func (s *BarSink) Name() string {
	return "progress"
}
