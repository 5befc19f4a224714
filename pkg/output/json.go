package output

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sdejongh/devsync/pkg/models"
)

// JSONSink writes one JSON object per line for each event, ending with a
// "complete" event that carries the full report
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// JSONEvent represents a single event in the JSON output stream
type JSONEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
}

// JSONStartData represents the data for a start event
type JSONStartData struct {
	Project    string `json:"project"`
	TotalFiles int    `json:"total_files"`
	TotalBytes int64  `json:"total_bytes"`
}

// JSONFileData represents a file_start event
type JSONFileData struct {
	Path      string           `json:"path"`
	Direction models.Direction `json:"direction"`
	Size      int64            `json:"size"`
}

// JSONReportData is the final report
type JSONReportData struct {
	*models.MergeReport
	Uploaded         int   `json:"uploaded"`
	Downloaded       int   `json:"downloaded"`
	BytesTransferred int64 `json:"bytes_transferred"`
	DurationMs       int64 `json:"duration_ms"`
	ExitCode         int   `json:"exit_code"`
}

// NewJSONSink creates a JSON sink writing to w (stdout when nil)
func NewJSONSink(w io.Writer) *JSONSink {
	if w == nil {
		w = os.Stdout
	}
	return &JSONSink{enc: json.NewEncoder(w)}
}

func (s *JSONSink) emit(kind string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(JSONEvent{Timestamp: time.Now().UTC(), Type: kind, Data: data})
}

func (s *JSONSink) Start(project string, totalFiles int, totalBytes int64) error {
	return s.emit("start", JSONStartData{Project: project, TotalFiles: totalFiles, TotalBytes: totalBytes})
}

func (s *JSONSink) FileStarted(path string, direction models.Direction, size int64) {
	s.emit("file_start", JSONFileData{Path: path, Direction: direction, Size: size})
}

func (s *JSONSink) FileFinished(o models.FileOutcome) {
	s.emit("file_complete", o)
}

func (s *JSONSink) WriteMessage(msg string) {
	s.emit("message", map[string]string{"message": msg})
}

func (s *JSONSink) WriteError(msg string) {
	s.emit("error", map[string]string{"error": msg})
}

func (s *JSONSink) Complete(report *models.MergeReport) error {
	return s.emit("complete", JSONReportData{
		MergeReport:      report,
		Uploaded:         report.Uploaded(),
		Downloaded:       report.Downloaded(),
		BytesTransferred: report.BytesTransferred(),
		DurationMs:       report.Duration.Milliseconds(),
		ExitCode:         report.Status.ExitCode(),
	})
}

func (s *JSONSink) Name() string {
	return "json"
}

// NullSink discards everything
type NullSink struct{}

func (NullSink) Start(string, int, int64) error { return nil }

func (NullSink) FileStarted(string, models.Direction, int64) {}

func (NullSink) FileFinished(models.FileOutcome) {}

func (NullSink) WriteMessage(string) {}

func (NullSink) WriteError(string) {}

func (NullSink) Complete(*models.MergeReport) error { return nil }

func (NullSink) Name() string { return "none" }
