package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/devsync/pkg/models"
)

func sampleReport() *models.MergeReport {
	r := &models.MergeReport{Project: "Book", StartTime: time.Now()}
	r.Add(models.FileOutcome{Path: "1/ch01.wav", Direction: models.DirectionUpload, Outcome: models.OutcomeSucceeded, Bytes: 2048})
	r.Add(models.FileOutcome{Path: "1/ch02.wav", Direction: models.DirectionDownload, Outcome: models.OutcomeSkippedByUser,
		Category: models.CategoryTimeout})
	r.Finish(false)
	return r
}

// ============== HumanSink Tests ==============

func TestHumanSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewHumanSink(Options{Writer: &buf})

	sink.Start("Book", 2, 4096)
	sink.FileStarted("1/ch01.wav", models.DirectionUpload, 2048)
	sink.FileFinished(models.FileOutcome{Path: "1/ch01.wav", Direction: models.DirectionUpload, Outcome: models.OutcomeSucceeded, Bytes: 2048})
	sink.WriteError("The transfer took too long and timed out.")
	sink.Complete(sampleReport())

	out := buf.String()
	for _, want := range []string{
		"Synchronizing Book: 2 files to transfer, 4.0 KiB",
		"[1/2] ↑ 1/ch01.wav (2.0 KiB)...",
		"✓ ↑ 1/ch01.wav",
		"Error: The transfer took too long and timed out.",
		"Uploaded:           1",
		"Skipped (user):     1",
		"Status: completed_with_skips",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("output should not contain ANSI codes when color is off")
	}
}

func TestHumanSink_Quiet(t *testing.T) {
	var buf bytes.Buffer
	sink := NewHumanSink(Options{Writer: &buf, Quiet: true})

	sink.Start("Book", 1, 10)
	sink.FileStarted("ch01.wav", models.DirectionUpload, 10)
	sink.FileFinished(models.FileOutcome{Path: "ch01.wav", Outcome: models.OutcomeSucceeded})
	sink.FileFinished(models.FileOutcome{Path: "ch02.wav", Outcome: models.OutcomeAborted, Error: "device closed the connection"})

	out := buf.String()
	if strings.Contains(out, "ch01.wav") {
		t.Errorf("quiet output should omit successful files:\n%s", out)
	}
	if !strings.Contains(out, "ch02.wav: device closed the connection") {
		t.Errorf("quiet output should keep failures:\n%s", out)
	}
}

// ============== BarSink Tests ==============

func TestBarSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewBarSink(Options{Writer: &buf})

	if err := sink.Start("Book", 1, 2048); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sink.FileStarted("1/ch01.wav", models.DirectionUpload, 2048)
	sink.FileFinished(models.FileOutcome{Path: "1/ch01.wav", Direction: models.DirectionUpload, Outcome: models.OutcomeSucceeded, Bytes: 2048})
	if err := sink.Complete(sampleReport()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if !strings.Contains(buf.String(), "Status: completed_with_skips") {
		t.Errorf("bar output missing summary:\n%s", buf.String())
	}
	if sink.Name() != "progress" {
		t.Errorf("Name() = %s", sink.Name())
	}
}

// ============== JSONSink Tests ==============

func TestJSONSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf)

	sink.Start("Book", 2, 4096)
	sink.FileStarted("1/ch01.wav", models.DirectionUpload, 2048)
	sink.FileFinished(models.FileOutcome{Path: "1/ch01.wav", Outcome: models.OutcomeSucceeded, Bytes: 2048})
	sink.WriteMessage("Sync completed successfully")
	sink.Complete(sampleReport())

	var types []string
	var last map[string]any
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var ev map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		types = append(types, ev["type"].(string))
		last = ev
	}

	want := "start,file_start,file_complete,message,complete"
	if got := strings.Join(types, ","); got != want {
		t.Errorf("event types = %s, want %s", got, want)
	}

	data := last["data"].(map[string]any)
	if data["status"] != "completed_with_skips" {
		t.Errorf("status = %v", data["status"])
	}
	if data["uploaded"] != float64(1) || data["exit_code"] != float64(1) {
		t.Errorf("report data = %v", data)
	}
}

// ============== Factory Tests ==============

func TestNew(t *testing.T) {
	tests := []struct {
		format   string
		progress bool
		name     string
		wantErr  bool
	}{
		{"human", false, "human", false},
		{"", true, "progress", false},
		{"json", true, "json", false},
		{"none", false, "none", false},
		{"xml", false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format+tt.name, func(t *testing.T) {
			sink, err := New(tt.format, tt.progress, Options{Writer: &bytes.Buffer{}})
			if tt.wantErr {
				if err == nil {
					t.Error("New() should fail for unknown formats")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if sink.Name() != tt.name {
				t.Errorf("Name() = %s, want %s", sink.Name(), tt.name)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.expected {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.expected)
		}
	}
}
