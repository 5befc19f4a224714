package models

import (
	"testing"
	"time"
)

// ============== FileOutcome Tests ==============

func TestFileOutcomeTransferred(t *testing.T) {
	tests := []struct {
		outcome  TransferOutcome
		expected bool
	}{
		{OutcomeSucceeded, true},
		{OutcomeSkippedByPolicy, false},
		{OutcomeSkippedByUser, false},
		{OutcomeAborted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			o := FileOutcome{Path: "Book/1/ch01.wav", Outcome: tt.outcome}
			if o.Transferred() != tt.expected {
				t.Errorf("Transferred() = %v, want %v", o.Transferred(), tt.expected)
			}
		})
	}
}

// ============== MergeReport Tests ==============

func TestMergeStatusExitCode(t *testing.T) {
	tests := []struct {
		status   MergeStatus
		expected int
	}{
		{StatusCompleted, 0},
		{StatusCompletedWithSkips, 1},
		{StatusAborted, 2},
		{MergeStatus("bogus"), 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestMergeReportCounts(t *testing.T) {
	report := &MergeReport{StartTime: time.Now()}
	report.Add(FileOutcome{Path: "a.wav", Direction: DirectionUpload, Outcome: OutcomeSucceeded, Bytes: 100})
	report.Add(FileOutcome{Path: "b.wav", Direction: DirectionDownload, Outcome: OutcomeSucceeded, Bytes: 50})
	report.Add(FileOutcome{Path: "c.wav", Direction: DirectionDownload, Outcome: OutcomeSkippedByUser})
	report.Add(FileOutcome{Path: "d.wav", Direction: DirectionUpload, Outcome: OutcomeSkippedByPolicy})

	if report.Transferred() != 2 {
		t.Errorf("Transferred() = %d, want 2", report.Transferred())
	}
	if report.Uploaded() != 1 {
		t.Errorf("Uploaded() = %d, want 1", report.Uploaded())
	}
	if report.Downloaded() != 1 {
		t.Errorf("Downloaded() = %d, want 1", report.Downloaded())
	}
	if report.BytesTransferred() != 150 {
		t.Errorf("BytesTransferred() = %d, want 150", report.BytesTransferred())
	}

	if got := report.Count(OutcomeSkippedByUser); got != 1 {
		t.Errorf("Count(skipped_by_user) = %d, want 1", got)
	}
}

func TestMergeReportFinish(t *testing.T) {
	t.Run("Completed", func(t *testing.T) {
		report := &MergeReport{StartTime: time.Now()}
		report.Add(FileOutcome{Path: "a.wav", Outcome: OutcomeSucceeded})
		report.Add(FileOutcome{Path: "b.wav", Outcome: OutcomeSkippedByPolicy})
		report.Finish(false)

		if report.Status != StatusCompleted {
			t.Errorf("Status = %s, want completed", report.Status)
		}
		if report.EndTime.Before(report.StartTime) {
			t.Error("EndTime should not be before StartTime")
		}
	})

	t.Run("CompletedWithSkips", func(t *testing.T) {
		report := &MergeReport{StartTime: time.Now()}
		report.Add(FileOutcome{Path: "a.wav", Outcome: OutcomeSkippedByUser})
		report.Finish(false)

		if report.Status != StatusCompletedWithSkips {
			t.Errorf("Status = %s, want completed_with_skips", report.Status)
		}
		if !report.Status.Succeeded() {
			t.Error("completed_with_skips should count as succeeded")
		}
	})

	t.Run("Aborted", func(t *testing.T) {
		report := &MergeReport{StartTime: time.Now()}
		report.Add(FileOutcome{Path: "a.wav", Outcome: OutcomeSkippedByUser})
		report.Finish(true)

		if report.Status != StatusAborted {
			t.Errorf("Status = %s, want aborted", report.Status)
		}
		if report.Status.Succeeded() {
			t.Error("aborted should not count as succeeded")
		}
	})
}

// ============== ErrorCategory Tests ==============

func TestErrorCategoryMessage(t *testing.T) {
	categories := []ErrorCategory{
		CategoryNoActiveInterfaces,
		CategoryNoRoutableInterface,
		CategoryNameResolution,
		CategoryConnect,
		CategoryConnectionClosed,
		CategoryTimeout,
		CategoryOther,
		CategorySampleProject,
	}

	for _, c := range categories {
		t.Run(string(c), func(t *testing.T) {
			if c.Message() == "" {
				t.Errorf("Message() for %s is empty", c)
			}
		})
	}

	if ErrorCategory("unknown").Message() != CategoryOther.Message() {
		t.Error("unknown category should fall back to the catch-all message")
	}
}

func TestErrorCategoryRetryable(t *testing.T) {
	if !CategoryTimeout.Retryable() {
		t.Error("timeout should be retryable")
	}
	for _, c := range []ErrorCategory{CategoryConnect, CategoryNameResolution, CategoryConnectionClosed, CategoryOther} {
		if c.Retryable() {
			t.Errorf("%s should not be retryable", c)
		}
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "TestField",
		Message: "test message",
	}

	expected := "TestField: test message"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
}
