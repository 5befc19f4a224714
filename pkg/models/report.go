package models

import (
	"time"
)

// MergeReport represents the results of reconciling one project
type MergeReport struct {
	ID      string `json:"id"`
	Project string `json:"project"`
	// Peer describes the remote endpoint, e.g. its base URL
	Peer string `json:"peer,omitempty"`

	// Timing
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	// Files lists per-file outcomes in processing order
	Files []FileOutcome `json:"files"`

	// Unchanged counts paths present on both sides with no newer side
	Unchanged int `json:"unchanged"`

	// Overall status
	Status MergeStatus `json:"status"`
}

// MergeStatus represents the terminal result of a merge
type MergeStatus string

const (
	// StatusCompleted indicates every required file was transferred
	StatusCompleted MergeStatus = "completed"
	// StatusCompletedWithSkips indicates the user chose to ignore at least one file
	StatusCompletedWithSkips MergeStatus = "completed_with_skips"
	// StatusAborted indicates the merge stopped before processing every file
	StatusAborted MergeStatus = "aborted"
)

// ExitCode returns the process exit code for the merge status
func (s MergeStatus) ExitCode() int {
	switch s {
	case StatusCompleted:
		return 0
	case StatusCompletedWithSkips:
		return 1
	case StatusAborted:
		return 2
	default:
		return 2
	}
}

// Succeeded reports whether the merge reached the end of the batch
func (s MergeStatus) Succeeded() bool {
	return s == StatusCompleted || s == StatusCompletedWithSkips
}

// Add appends an outcome to the report
func (r *MergeReport) Add(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)
}

// Count returns how many files ended with the given outcome
func (r *MergeReport) Count(outcome TransferOutcome) int {
	n := 0
	for _, o := range r.Files {
		if o.Outcome == outcome {
			n++
		}
	}
	return n
}

// Transferred returns the number of files whose content moved
func (r *MergeReport) Transferred() int {
	return r.Count(OutcomeSucceeded)
}

// Uploaded returns the number of files copied to the device
func (r *MergeReport) Uploaded() int {
	return r.countDirection(DirectionUpload)
}

// Downloaded returns the number of files copied from the device
func (r *MergeReport) Downloaded() int {
	return r.countDirection(DirectionDownload)
}

// BytesTransferred sums the payload of every succeeded transfer
func (r *MergeReport) BytesTransferred() int64 {
	var total int64
	for _, o := range r.Files {
		if o.Transferred() {
			total += o.Bytes
		}
	}
	return total
}

func (r *MergeReport) countDirection(dir Direction) int {
	n := 0
	for _, o := range r.Files {
		if o.Direction == dir && o.Transferred() {
			n++
		}
	}
	return n
}

// Finish stamps the end time and derives the terminal status
func (r *MergeReport) Finish(aborted bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)

	switch {
	case aborted:
		r.Status = StatusAborted
	case r.Count(OutcomeSkippedByUser) > 0:
		r.Status = StatusCompletedWithSkips
	default:
		r.Status = StatusCompleted
	}
}
