package models

// Direction tells which way a file travels between the host and the device
type Direction string

const (
	// DirectionUpload copies a host file to the device
	DirectionUpload Direction = "upload"
	// DirectionDownload copies a device file to the host
	DirectionDownload Direction = "download"
)

// TransferOutcome is what happened to one file in one direction
type TransferOutcome string

const (
	// OutcomeSucceeded means the file was transferred
	OutcomeSucceeded TransferOutcome = "succeeded"
	// OutcomeSkippedByPolicy means the path matched the skip list
	OutcomeSkippedByPolicy TransferOutcome = "skipped_by_policy"
	// OutcomeSkippedByUser means the retry decision was Ignore
	OutcomeSkippedByUser TransferOutcome = "skipped_by_user"
	// OutcomeAborted means the merge stopped on this file
	OutcomeAborted TransferOutcome = "aborted"
)

// FileOutcome records the result of processing a single path
type FileOutcome struct {
	// Path is relative to the project root, slash separated
	Path      string          `json:"path"`
	Direction Direction       `json:"direction"`
	Outcome   TransferOutcome `json:"outcome"`
	Bytes     int64           `json:"bytes,omitempty"`
	// Attempts counts transfer attempts, including the first one
	Attempts int           `json:"attempts,omitempty"`
	Category ErrorCategory `json:"category,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Transferred reports whether the file content actually moved
func (o FileOutcome) Transferred() bool {
	return o.Outcome == OutcomeSucceeded
}
