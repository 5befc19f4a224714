package compare

import (
	"fmt"
	"time"

	"github.com/sdejongh/devsync/pkg/link"
)

// DefaultTolerance absorbs timestamp precision differences between
// filesystems (FAT and some device storage keep 1-2 second resolution)
const DefaultTolerance = time.Second

// TimestampPolicy picks the side with the newer modification time.
// Differences within Tolerance count as equal, and equal is a no-op even
// when sizes differ.
type TimestampPolicy struct {
	Tolerance time.Duration
}

// NewTimestampPolicy creates a newer-wins policy; a negative tolerance
// selects DefaultTolerance
func NewTimestampPolicy(tolerance time.Duration) *TimestampPolicy {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	return &TimestampPolicy{Tolerance: tolerance}
}

// Compare decides the direction for path
func (p *TimestampPolicy) Compare(path string, local, remote *link.FileInfo) Comparison {
	switch {
	case local == nil && remote == nil:
		return Comparison{Path: path, Result: Same, Reason: "file exists on neither side"}
	case remote == nil:
		return Comparison{Path: path, Result: LocalOnly, Reason: "file exists only locally"}
	case local == nil:
		return Comparison{Path: path, Result: RemoteOnly, Reason: "file exists only on the device"}
	}

	diff := local.ModTime.Sub(remote.ModTime)
	switch {
	case diff > p.Tolerance:
		return Comparison{
			Path:   path,
			Result: LocalNewer,
			Reason: fmt.Sprintf("local is newer (local: %s, device: %s)", formatTime(local.ModTime), formatTime(remote.ModTime)),
		}
	case -diff > p.Tolerance:
		return Comparison{
			Path:   path,
			Result: RemoteNewer,
			Reason: fmt.Sprintf("device is newer (local: %s, device: %s)", formatTime(local.ModTime), formatTime(remote.ModTime)),
		}
	}

	return Comparison{Path: path, Result: Same, Reason: "timestamps match"}
}

// Name returns the policy name
func (p *TimestampPolicy) Name() string {
	return "timestamp"
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
