package compare

import (
	"testing"
	"time"

	"github.com/sdejongh/devsync/pkg/link"
)

func TestTimestampPolicy_Compare(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(offset time.Duration) *link.FileInfo {
		return &link.FileInfo{Path: "Book/ch01.wav", ModTime: base.Add(offset), Size: 100}
	}

	tests := []struct {
		name     string
		local    *link.FileInfo
		remote   *link.FileInfo
		expected Result
	}{
		{"LocalOnly", at(0), nil, LocalOnly},
		{"RemoteOnly", nil, at(0), RemoteOnly},
		{"Neither", nil, nil, Same},
		{"Identical", at(0), at(0), Same},
		{"WithinTolerance", at(800 * time.Millisecond), at(0), Same},
		{"ExactlyTolerance", at(time.Second), at(0), Same},
		{"LocalNewer", at(5 * time.Second), at(0), LocalNewer},
		{"RemoteNewer", at(0), at(2 * time.Minute), RemoteNewer},
	}

	policy := NewTimestampPolicy(DefaultTolerance)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Compare("Book/ch01.wav", tt.local, tt.remote)
			if got.Result != tt.expected {
				t.Errorf("Compare() = %s (%s), want %s", got.Result, got.Reason, tt.expected)
			}
			if got.Path != "Book/ch01.wav" {
				t.Errorf("Path = %q", got.Path)
			}
		})
	}
}

func TestTimestampPolicy_EqualTimesDifferentSizes(t *testing.T) {
	now := time.Now()
	local := &link.FileInfo{Path: "a.wav", ModTime: now, Size: 10}
	remote := &link.FileInfo{Path: "a.wav", ModTime: now, Size: 20}

	if got := NewTimestampPolicy(0).Compare("a.wav", local, remote); got.Result != Same {
		t.Errorf("Compare() = %s, want same", got.Result)
	}
}

func TestNewTimestampPolicy(t *testing.T) {
	if p := NewTimestampPolicy(-1); p.Tolerance != DefaultTolerance {
		t.Errorf("Tolerance = %v, want default", p.Tolerance)
	}
	if p := NewTimestampPolicy(0); p.Tolerance != 0 {
		t.Errorf("Tolerance = %v, want 0", p.Tolerance)
	}
	if NewTimestampPolicy(0).Name() != "timestamp" {
		t.Error("Name() should be timestamp")
	}
}
