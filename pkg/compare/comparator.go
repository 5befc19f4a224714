// Package compare decides which side of a synchronization holds the
// current version of a file.
package compare

import (
	"github.com/sdejongh/devsync/pkg/link"
)

// Result represents the outcome of comparing the two sides of a path
type Result string

const (
	// Same means neither side is newer; nothing moves
	Same Result = "same"
	// LocalNewer means the local copy replaces the remote one
	LocalNewer Result = "local_newer"
	// RemoteNewer means the remote copy replaces the local one
	RemoteNewer Result = "remote_newer"
	// LocalOnly means the file exists only locally
	LocalOnly Result = "local_only"
	// RemoteOnly means the file exists only on the device
	RemoteOnly Result = "remote_only"
)

// Comparison holds the result of comparing one path
type Comparison struct {
	Path   string
	Result Result
	Reason string
}

// Policy decides the direction for a path present on at least one side.
// A nil FileInfo means the path is absent on that side.
type Policy interface {
	Compare(path string, local, remote *link.FileInfo) Comparison

	// Name returns the name of the policy
	Name() string
}
