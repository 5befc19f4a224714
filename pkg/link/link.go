// Package link moves files between a host repository and a device
// repository. Both ends implement Link: LocalLink over a directory tree
// and RemoteLink over HTTP. Server exposes any Link over the same
// protocol RemoteLink speaks.
package link

import (
	"context"
	"time"
)

// EventSyncCompleted is sent to the peer after a successful merge
const EventSyncCompleted = "syncCompleted"

// FileInfo describes one file in a listing
type FileInfo struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"modTime"`
	Size    int64     `json:"size"`
}

// Link is one end of a synchronization. Paths are slash separated and
// relative to the link root.
type Link interface {
	// PutFile stores data at path with the given modification time
	// (zero means now), replacing any existing file
	PutFile(ctx context.Context, path string, data []byte, modTime time.Time) error

	// GetFile returns the content stored at path
	GetFile(ctx context.Context, path string) ([]byte, error)

	// ListFiles returns a snapshot of the files below dir ("" for the root).
	// Returned paths are relative to the link root.
	ListFiles(ctx context.Context, dir string) ([]FileInfo, error)

	// SendNotification delivers a named event to the other side
	SendNotification(ctx context.Context, event string) error
}
