package session

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/sdejongh/devsync/internal/platform"
	"github.com/sdejongh/devsync/pkg/link"
)

// StatusFileName is the project status file shared with the device
const StatusFileName = "info.txt"

// Project identifies the folder being synchronized
type Project struct {
	Name string
	// Sample marks demonstration projects, which are never synchronized
	Sample bool
	// StatusInfo renders the status file from the project's local files;
	// nil selects RenderStatusInfo
	StatusInfo func(name string, files []link.FileInfo) string
}

// IsSample reports whether the project is a sample project
func (p Project) IsSample() bool {
	return p.Sample
}

// StatusPath returns the link path of the project's status file
func (p Project) StatusPath() string {
	return path.Join(p.Name, StatusFileName)
}

func (p Project) renderStatus(files []link.FileInfo) string {
	if p.StatusInfo != nil {
		return p.StatusInfo(p.Name, files)
	}
	return RenderStatusInfo(p.Name, files)
}

// RenderStatusInfo lists, for each folder of the project, how many files
// it holds and when the newest was modified:
//
//	1;3;2024-05-01T09:00:00Z
//
// The status file itself is excluded.
func RenderStatusInfo(name string, files []link.FileInfo) string {
	type folder struct {
		count  int
		newest time.Time
	}
	folders := make(map[string]*folder)

	for _, f := range files {
		rel, ok := platform.TrimDir(f.Path, name)
		if !ok || rel == StatusFileName {
			continue
		}
		dir := path.Dir(rel)
		fo := folders[dir]
		if fo == nil {
			fo = &folder{}
			folders[dir] = fo
		}
		fo.count++
		if f.ModTime.After(fo.newest) {
			fo.newest = f.ModTime
		}
	}

	dirs := make([]string, 0, len(folders))
	for d := range folders {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var b strings.Builder
	for _, d := range dirs {
		fo := folders[d]
		fmt.Fprintf(&b, "%s;%d;%s\n", d, fo.count, fo.newest.UTC().Format(time.RFC3339))
	}
	return b.String()
}
