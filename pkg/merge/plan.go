package merge

import (
	"sort"
	"time"

	"github.com/sdejongh/devsync/internal/platform"
	"github.com/sdejongh/devsync/pkg/compare"
	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/models"
)

// Item is one file a merge would move
type Item struct {
	// Path is relative to the project folder
	Path      string
	Direction models.Direction
	Size      int64
	ModTime   time.Time
	// Skipped marks items excluded by the skip list
	Skipped bool
	Reason  string
}

// Plan is the ordered work of a merge
type Plan struct {
	Items     []Item
	Unchanged int
}

// Transfers returns the number of items that will be attempted
func (p *Plan) Transfers() int {
	n := 0
	for _, it := range p.Items {
		if !it.Skipped {
			n++
		}
	}
	return n
}

// Bytes returns the size of all items that will be attempted
func (p *Plan) Bytes() int64 {
	var total int64
	for _, it := range p.Items {
		if !it.Skipped {
			total += it.Size
		}
	}
	return total
}

// BuildPlan pairs the project's files on both sides and decides a
// direction for each path. Listing paths are link-root relative; items are
// project relative and sorted by path.
func BuildPlan(project string, local, remote []link.FileInfo, policy compare.Policy, skip *SkipList) *Plan {
	localByPath := indexListing(project, local)
	remoteByPath := indexListing(project, remote)

	paths := make([]string, 0, len(localByPath)+len(remoteByPath))
	for p := range localByPath {
		paths = append(paths, p)
	}
	for p := range remoteByPath {
		if _, dup := localByPath[p]; !dup {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	plan := &Plan{}
	for _, p := range paths {
		l, r := localByPath[p], remoteByPath[p]
		cmp := policy.Compare(p, l, r)

		var item Item
		switch cmp.Result {
		case compare.LocalOnly, compare.LocalNewer:
			item = Item{Path: p, Direction: models.DirectionUpload, Size: l.Size, ModTime: l.ModTime}
		case compare.RemoteOnly, compare.RemoteNewer:
			item = Item{Path: p, Direction: models.DirectionDownload, Size: r.Size, ModTime: r.ModTime}
		default:
			plan.Unchanged++
			continue
		}
		item.Reason = cmp.Reason
		item.Skipped = skip.Match(p)
		plan.Items = append(plan.Items, item)
	}
	return plan
}

// indexListing keys a listing by project-relative path, dropping entries
// outside the project
func indexListing(project string, files []link.FileInfo) map[string]*link.FileInfo {
	out := make(map[string]*link.FileInfo, len(files))
	for i := range files {
		rel, ok := platform.TrimDir(files[i].Path, project)
		if !ok || rel == "" {
			continue
		}
		out[rel] = &files[i]
	}
	return out
}
