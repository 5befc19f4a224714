package merge

import (
	"testing"
	"time"

	"github.com/sdejongh/devsync/pkg/compare"
	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/models"
)

// ============== BuildPlan Tests ==============

func TestBuildPlan(t *testing.T) {
	local := []link.FileInfo{
		{Path: "Book/a.wav", ModTime: newer, Size: 10},
		{Path: "Book/same.wav", ModTime: older, Size: 3},
		{Path: "Book/skip.tmp", ModTime: newer, Size: 100},
		{Path: "Other/x.wav", ModTime: newer, Size: 7},
	}
	remote := []link.FileInfo{
		{Path: "Book/b.wav", ModTime: older, Size: 20},
		{Path: "Book/same.wav", ModTime: older.Add(500 * time.Millisecond), Size: 4},
	}

	plan := BuildPlan("Book", local, remote, compare.NewTimestampPolicy(-1), NewSkipList([]string{"*.tmp"}))

	if len(plan.Items) != 3 {
		t.Fatalf("Items = %+v, want 3 items", plan.Items)
	}
	wantPaths := []string{"a.wav", "b.wav", "skip.tmp"}
	wantDirs := []models.Direction{models.DirectionUpload, models.DirectionDownload, models.DirectionUpload}
	for i, item := range plan.Items {
		if item.Path != wantPaths[i] || item.Direction != wantDirs[i] {
			t.Errorf("Items[%d] = %s %s, want %s %s", i, item.Path, item.Direction, wantPaths[i], wantDirs[i])
		}
	}

	if !plan.Items[2].Skipped {
		t.Error("skip.tmp should be marked skipped")
	}
	if plan.Unchanged != 1 {
		t.Errorf("Unchanged = %d, want 1", plan.Unchanged)
	}
	if plan.Transfers() != 2 {
		t.Errorf("Transfers() = %d, want 2", plan.Transfers())
	}
	if plan.Bytes() != 30 {
		t.Errorf("Bytes() = %d, want 30", plan.Bytes())
	}
}
