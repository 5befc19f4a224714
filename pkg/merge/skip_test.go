package merge

import "testing"

// ============== SkipList Tests ==============

func TestSkipList_Match(t *testing.T) {
	skip := NewSkipList([]string{
		"1/ch03.wav",
		"*.tmp",
		"2/*.wav",
		"scratch/",
		"**/notes.txt",
		"  ",
		"./info.txt",
	})

	tests := []struct {
		path string
		want bool
	}{
		{"1/ch03.wav", true},
		{"1/ch04.wav", false},
		{"a.tmp", true},
		{"deep/dir/b.tmp", true},
		{"2/ch01.wav", true},
		{"2/sub/ch01.wav", false},
		{"3/ch01.wav", false},
		{"scratch/x.wav", true},
		{"1/scratch/x.wav", true},
		{"scratchpad/x.wav", false},
		{"notes.txt", true},
		{"1/2/notes.txt", true},
		{"info.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := skip.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if skip.Len() != 6 {
		t.Errorf("Len() = %d, want 6", skip.Len())
	}
}

func TestSkipList_ExactEntryWithGlobCharacters(t *testing.T) {
	// As a glob this only matches take1.wav
	skip := NewSkipList([]string{"take[1].wav"})

	if !skip.Match("take[1].wav") {
		t.Error("exact entry should always match")
	}
}

func TestSkipList_Nil(t *testing.T) {
	var skip *SkipList
	if skip.Match("a.wav") {
		t.Error("nil skip list should match nothing")
	}
	if skip.Len() != 0 {
		t.Error("nil skip list should be empty")
	}
}
