package platform

import (
	"errors"
	"testing"
)

func TestCleanRelative(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"Book/1/ch01.wav", "Book/1/ch01.wav", false},
		{"Book//1/./ch01.wav", "Book/1/ch01.wav", false},
		{`Book\1\ch01.wav`, "Book/1/ch01.wav", false},
		{"Book/../info.txt", "info.txt", false},
		{"", "", true},
		{".", "", true},
		{"/etc/passwd", "", true},
		{"../outside.wav", "", true},
		{"Book/../../outside.wav", "", true},
		{"C:/Windows/win.ini", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := CleanRelative(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CleanRelative(%q) = %q, want error", tt.input, got)
				}
				var pe *PathError
				if !errors.As(err, &pe) {
					t.Errorf("error should be a *PathError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanRelative(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("CleanRelative(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanDir(t *testing.T) {
	for _, root := range []string{"", ".", "/"} {
		got, err := CleanDir(root)
		if err != nil || got != "" {
			t.Errorf("CleanDir(%q) = %q, %v; want root", root, got, err)
		}
	}

	got, err := CleanDir("Project/")
	if err != nil {
		t.Fatalf("CleanDir() error = %v", err)
	}
	if got != "Project" {
		t.Errorf("CleanDir(Project/) = %q, want Project", got)
	}
}

func TestTrimDir(t *testing.T) {
	if rel, ok := TrimDir("Project/Book/ch01.wav", "Project"); !ok || rel != "Book/ch01.wav" {
		t.Errorf("TrimDir() = %q, %v", rel, ok)
	}
	if _, ok := TrimDir("Projectile/ch01.wav", "Project"); ok {
		t.Error("TrimDir() should not match a sibling with a common prefix")
	}
	if rel, ok := TrimDir("a/b", ""); !ok || rel != "a/b" {
		t.Errorf("TrimDir() with root = %q, %v", rel, ok)
	}
}

func TestJoinRelative(t *testing.T) {
	if got := JoinRelative("", "Project", "info.txt"); got != "Project/info.txt" {
		t.Errorf("JoinRelative() = %q", got)
	}
}
