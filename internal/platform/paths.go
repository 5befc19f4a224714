package platform

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// CleanRelative validates a link path and returns its canonical slash form.
// Link paths are always relative to a repository root and may not escape it.
func CleanRelative(p string) (string, error) {
	if p == "" {
		return "", &PathError{Path: p, Message: "path is empty"}
	}

	slashed := strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(p) || hasDriveLetter(slashed) {
		return "", &PathError{Path: p, Message: "path must be relative"}
	}

	cleaned := path.Clean(slashed)
	if cleaned == "." {
		return "", &PathError{Path: p, Message: "path is empty"}
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &PathError{Path: p, Message: "path escapes the repository root"}
	}

	return cleaned, nil
}

// CleanDir is CleanRelative for directory scopes, where the empty string
// means the repository root
func CleanDir(p string) (string, error) {
	if p == "" || p == "." || p == "/" {
		return "", nil
	}
	return CleanRelative(strings.TrimSuffix(p, "/"))
}

// JoinRelative joins slash path elements, skipping empty ones
func JoinRelative(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for _, e := range elem {
		if e != "" {
			parts = append(parts, e)
		}
	}
	return path.Join(parts...)
}

// TrimDir returns p relative to dir, or false if p is not inside dir
func TrimDir(p, dir string) (string, bool) {
	if dir == "" {
		return p, true
	}
	prefix := strings.TrimSuffix(dir, "/") + "/"
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	return strings.TrimPrefix(p, prefix), true
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

// DataDir returns the default host repository root for the current OS
func DataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "devsync")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "devsync")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "devsync")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "devsync")
	}
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
