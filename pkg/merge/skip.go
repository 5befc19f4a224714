package merge

import (
	"path"
	"strings"
)

// SkipList holds paths and patterns that a merge never transfers. Entries
// are matched against project-relative slash paths:
//   - exact paths: 1/ch03.wav
//   - basename globs: *.tmp
//   - path globs: 2/*.wav
//   - directory prefixes: scratch/
//   - any-depth patterns: **/notes.txt
type SkipList struct {
	exact    map[string]struct{}
	patterns []string
}

// NewSkipList builds a skip list; empty entries are ignored
func NewSkipList(entries []string) *SkipList {
	s := &SkipList{exact: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		e = strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(e), "\\", "/"), "./")
		if e == "" {
			continue
		}
		s.exact[e] = struct{}{}
		s.patterns = append(s.patterns, e)
	}
	return s
}

// Len returns the number of entries
func (s *SkipList) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// Match reports whether rel is excluded
func (s *SkipList) Match(rel string) bool {
	if s == nil || len(s.patterns) == 0 {
		return false
	}
	if _, ok := s.exact[rel]; ok {
		return true
	}

	base := path.Base(rel)
	for _, pattern := range s.patterns {
		if matchPattern(rel, base, pattern) {
			return true
		}
	}
	return false
}

func matchPattern(rel, base, pattern string) bool {
	if dir, ok := strings.CutSuffix(pattern, "/"); ok {
		return rel == dir ||
			strings.HasPrefix(rel, dir+"/") ||
			strings.Contains(rel, "/"+dir+"/")
	}

	if suffix, ok := strings.CutPrefix(pattern, "**/"); ok {
		if matchGlob(base, suffix) || rel == suffix || strings.HasSuffix(rel, "/"+suffix) {
			return true
		}
		for _, part := range strings.Split(rel, "/") {
			if matchGlob(part, suffix) {
				return true
			}
		}
		return matchGlob(rel, suffix)
	}

	if strings.Contains(pattern, "/") {
		return matchGlob(rel, pattern)
	}
	return matchGlob(base, pattern)
}

func matchGlob(name, pattern string) bool {
	matched, _ := path.Match(pattern, name)
	return matched
}
