package diag

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SourceMap is the file registry every compiler stage shares. Files are
// registered once by their canonical (absolute, cleaned) path; the same path
// always yields the same cached content, which keeps span rendering and
// module re-import resolution consistent.
type SourceMap struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewSourceMap creates an empty source map.
func NewSourceMap() *SourceMap {
	return &SourceMap{files: make(map[string]string)}
}

// Canonical resolves path to an absolute, cleaned form used as the map key
// and as the identity used by the module resolver for cycle detection.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Load reads path from disk (unless already registered) and returns its
// canonical path and content.
func (sm *SourceMap) Load(path string) (canonical string, content string, err error) {
	canonical, err = Canonical(path)
	if err != nil {
		return "", "", err
	}

	sm.mu.RLock()
	content, ok := sm.files[canonical]
	sm.mu.RUnlock()
	if ok {
		return canonical, content, nil
	}

	raw, err := os.ReadFile(canonical)
	if err != nil {
		return "", "", err
	}
	content = string(raw)

	sm.mu.Lock()
	sm.files[canonical] = content
	sm.mu.Unlock()

	return canonical, content, nil
}

// Put registers in-memory content directly under a given logical path,
// useful for tests that don't want to touch the filesystem.
func (sm *SourceMap) Put(path, content string) string {
	canonical := filepath.Clean(path)
	sm.mu.Lock()
	sm.files[canonical] = content
	sm.mu.Unlock()
	return canonical
}

// Content returns the previously loaded content of a canonical path.
func (sm *SourceMap) Content(canonical string) (string, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	content, ok := sm.files[canonical]
	return content, ok
}

// Line returns the 1-indexed source line, or "" if out of range.
func (sm *SourceMap) Line(canonical string, line int) string {
	content, ok := sm.Content(canonical)
	if !ok || line < 1 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}
