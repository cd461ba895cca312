package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches every dataset file under the store.
const DefaultPattern = "**/*.{arrow,msgpack,xz}"

// Find returns the files under the store matching a doublestar pattern.
func (s *Store) Find(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.FilepathGlob(filepath.Join(s.baseDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("pattern matching failed: %w", err)
	}

	files := make([]string, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, match)
	}
	sort.Strings(files)
	return files, nil
}

// Resolve maps a CLI argument to a dataset file: an existing path is used
// as is, otherwise arg names a run by its full ID or a unique ID prefix.
func (s *Store) Resolve(arg string) (string, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return arg, nil
	}

	if meta, err := s.Load(arg); err == nil {
		return s.DatasetPath(meta), nil
	}

	if arg == "" || strings.ContainsAny(arg, `*?[]{}\/`) {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, arg)
	}
	prefix := arg
	if !strings.HasPrefix(prefix, "run_") {
		prefix = "run_" + prefix
	}
	matches, err := doublestar.FilepathGlob(filepath.Join(s.baseDir, prefix+"*", metadataFile), doublestar.WithFilesOnly())
	if err != nil {
		return "", fmt.Errorf("pattern matching failed: %w", err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, arg)
	case 1:
		meta, err := s.Load(filepath.Base(filepath.Dir(matches[0])))
		if err != nil {
			return "", err
		}
		return s.DatasetPath(meta), nil
	default:
		return "", fmt.Errorf("ambiguous run prefix %q matches %d runs", arg, len(matches))
	}
}
