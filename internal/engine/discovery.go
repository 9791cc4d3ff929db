package engine

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// QueryExt is the extension of query files.
const QueryExt = ".sql"

// Discover returns the query files under the queries directory, searched
// recursively and sorted by path so that runs are deterministic.
func (e *Engine) Discover() ([]string, error) {
	dir, err := filepath.Abs(e.queriesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve queries directory: %w", err)
	}

	e.logger.Debug("discovering query files", "queries_dir", dir)

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			e.logger.Warn("skipping unreadable path", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isQueryFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read queries directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

func isQueryFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), QueryExt)
}
