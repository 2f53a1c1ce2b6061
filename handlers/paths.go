package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	errPathOutsideLibrary = errors.New("path is outside the music library")
	errPathRequired       = errors.New("path is required")
)

// resolveLibraryPath turns requested into an absolute path and rejects
// anything that escapes root. Relative paths are taken from root.
func resolveLibraryPath(root, requested string) (string, error) {
	if requested == "" {
		return "", errPathRequired
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid library location: %w", err)
	}

	if !filepath.IsAbs(requested) {
		requested = filepath.Join(absRoot, requested)
	}
	absPath, err := filepath.Abs(requested)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !within(absRoot, absPath) {
		return "", fmt.Errorf("%s: %w", requested, errPathOutsideLibrary)
	}

	// a symlink inside the library can still point outside it
	if !within(evalExisting(absRoot), evalExisting(absPath)) {
		return "", fmt.Errorf("%s: %w", requested, errPathOutsideLibrary)
	}
	return absPath, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// evalExisting resolves symlinks in the longest existing prefix of path
// and appends the parts that do not exist yet.
func evalExisting(path string) string {
	var missing []string
	for p := path; ; {
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved
		}
		parent := filepath.Dir(p)
		if parent == p {
			return path
		}
		missing = append(missing, filepath.Base(p))
		p = parent
	}
}
