// Package security guards filesystem paths built from untrusted input.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks lexically that filePath does not escape
// dir once both are cleaned and made absolute. Symlinks are not resolved, so
// the check also holds for paths that do not exist yet.
func ValidatePathWithinDirectory(filePath, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absDir, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return fmt.Errorf("failed to resolve directory path: %w", err)
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return fmt.Errorf("path is outside directory: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, dir)
	}
	return nil
}

// SafeJoin joins server-supplied path elements onto dir. Elements may use
// forward slashes (collections like "alf/probe00"), but absolute elements and
// results outside dir are rejected.
func SafeJoin(dir string, elems ...string) (string, error) {
	parts := []string{dir}
	for _, e := range elems {
		if e == "" {
			return "", fmt.Errorf("empty path element")
		}
		if strings.HasPrefix(e, "/") || filepath.IsAbs(e) {
			return "", fmt.Errorf("absolute path element %q", e)
		}
		parts = append(parts, filepath.FromSlash(e))
	}
	joined := filepath.Join(parts...)
	if err := ValidatePathWithinDirectory(joined, dir); err != nil {
		return "", err
	}
	if filepath.Clean(joined) == filepath.Clean(dir) {
		return "", fmt.Errorf("path %v resolves to the directory itself", elems)
	}
	return joined, nil
}
