package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/NERVsystems/osmscene/pkg/osm"
)

// resolveRoot makes dir absolute and resolves symlinks so later
// containment checks compare real paths.
func resolveRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve data dir %s: %w", dir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, fmt.Errorf("resolve data dir %s: %w", dir, err)
	}
	return resolved, nil
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// resolvePath maps a caller-supplied path to a regular file the server may
// read. Relative paths are taken from the data dir. With a data dir set,
// anything that leaves it, before or after following symlinks, is denied
// without revealing whether it exists.
func (r *Registry) resolvePath(path string) (string, *ToolError) {
	p := path
	if r.root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(r.root, p)
	}
	p = filepath.Clean(p)

	if r.root != "" && !within(r.root, p) {
		return "", accessDenied(path)
	}

	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", loadError(path, fmt.Errorf("%w: %w", osm.ErrNotFound, err))
		}
		return "", loadError(path, fmt.Errorf("%w: %w", osm.ErrIO, err))
	}
	if r.root != "" && !within(r.root, resolved) {
		return "", accessDenied(path)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", loadError(path, fmt.Errorf("%w: %w", osm.ErrNotFound, err))
	}
	if !info.Mode().IsRegular() {
		return "", invalidInput("%s is not a regular file", path)
	}
	return resolved, nil
}
