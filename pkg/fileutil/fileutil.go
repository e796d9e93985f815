// Package fileutil provides file system utility functions.
package fileutil

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// FindFile searches for a file with the given name in dir of fsys.
// The search is case-insensitive, which is useful for cross-platform compatibility.
//
// Example:
//
//	p, err := FindFile(os.DirFS("/path/to/levels"), ".", "First.TOML")
//	// Will find "first.toml", "FIRST.TOML", "First.toml", etc.
func FindFile(fsys fs.FS, dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			// fs.FS uses forward slashes
			return path.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}

// ReadFile reads name from fsys, falling back to a case-insensitive lookup
// of the last path element.
func ReadFile(fsys fs.FS, name string) ([]byte, error) {
	name = clean(name)
	if data, err := fs.ReadFile(fsys, name); err == nil {
		return data, nil
	}
	actual, err := FindFile(fsys, path.Dir(name), path.Base(name))
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(fsys, actual)
}

// ListFiles returns the names of regular files in dir whose extension matches
// ext case-insensitively, sorted by name.
func ListFiles(fsys fs.FS, dir, ext string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext == "" || strings.EqualFold(path.Ext(entry.Name()), ext) {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// clean は先頭の "/" や "\" を除去し、fs.FS 形式のパスにする
func clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "."
	}
	return path.Clean(name)
}
