package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirEntry is a regular file found in a directory.
type DirEntry struct {
	// Path is the directory joined with Name.
	Path string
	// Name is the base name of the file.
	Name string
}

// ListDirectory returns the regular files of dir accepted by keep, sorted by name.
//
// Arguments:
// - dir: Directory path to enumerate (not recursive).
// - keep: Filter on the base name; nil keeps every file.
//
// Returns:
// - []DirEntry: The accepted files in lexical order.
// - error: Error if the directory cannot be read.
func ListDirectory(dir string, keep func(name string) bool) ([]DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []DirEntry
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if keep != nil && !keep(entry.Name()) {
			continue
		}
		files = append(files, DirEntry{
			Path: filepath.Join(dir, entry.Name()),
			Name: entry.Name(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// HasExt returns a filter accepting names with one of the given extensions
// (case-insensitive, including the dot).
func HasExt(exts ...string) func(name string) bool {
	return func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		for _, e := range exts {
			if ext == strings.ToLower(e) {
				return true
			}
		}
		return false
	}
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SwapExt replaces the extension of name's base with ext.
func SwapExt(name, ext string) string {
	return Stem(name) + ext
}

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
