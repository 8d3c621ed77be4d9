// Package cssfs is the file-system collaborator named in spec section 6:
// it reads source text relative to a configured root and reports the
// last-modified retriever's freshness timestamp (spec section 4.J). It
// replaces evanw-esbuild's much larger internal/fs virtual file-system
// abstraction (directory-entry caching for a bundler watching an entire
// module graph) with the much narrower contract this pipeline actually
// needs: same-folder reads only, no symlink/zip-overlay handling, no
// directory-entry cache, since imports never cross folders (spec section
// 1's non-goal) and every read happens once per pipeline invocation, not
// repeatedly across a long-lived build graph.
package cssfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/productiverage/cssminifier/internal/transform"
)

// Root is a read-only view of a single directory tree. Every relative
// path passed in is validated to stay inside base — see resolve.
type Root struct {
	base string
}

func NewRoot(base string) Root {
	return Root{base: filepath.Clean(base)}
}

func (r Root) Base() string {
	return r.base
}

// resolve joins relativePath onto the root and rejects any path that
// would escape it, following the same defence-in-depth esbuild's real
// file system applies against ".." traversal, adapted to operate on a
// single root instead of a platform volume list.
func (r Root) resolve(relativePath string) (string, error) {
	if relativePath == "" {
		return "", fmt.Errorf("%w: empty relative path", transform.ErrBadInput)
	}
	cleaned := filepath.Clean(relativePath)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: relative path escapes root: %q", transform.ErrBadInput, relativePath)
	}
	return filepath.Join(r.base, cleaned), nil
}

// ReadFile reads a text file relative to the root.
func (r Root) ReadFile(relativePath string) (string, error) {
	full, err := r.resolve(relativePath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", transform.ErrNotFound, relativePath)
		}
		return "", fmt.Errorf("%w: %v", transform.ErrIO, err)
	}
	return string(data), nil
}

// WriteFile writes a file relative to the root, creating parent
// directories as needed. The disk cache layer does not use it: it writes
// through os directly, to a temp file that it then renames (see
// internal/cache/disk.go).
func (r Root) WriteFile(relativePath string, content []byte) error {
	full, err := r.resolve(relativePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("%w: %v", transform.ErrIO, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return fmt.Errorf("%w: %v", transform.ErrIO, err)
	}
	return nil
}

// ListDir lists file (not directory) base names directly inside
// relativeDir, sorted for deterministic iteration. An empty relativeDir
// lists the root itself.
func (r Root) ListDir(relativeDir string) ([]string, error) {
	if relativeDir == "" {
		relativeDir = "."
	}
	full, err := r.resolve(relativeDir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", transform.ErrNotFound, relativeDir)
		}
		return nil, fmt.Errorf("%w: %v", transform.ErrIO, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// LastModified implements component J: the folder containing
// relativePath (which need not itself exist — spec section 4.J's
// "virtual aggregate path" case, e.g. a request path that addresses a
// composed stylesheet rather than a single real file) is scanned for
// files matching any of extensionGlobs (e.g. "*.css", "*.less"; a
// nil/empty slice matches everything), and the maximum modification time
// among them is returned. Returns ErrNotFound if the folder does not
// exist or no file in it matches, and ErrIO if the folder can't be listed
// for another reason.
func (r Root) LastModified(relativePath string, extensionGlobs []string) (time.Time, error) {
	dir := filepath.Dir(relativePath)
	names, err := r.ListDir(dir)
	if err != nil {
		return time.Time{}, err
	}

	full, err := r.resolve(dir)
	if err != nil {
		return time.Time{}, err
	}

	var latest time.Time
	found := false
	for _, name := range names {
		match, err := matchesAnyGlob(name, extensionGlobs)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", transform.ErrBadInput, err)
		}
		if !match {
			continue
		}
		info, err := os.Stat(filepath.Join(full, name))
		if err != nil {
			continue // file vanished between ListDir and Stat; skip rather than fail the whole folder
		}
		if mt := info.ModTime(); !found || mt.After(latest) {
			latest = mt
			found = true
		}
	}
	if !found {
		return time.Time{}, fmt.Errorf("%w: no files matching %v in %s", transform.ErrNotFound, extensionGlobs, dir)
	}
	return latest, nil
}

// matchesAnyGlob reports whether name matches any of patterns, using
// doublestar for glob semantics richer than a plain extension suffix
// check (a configured filter like "*.min.css" or "vendor/**/*.css"
// remains meaningful even though imports themselves stay same-folder).
// An empty pattern list matches everything.
func matchesAnyGlob(name string, patterns []string) (bool, error) {
	if len(patterns) == 0 {
		return true, nil
	}
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
