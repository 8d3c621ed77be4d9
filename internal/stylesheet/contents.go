// Package stylesheet defines the data that flows between pipeline stages.
package stylesheet

import "time"

// FileContents is the immutable unit every stage consumes and produces.
// RelativePath never carries a path separator component that escapes the
// configured root; LastModified only ever moves forward as stages combine
// inputs (see Max).
type FileContents struct {
	RelativePath string
	LastModified time.Time
	Content      string
}

// Max returns the later of two timestamps. Used throughout the pipeline to
// satisfy the freshness-dominance invariant: a stage that combines several
// source files must report a LastModified no earlier than any of them.
func Max(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// Loader is the single contract every stage implements (spec §4.M):
// given a relative path, produce its FileContents or fail.
type Loader interface {
	Load(relativePath string) (FileContents, error)
}

// LoaderFunc adapts a plain function to a Loader.
type LoaderFunc func(relativePath string) (FileContents, error)

func (f LoaderFunc) Load(relativePath string) (FileContents, error) {
	return f(relativePath)
}
