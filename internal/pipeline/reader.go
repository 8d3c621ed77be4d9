// Package pipeline implements component L: it composes the transform
// stages (A, C-I) into the two canonical loader compositions from spec
// section 4.L, and component M's leaf — the file reader — plus the
// request-facing entry point from spec section 6 that layers component
// K's cache in front of the assembled loader.
package pipeline

import (
	"fmt"

	"github.com/productiverage/cssminifier/internal/cssfs"
	"github.com/productiverage/cssminifier/internal/stylesheet"
	"github.com/productiverage/cssminifier/internal/transform"
)

// fileReader is the innermost stage (spec section 4.L's "fileReader"):
// it reads the raw file and stamps it with the freshness timestamp from
// component J, read over the same extension filter the cache uses for
// invalidation, satisfying the freshness-dominance property whether or
// not this particular file turns out to pull in siblings via @import.
type fileReader struct {
	root           cssfs.Root
	extensionGlobs []string
}

func (r fileReader) Load(relativePath string) (stylesheet.FileContents, error) {
	content, err := r.root.ReadFile(relativePath)
	if err != nil {
		return stylesheet.FileContents{}, err
	}
	if content == "" {
		return stylesheet.FileContents{}, fmt.Errorf("%w: %s is empty", transform.ErrBadInput, relativePath)
	}

	lastModified, err := r.root.LastModified(relativePath, r.extensionGlobs)
	if err != nil {
		return stylesheet.FileContents{}, err
	}

	return stylesheet.FileContents{
		RelativePath: relativePath,
		LastModified: lastModified,
		Content:      content,
	}, nil
}
