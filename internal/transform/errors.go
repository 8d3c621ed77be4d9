// Package transform implements the content-transformer stages (spec
// section 4 B-I): comment stripping, import flattening, wrapper-tag
// renaming, marker generation/insertion, keyframe scoping, media-query
// grouping and minification. Each stage is a stylesheet.Loader that wraps
// another, following the wrapping order fixed by spec section 4.L.
package transform

import "errors"

// Error kinds from spec section 7. These are sentinel values rather than a
// type hierarchy, following ordinary Go error-handling idiom; stages that
// can either raise or swallow an error per policy wrap one of these with
// errors.Is-compatible context via fmt.Errorf("...: %w", ...).
var (
	ErrBadInput            = errors.New("bad input")
	ErrNotFound            = errors.New("source file not found")
	ErrUnsupportedImport   = errors.New("unsupported import")
	ErrCircularImport      = errors.New("circular import")
	ErrCompiler            = errors.New("less compiler error")
	ErrInvalidCacheFormat  = errors.New("invalid cache file format")
	ErrIO                  = errors.New("io error")
	ErrInternalInvariant   = errors.New("internal invariant violation")
)

// Policy controls whether a recoverable error is raised to the caller or
// swallowed with a logged warning and a neutral/empty result (spec section
// 6 configuration options; section 7 propagation policy).
type Policy uint8

const (
	Strict Policy = iota
	Lenient
)
