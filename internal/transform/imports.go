package transform

import (
	"fmt"
	"strings"

	"github.com/productiverage/cssminifier/internal/logger"
	"github.com/productiverage/cssminifier/internal/stylesheet"
)

// ImportDeclaration is one parsed @import statement (spec section 3).
type ImportDeclaration struct {
	RawText         string
	Filename        string
	MediaCondition  string
	HasMedia        bool
	startIdx, endIdx int
}

// ImportFlattener implements component C: it recursively inlines
// same-folder @import declarations, wraps inlined content in the import's
// media condition if present, and detects circular chains. It re-enters
// Next (the rest of the chain below it, per spec 4.L) for every file it
// touches, including imported ones, so each inlined file is independently
// keyframe-scoped, marker-inserted, comment-stripped and wrapper-renamed
// before it's combined.
type ImportFlattener struct {
	Next              stylesheet.Loader
	OnCircularImport  Policy
	OnUnsupportedImport Policy
	Log               *logger.Log
}

func (t ImportFlattener) Load(relativePath string) (stylesheet.FileContents, error) {
	return t.loadChain(relativePath, nil)
}

func (t ImportFlattener) loadChain(relativePath string, chain []string) (stylesheet.FileContents, error) {
	base, err := t.Next.Load(relativePath)
	if err != nil {
		return stylesheet.FileContents{}, err
	}

	chain2 := append(append([]string{}, chain...), relativePath)

	decls := parseImportDeclarations(base.Content)
	content := base.Content
	lastModified := base.LastModified

	// Replace in reverse index order so earlier offsets stay valid.
	for i := len(decls) - 1; i >= 0; i-- {
		d := decls[i]

		if strings.ContainsAny(d.Filename, `/\`) {
			if t.OnUnsupportedImport == Strict {
				return stylesheet.FileContents{}, fmt.Errorf("%w: %q in %s", ErrUnsupportedImport, d.Filename, relativePath)
			}
			if t.Log != nil {
				t.Log.AddWarning(relativePath, fmt.Sprintf("unsupported import %q (path separators not allowed)", d.Filename))
			}
			content = spliceOut(content, d.startIdx, d.endIdx)
			continue
		}

		childPath := siblingPath(relativePath, d.Filename)

		if containsPath(chain2, childPath) {
			if t.OnCircularImport == Strict {
				return stylesheet.FileContents{}, fmt.Errorf("%w: %s imports %s", ErrCircularImport, relativePath, childPath)
			}
			if t.Log != nil {
				t.Log.AddWarning(relativePath, fmt.Sprintf("circular import of %q elided", childPath))
			}
			content = spliceOut(content, d.startIdx, d.endIdx)
			continue
		}

		imported, err := t.loadChain(childPath, chain2)
		if err != nil {
			return stylesheet.FileContents{}, err
		}

		replacement := imported.Content
		if d.HasMedia {
			replacement = "@media " + d.MediaCondition + " { " + replacement + " }"
		}

		content = content[:d.startIdx] + replacement + content[d.endIdx:]
		lastModified = stylesheet.Max(lastModified, imported.LastModified)
	}

	return stylesheet.FileContents{
		RelativePath: relativePath,
		LastModified: lastModified,
		Content:      content,
	}, nil
}

func spliceOut(content string, start, end int) string {
	return content[:start] + content[end:]
}

func containsPath(chain []string, path string) bool {
	for _, c := range chain {
		if c == path {
			return true
		}
	}
	return false
}

// siblingPath resolves a same-folder import filename against the folder
// of the referencing file. Imports outside the parent folder are rejected
// upstream (Filename must not contain a separator), so this is a plain
// concatenation, not a general path resolver.
func siblingPath(relativePath, filename string) string {
	if i := strings.LastIndexByte(relativePath, '/'); i >= 0 {
		return relativePath[:i+1] + filename
	}
	return filename
}

// parseImportDeclarations scans content for the five @import shapes from
// spec section 4.C. Spaces around tokens are flexible; the terminator is
// ';', '\r', '\n' or EOF.
func parseImportDeclarations(content string) []ImportDeclaration {
	var decls []ImportDeclaration
	i := 0
	for {
		idx := strings.Index(content[i:], "@import")
		if idx < 0 {
			break
		}
		start := i + idx
		pos := start + len("@import")
		pos = skipSpaces(content, pos)

		filename, pos, ok := parseImportTarget(content, pos)
		if !ok {
			i = start + 1
			continue
		}

		// Only spaces and tabs here: a line break after the target ends the
		// declaration rather than starting a media condition.
		for pos < len(content) && (content[pos] == ' ' || content[pos] == '\t') {
			pos++
		}
		media, pos := parseOptionalMedia(content, pos)
		pos = skipSpaces(content, pos)

		end := pos
		if end < len(content) {
			switch content[end] {
			case ';':
				end++
			case '\r':
				end++
				if end < len(content) && content[end] == '\n' {
					end++
				}
			case '\n':
				end++
			}
		}

		decls = append(decls, ImportDeclaration{
			RawText:        content[start:end],
			Filename:       filename,
			MediaCondition: media,
			HasMedia:       media != "",
			startIdx:       start,
			endIdx:         end,
		})
		i = end
	}
	return decls
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n') {
		i++
	}
	return i
}

// parseImportTarget parses `url("X")`, `url('X')`, `url(X)`, `"X"` or `'X'`
// starting at pos, returning the filename and the position right after it.
func parseImportTarget(content string, pos int) (string, int, bool) {
	if strings.HasPrefix(content[pos:], "url(") || strings.HasPrefix(content[pos:], "URL(") {
		pos += len("url(")
		pos = skipSpaces(content, pos)
		name, next, ok := parseQuotedOrBareURL(content, pos)
		if !ok {
			return "", pos, false
		}
		next = skipSpaces(content, next)
		if next >= len(content) || content[next] != ')' {
			return "", pos, false
		}
		return name, next + 1, true
	}
	if pos < len(content) && (content[pos] == '"' || content[pos] == '\'') {
		return parseQuoted(content, pos)
	}
	return "", pos, false
}

func parseQuotedOrBareURL(content string, pos int) (string, int, bool) {
	if pos < len(content) && (content[pos] == '"' || content[pos] == '\'') {
		return parseQuoted(content, pos)
	}
	start := pos
	for pos < len(content) && content[pos] != ')' {
		pos++
	}
	if pos >= len(content) {
		return "", pos, false
	}
	return strings.TrimSpace(content[start:pos]), pos, true
}

func parseQuoted(content string, pos int) (string, int, bool) {
	quote := content[pos]
	start := pos + 1
	i := start
	for i < len(content) && content[i] != quote {
		i++
	}
	if i >= len(content) {
		return "", pos, false
	}
	return content[start:i], i + 1, true
}

// parseOptionalMedia parses a trailing media condition: whatever text
// appears between the import target and the terminator.
func parseOptionalMedia(content string, pos int) (string, int) {
	start := pos
	for pos < len(content) && content[pos] != ';' && content[pos] != '\r' && content[pos] != '\n' {
		pos++
	}
	media := strings.TrimSpace(content[start:pos])
	return media, pos
}
