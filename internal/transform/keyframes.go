package transform

import (
	"regexp"
	"strings"

	"github.com/productiverage/cssminifier/internal/segment"
	"github.com/productiverage/cssminifier/internal/stylesheet"
)

// KeyframeScoper implements component F: @keyframes identifiers that
// appear nested inside another block are prefixed per-file so that two
// files can each define "@keyframes fade" without colliding once both are
// inlined into the same stylesheet, and every animation/animation-name
// reference to that identifier is rewritten to match.
type KeyframeScoper struct {
	Next stylesheet.Loader
}

func (t KeyframeScoper) Load(relativePath string) (stylesheet.FileContents, error) {
	in, err := t.Next.Load(relativePath)
	if err != nil {
		return stylesheet.FileContents{}, err
	}
	in.Content = scopeKeyframes(in.Content, in.RelativePath)
	return in, nil
}

var keyframesHeaderRE = regexp.MustCompile(`(?i)^@keyframes\s+([^\s{]+)\s*$`)

var animationPropertyRE = regexp.MustCompile(`(?i)(^animation$|^animation-name$|-animation$|-animation-name$)`)

// spliceOp is a single left-to-right text replacement, used by the
// keyframe renaming below to apply several non-overlapping edits to a
// string in one pass (the marker inserter keeps its own insertion list;
// the media grouper and minifier rebuild content wholesale).
type spliceOp struct {
	start, end int
	text       string
}

func scopeKeyframes(content, relativePath string) string {
	prefix := keyframePrefix(relativePath)

	segs := segment.All(segment.New(content, true))

	renames := map[string]string{}
	var splices []spliceOp

	depth := 0
	runStart := 0
	for _, seg := range segs {
		switch seg.Kind {
		case segment.OpenBrace:
			headerText := strings.TrimSpace(content[runStart:seg.Index])
			if depth >= 1 {
				if m := keyframesHeaderRE.FindStringSubmatch(headerText); m != nil {
					name := m[1]
					renamed := prefix + "_" + name
					renames[name] = renamed
					if idx := strings.LastIndex(content[runStart:seg.Index], name); idx >= 0 {
						nameStart := runStart + idx
						splices = append(splices, spliceOp{start: nameStart, end: nameStart + len(name), text: renamed})
					}
				}
			}
			depth++
			runStart = seg.Index + 1
		case segment.CloseBrace:
			if depth > 0 {
				depth--
			}
			runStart = seg.Index + 1
		case segment.SemiColon:
			runStart = seg.Index + 1
		}
	}

	if len(renames) == 0 {
		return content
	}

	// Second pass: rewrite animation/animation-name values referencing a
	// renamed identifier. Collected as additional splices so both passes'
	// edits can be applied together, left to right.
	runStart = 0
	var lastProperty string
	for _, seg := range segs {
		switch seg.Kind {
		case segment.SelectorOrStyleProperty:
			lastProperty = strings.ToLower(strings.TrimSpace(seg.Value))
		case segment.Value:
			// Each Value segment is a single whitespace-delimited word (the
			// scanner never merges words across whitespace), so an exact
			// lookup is all that's needed — no sub-token splitting.
			if animationPropertyRE.MatchString(lastProperty) {
				if renamed, ok := renames[seg.Value]; ok {
					splices = append(splices, spliceOp{start: seg.Index, end: seg.Index + len(seg.Value), text: renamed})
				}
			}
		case segment.SemiColon, segment.OpenBrace, segment.CloseBrace:
			lastProperty = ""
		}
	}

	if len(splices) == 0 {
		return content
	}

	sortSplices(splices)

	var b strings.Builder
	last := 0
	for _, sp := range splices {
		if sp.start < last {
			continue // overlapping edit from a malformed input; keep the first
		}
		b.WriteString(content[last:sp.start])
		b.WriteString(sp.text)
		last = sp.end
	}
	b.WriteString(content[last:])
	return b.String()
}

func sortSplices(splices []spliceOp) {
	for i := 1; i < len(splices); i++ {
		for j := i; j > 0 && splices[j-1].start > splices[j].start; j-- {
			splices[j-1], splices[j] = splices[j], splices[j-1]
		}
	}
}

// keyframePrefix reuses the filename-to-ident transform but strips the
// extension first, so "test1.css" scopes as "test1" (spec section 4.F's
// worked example) rather than "test1.css". Falls back to a stable hash of
// the full path when no letter survives.
func keyframePrefix(relativePath string) string {
	name := relativePath
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if ident := identFromFilename(name); ident != "" {
		return ident
	}
	return "scope" + stableHash(relativePath)
}

