package transform

import (
	"fmt"
	"strings"

	"github.com/productiverage/cssminifier/internal/logger"
	"github.com/productiverage/cssminifier/internal/stylesheet"
)

// LessEngine is the external collaborator named in spec sections 1 and 6:
// it expands nested LESS selectors into flat, comma-joined top-level CSS
// rules. Its internals are explicitly out of scope for this module — we
// only consume its output. BasicNestingCompiler below is this module's own
// minimal stand-in (selector nesting + @media/@keyframes/@font-face
// passthrough only, no variables/mixins/operations), used where a real
// engine isn't wired in; a production deployment would replace it with a
// binding to an actual LESS implementation.
type LessEngine interface {
	Flatten(content string) (string, error)
}

// CompileAdapter implements component G: it asks the engine to flatten
// nesting, then applies the marker-id/sentinel path-filter visitor over
// each of the engine's rule sets before final emission.
type CompileAdapter struct {
	Next            stylesheet.Loader
	Engine          LessEngine
	Gen             *MarkerGenerator
	Sentinel        string
	HasSentinel     bool
	OnCompilerError Policy
	Log             *logger.Log
}

func (t CompileAdapter) Load(relativePath string) (stylesheet.FileContents, error) {
	in, err := t.Next.Load(relativePath)
	if err != nil {
		return stylesheet.FileContents{}, err
	}

	flat, err := t.Engine.Flatten(in.Content)
	if err != nil {
		if t.OnCompilerError == Strict {
			return stylesheet.FileContents{}, fmt.Errorf("%w: %v", ErrCompiler, err)
		}
		if t.Log != nil {
			t.Log.AddWarning(relativePath, fmt.Sprintf("less compiler error, continuing with partial output: %v", err))
		}
		// warn-and-continue: fall through using whatever the engine managed
		// to produce even on error.
	}

	markers := t.Gen.Recorded()
	in.Content = applyPathFilter(flat, markers, t.Sentinel, t.HasSentinel)
	return in, nil
}

// applyPathFilter re-walks engine-flattened CSS, which is structurally
// flat at the rule level (every selector list is already fully expanded,
// though @media/@supports still wrap their own nested rule sets and
// @keyframes/@font-face bodies are opaque), filtering each genuine rule
// set's selector paths per spec 4.G.
func applyPathFilter(content string, markers []string, sentinel string, hasSentinel bool) string {
	var b strings.Builder
	p := 0
	n := len(content)
	for p < n {
		kind, idx := nextTopLevelMark(content, p, n)
		switch kind {
		case markOpenBrace:
			header := content[p:idx]
			trimmedHeader := strings.TrimSpace(header)
			bodyStart := idx + 1
			bodyEnd := matchingCloseBrace(content, bodyStart)
			if bodyEnd < 0 {
				b.WriteString(content[p:])
				return b.String()
			}

			if strings.HasPrefix(trimmedHeader, "@") {
				b.WriteString(content[p:idx])
				b.WriteByte('{')
				if isOpaqueAtRule(trimmedHeader) {
					b.WriteString(content[bodyStart:bodyEnd])
				} else {
					b.WriteString(applyPathFilter(content[bodyStart:bodyEnd], markers, sentinel, hasSentinel))
				}
				b.WriteByte('}')
			} else {
				paths := splitSelectorList(trimmedHeader)
				kept := filterRuleSetPaths(paths, markers, sentinel, hasSentinel)
				if len(kept) > 0 {
					b.WriteString(strings.Join(kept, ","))
					b.WriteByte('{')
					b.WriteString(content[bodyStart:bodyEnd])
					b.WriteByte('}')
				}
			}
			p = bodyEnd + 1
		case markSemiColon:
			b.WriteString(content[p : idx+1])
			p = idx + 1
		default:
			b.WriteString(content[p:])
			p = n
		}
	}
	return b.String()
}

func isOpaqueAtRule(header string) bool {
	lower := strings.ToLower(header)
	return strings.HasPrefix(lower, "@keyframes") || strings.HasPrefix(lower, "@font-face")
}

type markKind int

const (
	markOpenBrace markKind = iota
	markSemiColon
	markEOF
)

// nextTopLevelMark finds the next '{' or ';' at depth 0 (relative to
// start), skipping strings/comments/paren-or-bracket-nested content,
// bounded by end. Callers that only ever recurse into bodies already
// isolated by matchingCloseBrace (applyPathFilter) can ignore the
// semicolon case; parseNestedRules needs it to tell a bare declaration
// apart from a nested rule's header.
func nextTopLevelMark(content string, pos, end int) (markKind, int) {
	depth := 0
	i := pos
	for i < end {
		c := content[i]
		switch {
		case c == '/' && i+1 < end && content[i+1] == '*':
			i += 2
			for i < end && !(content[i] == '*' && i+1 < end && content[i+1] == '/') {
				i++
			}
			if i < end {
				i += 2
			}
			continue
		case c == '"' || c == '\'':
			quote := c
			i++
			for i < end {
				if content[i] == '\\' && i+1 < end {
					i += 2
					continue
				}
				if content[i] == quote {
					i++
					break
				}
				i++
			}
			continue
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
		case depth == 0 && c == '{':
			return markOpenBrace, i
		case depth == 0 && c == ';':
			return markSemiColon, i
		}
		i++
	}
	return markEOF, end
}

// splitSelectorList splits a header on top-level commas (not inside
// parens/brackets) and trims each entry.
func splitSelectorList(header string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(header); i++ {
		switch header[i] {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(header[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(header[start:]))
	return out
}

// filterRuleSetPaths implements the selector-path filtering algorithm from
// spec 4.G, resolving the open question in favour of the variant that
// matches scenario 5: a marker anywhere but the final compound selector
// pollutes and drops the whole path; a marker as the final compound
// selector collapses the path down to just that marker, emitted at most
// once per rule set; paths with no marker at all are kept with sentinel
// compounds stripped.
func filterRuleSetPaths(paths []string, markers []string, sentinel string, hasSentinel bool) []string {
	markerSet := make(map[string]bool, len(markers))
	for _, m := range markers {
		markerSet[m] = true
	}

	emitted := map[string]bool{}
	var kept []string

	for _, path := range paths {
		compounds := splitCompounds(path)
		finalIdx := len(compounds) - 1

		polluted := false
		finalIsMarker := false
		for i, c := range compounds {
			if markerSet[c] {
				if i != finalIdx {
					polluted = true
				} else {
					finalIsMarker = true
				}
				continue
			}
			for m := range markerSet {
				if strings.HasPrefix(c, m) && c != m {
					polluted = true
				}
			}
		}
		if polluted {
			continue
		}

		if finalIsMarker {
			marker := compounds[finalIdx]
			if emitted[marker] {
				continue
			}
			emitted[marker] = true
			kept = append(kept, marker)
			continue
		}

		if hasSentinel {
			filtered := stripSentinelCompounds(compounds, sentinel)
			if len(filtered) == 0 {
				continue
			}
			kept = append(kept, joinCompounds(filtered))
			continue
		}

		kept = append(kept, path)
	}

	return kept
}

// splitCompounds splits a selector path into compound selectors, treating
// whitespace and the combinators '>', '+', '~' as separators while keeping
// the leading combinator attached to the following compound (matching how
// BasicNestingCompiler joins combinator-led nested selectors).
func splitCompounds(path string) []string {
	var out []string
	var cur strings.Builder
	pendingCombinator := byte(0)
	flush := func() {
		if cur.Len() == 0 && pendingCombinator == 0 {
			return
		}
		text := cur.String()
		if pendingCombinator != 0 {
			text = string(pendingCombinator) + text
		}
		if strings.TrimSpace(text) != "" {
			out = append(out, text)
		}
		cur.Reset()
		pendingCombinator = 0
	}
	i := 0
	for i < len(path) {
		c := path[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		case c == '>' || c == '+' || c == '~':
			flush()
			pendingCombinator = c
		default:
			cur.WriteByte(c)
		}
		i++
	}
	flush()
	return out
}

func joinCompounds(compounds []string) string {
	var b strings.Builder
	for i, c := range compounds {
		if i > 0 && len(c) > 0 && c[0] != '>' && c[0] != '+' && c[0] != '~' {
			b.WriteByte(' ')
		}
		b.WriteString(c)
	}
	return b.String()
}

func stripSentinelCompounds(compounds []string, sentinel string) []string {
	var out []string
	for _, c := range compounds {
		trimmed := c
		lead := byte(0)
		if len(c) > 0 && (c[0] == '>' || c[0] == '+' || c[0] == '~') {
			lead = c[0]
			trimmed = c[1:]
		}
		if trimmed == sentinel {
			continue
		}
		if lead != 0 {
			out = append(out, string(lead)+trimmed)
		} else {
			out = append(out, trimmed)
		}
	}
	return out
}
