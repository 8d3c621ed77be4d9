package transform

import (
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/productiverage/cssminifier/internal/segment"
	"github.com/productiverage/cssminifier/internal/stylesheet"
)

// MarkerGenerator is the shared, pipeline-invocation-scoped object from
// design note "shared marker state": it mints marker ids and keeps an
// append-only, ordered, read-only-to-readers record of every id it has
// produced. The inserter (E) and the compile adapter's path filter (G)
// each receive a pointer to the same instance as their capability handle;
// it is created fresh per pipeline run and never globalised.
type MarkerGenerator struct {
	mu       sync.Mutex
	recorded []string
}

func NewMarkerGenerator() *MarkerGenerator {
	return &MarkerGenerator{}
}

// Generate produces the marker text to splice into content ("#id,", with
// the trailing comma so it can be prepended directly into a selector
// list) and records the bare id for later retrieval by stage G.
func (g *MarkerGenerator) Generate(relativePath string, line int) string {
	ident := identFromFilename(relativePath)
	if ident == "" {
		return ""
	}
	id := "#" + ident + "_" + strconv.Itoa(line)
	g.mu.Lock()
	g.recorded = append(g.recorded, id)
	g.mu.Unlock()
	return id + ","
}

// Recorded returns the ordered list of marker ids produced so far. This is
// the read-only capability handed to readers (stage G).
func (g *MarkerGenerator) Recorded() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.recorded))
	copy(out, g.recorded)
	return out
}

// identFromFilename implements the transform from spec section 3: take the
// last path segment, replace every character that isn't a letter, digit,
// '_', '-' or '.' with '_', collapse runs of '_', and skip leading
// non-letters. If no letter remains, the empty string signals "no marker".
func identFromFilename(relativePath string) string {
	name := relativePath
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	collapsed := collapseUnderscores(b.String())

	start := 0
	for start < len(collapsed) && !isLetter(collapsed[start]) {
		start++
	}
	ident := collapsed[start:]
	for _, c := range ident {
		if isLetter(byte(c)) {
			return ident
		}
	}
	return ""
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func collapseUnderscores(s string) string {
	var b strings.Builder
	lastWasUnderscore := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			if lastWasUnderscore {
				continue
			}
			lastWasUnderscore = true
		} else {
			lastWasUnderscore = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// stableHash implements the "scope" + stable_hash(path) fallback named
// explicitly in spec section 4.F, using xxhash (the hashing library
// standardbeagle-lci wires in for exactly this kind of cheap, stable,
// non-cryptographic path keying).
func stableHash(relativePath string) string {
	h := xxhash.Sum64String(relativePath)
	return strconv.FormatUint(h, 36)
}

// MarkerInjection selects which selectors receive a marker, per spec
// section 6.
type MarkerInjection uint8

const (
	MarkerInjectionOff MarkerInjection = iota
	MarkerInjectionAllSelectors
	MarkerInjectionSkipBareElements
	MarkerInjectionSkipIsolatedBareElements
)

// isBareElementSelector matches the glossary definition: no '.', '#', ':',
// '[', '>' and no ','.
func isBareElementSelector(selectorText string) bool {
	if strings.ContainsAny(selectorText, ".#:[>,") {
		return false
	}
	return strings.TrimSpace(selectorText) != ""
}

// MarkerInserter implements component E's inserter: walking content in
// reading order (a forward reformulation of the spec's reverse walk that
// produces the same marker positions and line numbers) and emitting a
// marker immediately after the '{', '}' or ';' that precedes each selector
// header, skipping @-rule headers, headers ending in ')' and, depending on
// Injection, bare-element selectors. @font-face and @keyframes headers,
// and any selector nested under an @keyframes block, never receive
// markers, whatever the Injection.
type MarkerInserter struct {
	Next      stylesheet.Loader
	Gen       *MarkerGenerator
	Injection MarkerInjection
}

func (t MarkerInserter) Load(relativePath string) (stylesheet.FileContents, error) {
	in, err := t.Next.Load(relativePath)
	if err != nil {
		return stylesheet.FileContents{}, err
	}
	if t.Injection == MarkerInjectionOff {
		return in, nil
	}
	in.Content = insertMarkers(in.Content, t.Gen, relativePath, t.Injection)
	return in, nil
}

type markerFrame struct {
	suppressChildren bool
}

type markerInsertion struct {
	pos  int
	text string
}

func insertMarkers(content string, gen *MarkerGenerator, relativePath string, injection MarkerInjection) string {
	segs := segment.All(segment.New(content, true))

	var stack []markerFrame
	var insertions []markerInsertion
	runStart := 0

	for _, seg := range segs {
		switch seg.Kind {
		case segment.OpenBrace:
			headerText := strings.TrimSpace(content[runStart:seg.Index])
			// Spec section 4.E's reverse walk aborts on ')' or '@' immediately
			// before the header: a mixin call or parametric LESS header isn't a
			// selector. A header ending in ')' catches that case along with
			// ordinary pseudo-class functions like ":not(.foo)".
			notASelector := strings.HasPrefix(headerText, "@") || strings.HasSuffix(headerText, ")")
			parentSuppresses := len(stack) > 0 && stack[len(stack)-1].suppressChildren

			if !notASelector && !parentSuppresses && headerText != "" && !skipsMarker(headerText, injection, len(stack)) {
				line := lineOf(content, runStart, seg.Index)
				if marker := gen.Generate(relativePath, line); marker != "" {
					insertions = append(insertions, markerInsertion{pos: runStart, text: marker})
				}
			}

			suppress := parentSuppresses || strings.HasPrefix(strings.ToLower(headerText), "@keyframes")
			stack = append(stack, markerFrame{suppressChildren: suppress})
			runStart = seg.Index + 1

		case segment.CloseBrace:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			runStart = seg.Index + 1

		case segment.SemiColon:
			runStart = seg.Index + 1
		}
	}

	if len(insertions) == 0 {
		return content
	}

	var b strings.Builder
	b.Grow(len(content) + len(insertions)*16)
	last := 0
	for _, ins := range insertions {
		b.WriteString(content[last:ins.pos])
		b.WriteString(ins.text)
		last = ins.pos
	}
	b.WriteString(content[last:])
	return b.String()
}

func skipsMarker(headerText string, injection MarkerInjection, depth int) bool {
	switch injection {
	case MarkerInjectionSkipBareElements:
		return isBareElementSelector(headerText)
	case MarkerInjectionSkipIsolatedBareElements:
		return depth == 0 && isBareElementSelector(headerText)
	default:
		return false
	}
}

// lineOf computes the 1-based line number of the last non-whitespace
// character in content[runStart:headerEnd) — "the line the declaration's
// header ends on" (spec section 3), which is not necessarily the line of
// headerEnd itself since trailing whitespace/newlines before '{' don't
// count.
func lineOf(content string, runStart, headerEnd int) int {
	end := headerEnd
	for end > runStart && isBlank(content[end-1]) {
		end--
	}
	return 1 + strings.Count(content[:end], "\n")
}

func isBlank(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f':
		return true
	}
	return false
}
