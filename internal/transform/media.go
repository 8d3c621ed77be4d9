package transform

import (
	"strings"

	"github.com/productiverage/cssminifier/internal/stylesheet"
)

// MediaQueryGrouper implements component H. It assumes minified input
// (spec section 4.H's stated precondition: headers that "mean the same
// thing" must already be byte-equal), and reorders content so ordinary
// rules appear first, followed by one block per distinct @media header
// with all matching bodies merged in encounter order.
type MediaQueryGrouper struct {
	Next stylesheet.Loader
}

func (t MediaQueryGrouper) Load(relativePath string) (stylesheet.FileContents, error) {
	in, err := t.Next.Load(relativePath)
	if err != nil {
		return stylesheet.FileContents{}, err
	}
	in.Content = GroupMediaQueries(in.Content)
	return in, nil
}

const mediaKeyword = "@media"

// GroupMediaQueries performs the grouping. It is written as a direct
// brace-depth walk rather than routed through the
// segment scanner: a media header and body can both contain arbitrary
// nested rule blocks, which the scanner's run-at-a-time model isn't suited
// to matching braces across.
func GroupMediaQueries(content string) string {
	var outside strings.Builder
	var order []string
	groups := map[string]*strings.Builder{}

	p := 0
	n := len(content)
	for p < n {
		if strings.HasPrefix(content[p:], mediaKeyword) {
			braceIdx := strings.IndexByte(content[p:], '{')
			if braceIdx < 0 {
				outside.WriteString(content[p:])
				break
			}
			braceIdx += p
			header := content[p:braceIdx]
			bodyStart := braceIdx + 1
			bodyEnd := matchingCloseBrace(content, bodyStart)
			if bodyEnd < 0 {
				outside.WriteString(content[p:])
				break
			}
			if _, ok := groups[header]; !ok {
				groups[header] = &strings.Builder{}
				order = append(order, header)
			}
			groups[header].WriteString(content[bodyStart:bodyEnd])
			p = bodyEnd + 1
			continue
		}

		end := endOfTopLevelChunk(content, p)
		outside.WriteString(content[p:end])
		p = end
	}

	var b strings.Builder
	b.WriteString(outside.String())
	for _, header := range order {
		b.WriteString(header)
		b.WriteByte('{')
		b.WriteString(groups[header].String())
		b.WriteByte('}')
	}
	return b.String()
}

// endOfTopLevelChunk returns the index just past the next top-level rule
// starting at p ("selector{body}"), matching nested braces. If there's no
// brace left at all, the rest of the content is one chunk.
func endOfTopLevelChunk(content string, p int) int {
	brace := strings.IndexByte(content[p:], '{')
	if brace < 0 {
		return len(content)
	}
	braceIdx := p + brace
	close := matchingCloseBrace(content, braceIdx+1)
	if close < 0 {
		return len(content)
	}
	return close + 1
}

// matchingCloseBrace finds the '}' that closes the block whose content
// starts at bodyStart (i.e. one nesting level already open).
func matchingCloseBrace(content string, bodyStart int) int {
	depth := 1
	for i := bodyStart; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
