package transform

import (
	"strings"

	"github.com/productiverage/cssminifier/internal/segment"
	"github.com/productiverage/cssminifier/internal/stylesheet"
)

// StripComments implements component B: every Comment segment is replaced
// by only the \r/\n characters it contained, so the total \n count of the
// file is preserved exactly (spec section 8, "comment stripping preserves
// line count"). Idempotent: a second pass finds no Comment segments.
type StripComments struct {
	Next        stylesheet.Loader
	LessComment bool // enable "//" line comments
}

func (t StripComments) Load(relativePath string) (stylesheet.FileContents, error) {
	in, err := t.Next.Load(relativePath)
	if err != nil {
		return stylesheet.FileContents{}, err
	}
	in.Content = stripComments(in.Content, t.LessComment)
	return in, nil
}

func stripComments(src string, lessComments bool) string {
	var b strings.Builder
	b.Grow(len(src))
	s := segment.New(src, lessComments)
	for {
		seg, ok := s.Next()
		if !ok {
			break
		}
		if seg.Kind == segment.Comment {
			for _, c := range seg.Value {
				if c == '\r' || c == '\n' {
					b.WriteRune(c)
				}
			}
			continue
		}
		if seg.Kind == segment.Terminator {
			continue
		}
		b.WriteString(seg.Value)
	}
	return b.String()
}
