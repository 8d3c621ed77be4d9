package transform

import (
	"github.com/productiverage/cssminifier/internal/segment"
	"github.com/productiverage/cssminifier/internal/stylesheet"
)

// WrapperRenamer implements component D: it detects a file entirely scoped
// by an outer tag selector (conventionally "html") and substitutes that
// selector with a sentinel string that stage G later strips from emitted
// selector paths. If the file isn't shaped that way, content passes
// through unchanged.
type WrapperRenamer struct {
	Next     stylesheet.Loader
	TagName  string // empty disables this stage
	Sentinel string
}

func (t WrapperRenamer) Load(relativePath string) (stylesheet.FileContents, error) {
	in, err := t.Next.Load(relativePath)
	if err != nil {
		return stylesheet.FileContents{}, err
	}
	if t.TagName == "" {
		return in, nil
	}
	in.Content = renameWrapper(in.Content, t.TagName, t.Sentinel)
	return in, nil
}

func renameWrapper(src, tagName, sentinel string) string {
	segs := segment.All(segment.New(src, true))

	sig := significant(segs, 0)
	if sig < 0 || segs[sig].Kind != segment.SelectorOrStyleProperty || segs[sig].Value != tagName {
		return src
	}
	tagSeg := segs[sig]

	brace := significant(segs, sig+1)
	if brace < 0 || segs[brace].Kind != segment.OpenBrace {
		return src
	}

	inner := significant(segs, brace+1)
	if inner < 0 || segs[inner].Kind != segment.SelectorOrStyleProperty {
		return src
	}
	next := significant(segs, inner+1)
	if next >= 0 && segs[next].Kind == segment.StylePropertyColon {
		// This is a property, not a nested rule set: not the expected shape.
		return src
	}

	return src[:tagSeg.Index] + sentinel + src[tagSeg.Index+len(tagSeg.Value):]
}

// significant returns the index of the first segment at or after from that
// isn't Whitespace or Comment, or -1.
func significant(segs []segment.Segment, from int) int {
	for i := from; i < len(segs); i++ {
		if segs[i].Kind != segment.Whitespace && segs[i].Kind != segment.Comment {
			return i
		}
	}
	return -1
}
