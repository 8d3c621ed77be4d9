package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(src string, lessComments bool) []Segment {
	return All(New(src, lessComments))
}

func TestScannerDeclaration(t *testing.T) {
	segs := collect("div { color: red; }", true)
	var kinds []Kind
	for _, seg := range segs {
		kinds = append(kinds, seg.Kind)
	}
	assert.Equal(t, []Kind{
		SelectorOrStyleProperty, // div
		Whitespace,
		OpenBrace,
		Whitespace,
		SelectorOrStyleProperty, // color
		StylePropertyColon,
		Whitespace,
		Value, // red
		SemiColon,
		Whitespace,
		CloseBrace,
		Terminator,
	}, kinds)
}

func TestScannerPseudoClassColonStaysInSelector(t *testing.T) {
	segs := collect("a:hover{color:red}", false)
	assert.Equal(t, "a:hover", segs[0].Value)
	assert.Equal(t, SelectorOrStyleProperty, segs[0].Kind)
}

func TestScannerNestedLess(t *testing.T) {
	segs := collect("body\n{\n  div.Header\n  {\n    color: black;\n  }\n}\n", true)
	var values []string
	for _, seg := range segs {
		if seg.Kind == SelectorOrStyleProperty {
			values = append(values, seg.Value)
		}
	}
	assert.Equal(t, []string{"body", "div.Header", "color"}, values)
}

func TestScannerLineCommentOnlyInLessMode(t *testing.T) {
	segs := collect("// hi\na{b:c}", true)
	assert.Equal(t, Comment, segs[0].Kind)

	segs = collect("// hi\na{b:c}", false)
	assert.NotEqual(t, Comment, segs[0].Kind)
}

func TestScannerStringLiteralNotSplit(t *testing.T) {
	segs := collect(`a[href^="http://x"]{color:red}`, false)
	// The quoted string is one atomic segment between the selector text
	// around it; "//" and ':' inside it are not split out.
	assert.Equal(t, `"http://x"`, segs[1].Value)
}

func TestScannerUnterminatedComment(t *testing.T) {
	segs := collect("/* oops", false)
	assert.Len(t, segs, 2)
	assert.Equal(t, Comment, segs[0].Kind)
	assert.Equal(t, Terminator, segs[1].Kind)
}
