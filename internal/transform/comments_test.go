package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCommentsBlockComment(t *testing.T) {
	out := stripComments("p { color: red; /* inline */ }", false)
	assert.Equal(t, "p { color: red;  }", out)
}

func TestStripCommentsLessLineComment(t *testing.T) {
	out := stripComments("p {\n  color: red; // trailing note\n}", true)
	assert.NotContains(t, out, "trailing note")
	assert.NotContains(t, out, "//")
}

func TestStripCommentsLineCommentSurvivesWithoutLessMode(t *testing.T) {
	// Without LessComment, "//" is never classified as a comment (spec
	// section 4.A restricts line comments to LESS mode), so it must
	// pass through untouched rather than being silently dropped.
	out := stripComments("p {\n  color: red; // not a comment here\n}", false)
	assert.Contains(t, out, "// not a comment here")
}

func TestStripCommentsUnterminatedAtEOF(t *testing.T) {
	out := stripComments("p{color:red}/* trailing\r\nwith two lines", false)
	assert.Contains(t, out, "p{color:red}")
	assert.NotContains(t, out, "trailing")
}

func TestStripCommentsPreservesLineCount(t *testing.T) {
	inputs := []string{
		"/* Test 1 */\r\np { color: blue; }\r\n/*\r\n",
		"a{}\n/* one\ntwo\nthree */\nb{}\n",
		"// a\n.c{color:red} // b\n",
		"no comments here at all",
	}
	for _, in := range inputs {
		out := stripComments(in, true)
		assert.Equal(t, strings.Count(in, "\n"), strings.Count(out, "\n"), "input %q", in)
	}
}

func TestStripCommentsIdempotent(t *testing.T) {
	in := "p { color: red; /* c */ }\r\n"
	once := stripComments(in, true)
	twice := stripComments(once, true)
	assert.Equal(t, once, twice)
}
