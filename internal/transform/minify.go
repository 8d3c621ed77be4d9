package transform

import (
	"regexp"
	"strings"

	"github.com/productiverage/cssminifier/internal/stylesheet"
)

// Minifier implements component I, applied once as the final CSS step.
// The steps are deliberately simple regular-expression-style rewrites (per
// spec section 4.I) rather than a real parser — by design, since a full
// CSS parser/validator is an explicit non-goal (spec section 1).
type Minifier struct {
	Next stylesheet.Loader
}

func (t Minifier) Load(relativePath string) (stylesheet.FileContents, error) {
	in, err := t.Next.Load(relativePath)
	if err != nil {
		return stylesheet.FileContents{}, err
	}
	in.Content = Minify(in.Content)
	return in, nil
}

var (
	tagBeforeHashRE    = regexp.MustCompile(`[A-Za-z]+#`)
	newlineRunRE       = regexp.MustCompile(`[\r\n]+[ \t\r\n\f]*`)
	whitespaceRunRE    = regexp.MustCompile(`[ \t\f]+`)
	whitespaceAroundRE = regexp.MustCompile(`\s*([:,;{}])\s*`)
	semiCloseBraceRE   = regexp.MustCompile(`;}`)
	zeroUnitRE         = regexp.MustCompile(`\b0 (px|pt|%|em)\b`)
	trailingCommentRE  = regexp.MustCompile(`/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`)
)

// Minify runs the eight ordered steps from spec section 4.I.
func Minify(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	// Step 2: append a sentinel so an unterminated trailing comment is
	// still closed off and gets stripped rather than swallowing the rest
	// of the file.
	content = trailingCommentRE.ReplaceAllString(content+"/**/", "")

	content = tagBeforeHashRE.ReplaceAllString(content, "#")
	content = newlineRunRE.ReplaceAllString(content, "")
	content = whitespaceRunRE.ReplaceAllString(content, " ")
	content = whitespaceAroundRE.ReplaceAllString(content, "$1")
	content = semiCloseBraceRE.ReplaceAllString(content, "}")
	content = zeroUnitRE.ReplaceAllString(content, "0$1")

	return content
}
