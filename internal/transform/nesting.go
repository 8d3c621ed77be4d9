package transform

import "strings"

// BasicNestingCompiler is this module's own stand-in for the external LESS
// engine named in spec sections 1 and 6: it expands nested selector blocks
// (including comma lists and leading-combinator child rules) into flat,
// top-level rules, and recurses into @media/@supports bodies while passing
// @keyframes/@font-face bodies through untouched. It does not implement
// variables, mixins, or operations — those are out of scope (spec section
// 1 only asks for nesting-driven selector concatenation, which is all the
// pipeline's own scenarios exercise).
type BasicNestingCompiler struct{}

func (BasicNestingCompiler) Flatten(content string) (string, error) {
	nodes := parseNestedRules(content, 0, len(content), []string{""})
	var b strings.Builder
	writeNodes(&b, nodes)
	return b.String(), nil
}

type nestedNode struct {
	isAtRule bool
	header   string
	opaque   bool
	rawBody  string
	children []nestedNode // only set for non-opaque at-rules (e.g. @media)

	paths  []string // combined selector paths, pre-filter (non-at-rule only)
	direct string    // declaration text for paths (non-at-rule only)
}

// parseNestedRules walks content[start:end) (already inside an open brace
// or at the document root), combining each nested selector header with
// parents via combineSelectors, and flattening non-at-rule nesting into
// sibling nodes rather than a tree: that's what a real nesting compiler
// does too, since every flattened rule becomes an independent top-level
// block.
func parseNestedRules(content string, start, end int, parents []string) []nestedNode {
	var out []nestedNode
	var direct strings.Builder
	pos := start

	for pos < end {
		kind, idx := nextTopLevelMark(content, pos, end)
		switch kind {
		case markOpenBrace:
			header := strings.TrimSpace(content[pos:idx])
			bodyStart := idx + 1
			bodyEnd := matchingCloseBrace(content, bodyStart)
			if bodyEnd < 0 || bodyEnd > end {
				bodyEnd = end
			}

			if strings.HasPrefix(header, "@") {
				if isOpaqueAtRule(header) {
					out = append(out, nestedNode{isAtRule: true, header: header, opaque: true, rawBody: content[bodyStart:bodyEnd]})
				} else {
					children := parseNestedRules(content, bodyStart, bodyEnd, []string{""})
					out = append(out, nestedNode{isAtRule: true, header: header, children: children})
				}
			} else {
				combined := combineSelectors(parents, splitSelectorList(header))
				nested := parseNestedRules(content, bodyStart, bodyEnd, combined)
				out = append(out, nested...)
			}
			pos = bodyEnd + 1

		case markSemiColon:
			direct.WriteString(content[pos : idx+1])
			pos = idx + 1

		case markEOF:
			direct.WriteString(content[pos:end])
			pos = end
		}
	}

	if strings.TrimSpace(direct.String()) != "" {
		out = append([]nestedNode{{paths: parents, direct: direct.String()}}, out...)
	}
	return out
}

func writeNodes(b *strings.Builder, nodes []nestedNode) {
	for _, n := range nodes {
		if n.isAtRule {
			b.WriteString(n.header)
			b.WriteByte('{')
			if n.opaque {
				b.WriteString(n.rawBody)
			} else {
				writeNodes(b, n.children)
			}
			b.WriteByte('}')
			continue
		}
		if strings.TrimSpace(n.direct) == "" {
			continue
		}
		b.WriteString(strings.Join(n.paths, ","))
		b.WriteByte('{')
		b.WriteString(n.direct)
		b.WriteByte('}')
	}
}

// combineSelectors cross-products parent paths with this level's own
// selector alternatives, joining with a descendant space unless the own
// selector leads with a combinator ('>', '+', '~'), in which case it's
// concatenated directly with any whitespace after the combinator trimmed
// away (spec scenario 5's "#test.css_1>h2" has no space either side).
func combineSelectors(parents []string, owns []string) []string {
	var out []string
	for _, p := range parents {
		for _, o := range owns {
			out = append(out, joinSelector(p, o))
		}
	}
	return out
}

func joinSelector(parent, own string) string {
	own = strings.TrimSpace(own)
	if own == "" {
		return strings.TrimSpace(parent)
	}
	if parent == "" {
		return own
	}
	switch own[0] {
	case '>', '+', '~':
		return parent + string(own[0]) + strings.TrimSpace(own[1:])
	default:
		return parent + " " + own
	}
}
