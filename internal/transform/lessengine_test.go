package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRuleSetPathsScenario5(t *testing.T) {
	paths := []string{
		"#test.css_1 #test.css_2",
		"#test.css_1>h2",
		".Woo #test.css_2",
		".Woo>h2",
	}
	markers := []string{"#test.css_1", "#test.css_2"}

	kept := filterRuleSetPaths(paths, markers, "", false)
	assert.Equal(t, []string{"#test.css_2", ".Woo>h2"}, kept)
}

func TestApplyPathFilterScenario5(t *testing.T) {
	in := "#test.css_1 #test.css_2,#test.css_1>h2,.Woo #test.css_2,.Woo>h2{font-weight:bold}"
	markers := []string{"#test.css_1", "#test.css_2"}
	out := applyPathFilter(in, markers, "", false)
	assert.Equal(t, "#test.css_2,.Woo>h2{font-weight:bold}", out)
}

func TestFilterRuleSetPathsEmittedAtMostOnce(t *testing.T) {
	paths := []string{".A #id_1", ".B #id_1"}
	markers := []string{"#id_1"}
	kept := filterRuleSetPaths(paths, markers, "", false)
	assert.Equal(t, []string{"#id_1"}, kept)
}

func TestFilterRuleSetPathsSentinelStripped(t *testing.T) {
	paths := []string{".wrap .Woo"}
	kept := filterRuleSetPaths(paths, nil, ".wrap", true)
	assert.Equal(t, []string{".Woo"}, kept)
}

func TestFilterRuleSetPathsSentinelOnlyPathDropped(t *testing.T) {
	paths := []string{".wrap"}
	kept := filterRuleSetPaths(paths, nil, ".wrap", true)
	assert.Empty(t, kept)
}

func TestApplyPathFilterKeyframesPassthroughUnfiltered(t *testing.T) {
	in := "@keyframes test1_spin{from{#id_1}50%{#id_1}}"
	out := applyPathFilter(in, []string{"#id_1"}, "", false)
	assert.Equal(t, in, out)
}

func TestApplyPathFilterRecursesIntoMedia(t *testing.T) {
	in := "@media screen{#test.css_1 #test.css_2,.Woo #test.css_2{color:red}}"
	out := applyPathFilter(in, []string{"#test.css_1", "#test.css_2"}, "", false)
	assert.Equal(t, "@media screen{#test.css_2{color:red}}", out)
}

func TestBasicNestingCompilerFlattensSimpleNesting(t *testing.T) {
	c := BasicNestingCompiler{}
	out, err := c.Flatten("body{div.Header{color:black;}}")
	require.NoError(t, err)
	assert.Equal(t, "body div.Header{color:black;}", out)
}

func TestBasicNestingCompilerCombinesCommaListsAndChildCombinator(t *testing.T) {
	c := BasicNestingCompiler{}
	out, err := c.Flatten("#test.css_1,.Woo{#test.css_2,>h2{font-weight:bold;}}")
	require.NoError(t, err)
	assert.Equal(t,
		"#test.css_1 #test.css_2,#test.css_1>h2,.Woo #test.css_2,.Woo>h2{font-weight:bold;}",
		out)
}

func TestBasicNestingCompilerPassesKeyframesThrough(t *testing.T) {
	c := BasicNestingCompiler{}
	out, err := c.Flatten("@keyframes spin{from{opacity:0;}to{opacity:1;}}")
	require.NoError(t, err)
	assert.Equal(t, "@keyframes spin{from{opacity:0;}to{opacity:1;}}", out)
}

func TestBasicNestingCompilerRecursesIntoMedia(t *testing.T) {
	c := BasicNestingCompiler{}
	out, err := c.Flatten("@media screen{div.Header{color:black;}}")
	require.NoError(t, err)
	assert.Equal(t, "@media screen{div.Header{color:black;}}", out)
}

func TestBasicNestingCompilerDirectDeclarationsKeptWithNestedSiblings(t *testing.T) {
	c := BasicNestingCompiler{}
	out, err := c.Flatten("div.Header{color:black;h2{font-weight:bold;}}")
	require.NoError(t, err)
	assert.Equal(t, "div.Header{color:black;}div.Header h2{font-weight:bold;}", out)
}
