package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyframeScoperNested(t *testing.T) {
	src := "html { @keyframes my-animation { } .toBeAnimated { animation: my-animation 2s; } }"
	out := scopeKeyframes(src, "test1.css")
	assert.Equal(t, "html { @keyframes test1_my-animation { } .toBeAnimated { animation: test1_my-animation 2s; } }", out)
}

func TestKeyframeScoperTopLevelNotRenamed(t *testing.T) {
	src := "@keyframes my-animation { from { opacity: 0; } }\n.x { animation: my-animation 1s; }"
	out := scopeKeyframes(src, "test1.css")
	assert.Equal(t, src, out)
}

func TestKeyframeScoperAnimationNameProperty(t *testing.T) {
	src := "html { @keyframes spin { } .x { animation-name: spin; } }"
	out := scopeKeyframes(src, "widget.css")
	assert.Contains(t, out, "@keyframes widget_spin")
	assert.Contains(t, out, "animation-name: widget_spin")
}
