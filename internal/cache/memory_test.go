package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLayerPutGetRemove(t *testing.T) {
	m := NewMemoryLayer()
	_, ok := m.Get("a")
	assert.False(t, ok)

	m.Put("a", Entry{Content: "x", LastModified: time.Now()})
	got, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "x", got.Content)

	m.Remove("a")
	_, ok = m.Get("a")
	assert.False(t, ok)
}
