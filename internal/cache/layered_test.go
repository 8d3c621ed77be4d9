package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayeredCacheMissThenHit(t *testing.T) {
	c := New(NewMemoryLayer(), NewDiskLayer(t.TempDir(), DeleteInvalid))
	now := time.Now()

	_, ok := c.Get("a.css", now)
	assert.False(t, ok)

	c.Put("a.css", Entry{Content: "p{color:red}", LastModified: now})
	got, ok := c.Get("a.css", now)
	require.True(t, ok)
	assert.Equal(t, "p{color:red}", got.Content)
}

func TestLayeredCacheStaleEntryEvictedAndMissed(t *testing.T) {
	c := New(NewMemoryLayer())
	old := time.Now()
	newer := old.Add(time.Second)

	c.Put("a.css", Entry{Content: "old", LastModified: old})
	_, ok := c.Get("a.css", newer)
	assert.False(t, ok)

	// the stale entry was evicted, not merely shadowed
	_, ok = c.Layers[0].Get("a.css")
	assert.False(t, ok)
}

func TestLayeredCacheDiskHitUpfillsMemory(t *testing.T) {
	mem := NewMemoryLayer()
	disk := NewDiskLayer(t.TempDir(), DeleteInvalid)
	c := New(mem, disk)
	now := time.Now()

	disk.Put("a.css", Entry{Content: "p{color:red}", LastModified: now})

	_, ok := mem.Get("a.css")
	require.False(t, ok)

	got, ok := c.Get("a.css", now)
	require.True(t, ok)
	assert.Equal(t, "p{color:red}", got.Content)

	upfilled, ok := mem.Get("a.css")
	require.True(t, ok)
	assert.Equal(t, "p{color:red}", upfilled.Content)
}

func TestLayeredCacheRemoveBroadcasts(t *testing.T) {
	mem := NewMemoryLayer()
	disk := NewDiskLayer(t.TempDir(), DeleteInvalid)
	c := New(mem, disk)
	now := time.Now()

	c.Put("a.css", Entry{Content: "x", LastModified: now})
	c.Remove("a.css")

	_, ok := mem.Get("a.css")
	assert.False(t, ok)
	_, ok = disk.Get("a.css")
	assert.False(t, ok)
}
