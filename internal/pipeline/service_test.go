package pipeline

import (
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productiverage/cssminifier/internal/cache"
	"github.com/productiverage/cssminifier/internal/cssfs"
)

func TestServiceProcessMissRegeneratesAndPopulatesCache(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "site.css", "p { color: red; }")

	root := cssfs.NewRoot(dir)
	mem := cache.NewMemoryLayer()
	svc := NewService(root, DefaultConfig(), cache.New(mem), logr.Discard())

	result := svc.Process("site.css", nil)
	require.NoError(t, result.Err)
	assert.Equal(t, Success, result.Kind)
	assert.Contains(t, result.Body, "color:red")

	entry, ok := mem.Get("site.css")
	require.True(t, ok)
	assert.Equal(t, result.Body, entry.Content)
	assert.Equal(t, result.LastModified, entry.LastModified)
}

func TestServiceProcessHitReturnsCachedBodyWithoutRerunningPipeline(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "site.css", "p { color: red; }")

	root := cssfs.NewRoot(dir)
	freshness, err := root.LastModified("site.css", DefaultConfig().ExtensionGlobs)
	require.NoError(t, err)

	mem := cache.NewMemoryLayer()
	// Seeded body deliberately differs from what the pipeline would
	// actually produce from site.css's contents, so a test failure here
	// means Process fell through to regeneration instead of trusting the
	// cache hit.
	mem.Put("site.css", cache.Entry{Content: "STALE-BUT-FRESH-ENOUGH", LastModified: freshness})

	svc := NewService(root, DefaultConfig(), cache.New(mem), logr.Discard())
	result := svc.Process("site.css", nil)
	require.NoError(t, result.Err)
	assert.Equal(t, Success, result.Kind)
	assert.Equal(t, "STALE-BUT-FRESH-ENOUGH", result.Body)
}

func TestServiceProcessNotModifiedWithinOneSecondOfFreshness(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "site.css", "p { color: red; }")

	root := cssfs.NewRoot(dir)
	freshness, err := root.LastModified("site.css", DefaultConfig().ExtensionGlobs)
	require.NoError(t, err)

	mem := cache.NewMemoryLayer()
	svc := NewService(root, DefaultConfig(), cache.New(mem), logr.Discard())

	// Truncated to whole seconds, as an If-Modified-Since header would be,
	// and nudged by a few hundred milliseconds: still within spec section
	// 6's one-second equality tolerance.
	ims := freshness.Truncate(time.Second).Add(400 * time.Millisecond)
	result := svc.Process("site.css", &ims)
	assert.Equal(t, NotModified, result.Kind)
	assert.NoError(t, result.Err)

	// A conditional request must never populate the cache or run the
	// pipeline.
	_, ok := mem.Get("site.css")
	assert.False(t, ok)
}

func TestServiceProcessStaleCacheEntryTriggersRegeneration(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "site.css", "p { color: red; }")

	root := cssfs.NewRoot(dir)
	freshness, err := root.LastModified("site.css", DefaultConfig().ExtensionGlobs)
	require.NoError(t, err)

	mem := cache.NewMemoryLayer()
	mem.Put("site.css", cache.Entry{
		Content:      "OLD-STALE-BODY",
		LastModified: freshness.Add(-time.Hour),
	})

	svc := NewService(root, DefaultConfig(), cache.New(mem), logr.Discard())
	result := svc.Process("site.css", nil)
	require.NoError(t, result.Err)
	assert.Equal(t, Success, result.Kind)
	assert.NotEqual(t, "OLD-STALE-BODY", result.Body)
	assert.Contains(t, result.Body, "color:red")

	entry, ok := mem.Get("site.css")
	require.True(t, ok)
	assert.Equal(t, result.Body, entry.Content)
}

func TestServiceProcessFailurePropagatesFromMissingFile(t *testing.T) {
	dir := t.TempDir()

	root := cssfs.NewRoot(dir)
	mem := cache.NewMemoryLayer()
	svc := NewService(root, DefaultConfig(), cache.New(mem), logr.Discard())

	result := svc.Process("missing/site.css", nil)
	assert.Equal(t, Failure, result.Kind)
	assert.Error(t, result.Err)
}
