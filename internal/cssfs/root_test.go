package cssfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRootReadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.css", "p{color:red}")
	r := NewRoot(dir)

	content, err := r.ReadFile("a.css")
	require.NoError(t, err)
	assert.Equal(t, "p{color:red}", content)
}

func TestRootReadFileNotFound(t *testing.T) {
	r := NewRoot(t.TempDir())
	_, err := r.ReadFile("missing.css")
	assert.Error(t, err)
}

func TestRootReadFileRejectsEscape(t *testing.T) {
	r := NewRoot(t.TempDir())
	_, err := r.ReadFile("../outside.css")
	assert.Error(t, err)
}

func TestRootListDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.css", "")
	writeFile(t, dir, "b.less", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	r := NewRoot(dir)
	names, err := r.ListDir("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.css", "b.less"}, names)
}

func TestRootLastModifiedPicksMaxAcrossExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.css", "a")
	writeFile(t, dir, "b.css", "b")
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.css"), older, older))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "b.css"), newer, newer))

	r := NewRoot(dir)
	got, err := r.LastModified("a.css", []string{"*.css"})
	require.NoError(t, err)
	assert.WithinDuration(t, newer, got, time.Second)
}

func TestRootLastModifiedFiltersByGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.css", "a")
	writeFile(t, dir, "notes.txt", "ignored")
	oldTime := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.css"), oldTime, oldTime))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "notes.txt"), time.Now(), time.Now()))

	r := NewRoot(dir)
	got, err := r.LastModified("a.css", []string{"*.css"})
	require.NoError(t, err)
	assert.WithinDuration(t, oldTime, got, time.Second)
}

func TestRootLastModifiedFailsForVirtualPathInMissingFolder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.css", "a")

	r := NewRoot(dir)
	_, err := r.LastModified("aggregate/does-not-exist.css", nil)
	assert.Error(t, err) // the folder itself doesn't exist here, unlike a same-folder virtual path
}
