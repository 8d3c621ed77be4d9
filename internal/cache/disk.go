package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/productiverage/cssminifier/internal/transform"
)

// InvalidCacheBehaviour selects what happens when a disk cache file fails
// to parse (spec section 6's invalidCacheBehaviour configuration option).
type InvalidCacheBehaviour uint8

const (
	DeleteInvalid InvalidCacheBehaviour = iota
	IgnoreInvalid
)

// relativePathLengthWidth is the decimal width of INT_MAX, per spec
// section 6's cache file format.
const relativePathLengthWidth = 10

const elapsedMsWidth = 5
const elapsedMsCap = 99999

// DiskLayer is the second tier: one file per key, named "<key>.cache"
// under baseDir, in the bit-exact format from spec section 6. Reads open
// shared; writes go through a temp file plus rename so a reader never
// observes a partial file under the target name (spec section 5's
// cancellation contract).
type DiskLayer struct {
	BaseDir   string
	OnInvalid InvalidCacheBehaviour
}

func NewDiskLayer(baseDir string, onInvalid InvalidCacheBehaviour) *DiskLayer {
	return &DiskLayer{BaseDir: baseDir, OnInvalid: onInvalid}
}

func (d *DiskLayer) pathFor(key string) string {
	return filepath.Join(d.BaseDir, key+".cache")
}

func (d *DiskLayer) Get(key string) (Entry, bool) {
	path := d.pathFor(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}

	relativePath, lastModified, elapsedMs, bodyStart, err := parseCacheHeader(string(raw))
	if err != nil {
		if d.OnInvalid == DeleteInvalid {
			_ = os.Remove(path)
		}
		return Entry{}, false
	}
	if relativePath != key {
		// A corrupted or hand-edited file claiming a different key is just
		// as invalid as one that doesn't parse at all.
		if d.OnInvalid == DeleteInvalid {
			_ = os.Remove(path)
		}
		return Entry{}, false
	}

	return Entry{
		Content:      string(raw)[bodyStart:],
		LastModified: lastModified,
		ElapsedMs:    elapsedMs,
	}, true
}

func (d *DiskLayer) Put(key string, entry Entry) {
	path := d.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return // cache writes are non-fatal per spec section 7; a failed write is dropped without being reported
	}

	header := formatCacheHeader(key, entry.LastModified, entry.ElapsedMs)
	data := append([]byte(header), entry.Content...)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		return
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
	}
}

func (d *DiskLayer) Remove(key string) {
	_ = os.Remove(d.pathFor(key))
}

// formatCacheHeader builds the bit-exact header from spec section 6:
//
//	/*NNNNNNNNNN:<relativePath>:<yyyy-MM-dd HH:mm:ss.fffffff>:<elapsedMs 00000>ms*/<NEWLINE>
func formatCacheHeader(relativePath string, lastModified time.Time, elapsedMs int) string {
	if elapsedMs > elapsedMsCap {
		elapsedMs = elapsedMsCap
	}
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	return fmt.Sprintf("/*%0*d:%s:%s:%0*dms*/\n",
		relativePathLengthWidth, len(relativePath),
		relativePath,
		formatCacheTimestamp(lastModified),
		elapsedMsWidth, elapsedMs)
}

func formatCacheTimestamp(t time.Time) string {
	ticks := t.Nanosecond() / 100
	return fmt.Sprintf("%s.%07d", t.Format("2006-01-02 15:04:05"), ticks)
}

func parseCacheTimestamp(s string) (time.Time, error) {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		return time.Time{}, fmt.Errorf("%w: timestamp %q has no fractional part", transform.ErrInvalidCacheFormat, s)
	}
	base, err := time.ParseInLocation("2006-01-02 15:04:05", s[:dot], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", transform.ErrInvalidCacheFormat, err)
	}
	fraction := s[dot+1:]
	if len(fraction) != 7 {
		return time.Time{}, fmt.Errorf("%w: expected 7 fractional digits in %q", transform.ErrInvalidCacheFormat, s)
	}
	ticks, err := strconv.Atoi(fraction)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", transform.ErrInvalidCacheFormat, err)
	}
	return base.Add(time.Duration(ticks) * 100 * time.Nanosecond), nil
}

// parseCacheHeader parses the header described by formatCacheHeader,
// returning the body's start offset into raw.
func parseCacheHeader(raw string) (relativePath string, lastModified time.Time, elapsedMs int, bodyStart int, err error) {
	fail := func(reason string) (string, time.Time, int, int, error) {
		return "", time.Time{}, 0, 0, fmt.Errorf("%w: %s", transform.ErrInvalidCacheFormat, reason)
	}

	const openComment = "/*"
	if !strings.HasPrefix(raw, openComment) {
		return fail("missing header prefix")
	}
	pos := len(openComment)

	if len(raw) < pos+relativePathLengthWidth {
		return fail("truncated length field")
	}
	lengthField := raw[pos : pos+relativePathLengthWidth]
	n, convErr := strconv.Atoi(lengthField)
	if convErr != nil {
		return fail(fmt.Sprintf("bad length field %q", lengthField))
	}
	pos += relativePathLengthWidth

	if pos >= len(raw) || raw[pos] != ':' {
		return fail("expected ':' after length field")
	}
	pos++

	if pos+n > len(raw) {
		return fail("relative path length exceeds header")
	}
	relativePath = raw[pos : pos+n]
	pos += n

	if pos >= len(raw) || raw[pos] != ':' {
		return fail("expected ':' after relative path")
	}
	pos++

	// The timestamp has a fixed width and itself contains colons
	// (HH:mm:ss), so it is cut by length rather than at the next ':'.
	const timestampWidth = len("2006-01-02 15:04:05.0000000")
	if pos+timestampWidth >= len(raw) || raw[pos+timestampWidth] != ':' {
		return fail("expected ':' after timestamp")
	}
	lastModified, convErr = parseCacheTimestamp(raw[pos : pos+timestampWidth])
	if convErr != nil {
		return "", time.Time{}, 0, 0, convErr
	}
	pos += timestampWidth + 1

	if pos+elapsedMsWidth > len(raw) {
		return fail("truncated elapsed-ms field")
	}
	elapsedField := raw[pos : pos+elapsedMsWidth]
	elapsedMs, convErr = strconv.Atoi(elapsedField)
	if convErr != nil {
		return fail(fmt.Sprintf("bad elapsed-ms field %q", elapsedField))
	}
	pos += elapsedMsWidth

	const closeTag = "ms*/"
	if !strings.HasPrefix(raw[pos:], closeTag) {
		return fail("missing 'ms*/' terminator")
	}
	pos += len(closeTag)

	switch {
	case pos < len(raw) && raw[pos] == '\n':
		pos++
	case pos+1 < len(raw) && raw[pos] == '\r' && raw[pos+1] == '\n':
		pos += 2
	default:
		return fail("missing newline after header")
	}

	return relativePath, lastModified, elapsedMs, pos, nil
}
