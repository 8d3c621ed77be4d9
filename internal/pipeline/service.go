package pipeline

import (
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"github.com/productiverage/cssminifier/internal/cache"
	"github.com/productiverage/cssminifier/internal/cssfs"
	"github.com/productiverage/cssminifier/internal/logger"
	"github.com/productiverage/cssminifier/internal/transform"
)

// ResultKind is the tag on the discriminated result spec section 6 gives
// the HTTP collaborator.
type ResultKind uint8

const (
	Success ResultKind = iota
	NotModified
	Failure
)

// Result is the return value of Service.Process.
type Result struct {
	Kind         ResultKind
	Body         string
	LastModified time.Time
	Err          error
}

// Service is the "process(relativePath, ifModifiedSince?)" entry point
// from spec section 6, wiring the cache (K) in front of one pipeline
// composition (L). A Service holds one Config, so a deployment serving
// both the default and enhanced compositions (see the HTTP front end)
// runs two Services against the same root and its own cache instance.
type Service struct {
	Root   cssfs.Root
	Config Config
	Cache  *cache.LayeredCache
	Sink   logr.Logger

	group singleflight.Group
}

func NewService(root cssfs.Root, cfg Config, c *cache.LayeredCache, sink logr.Logger) *Service {
	return &Service{Root: root, Config: cfg, Cache: c, Sink: sink}
}

// Process implements the inbound contract from spec section 6.
func (s *Service) Process(relativePath string, ifModifiedSince *time.Time) Result {
	freshness, err := s.Root.LastModified(relativePath, s.Config.ExtensionGlobs)
	if err != nil {
		return Result{Kind: Failure, Err: err}
	}

	if ifModifiedSince != nil && datesEqual(*ifModifiedSince, freshness) {
		return Result{Kind: NotModified, LastModified: freshness}
	}

	if entry, ok := s.Cache.Get(relativePath, freshness); ok {
		return Result{Kind: Success, Body: entry.Content, LastModified: entry.LastModified}
	}

	// Collapse concurrent regenerations of the same key into one pipeline
	// run (spec section 5: "at most one regeneration is desirable but not
	// required"); duplicate regenerations would produce identical bytes
	// anyway, so singleflight is an optimisation here, not a correctness
	// requirement.
	v, err, _ := s.group.Do(relativePath, func() (interface{}, error) {
		return s.regenerate(relativePath, freshness)
	})
	if err != nil {
		return Result{Kind: Failure, Err: err}
	}

	entry := v.(cache.Entry)
	return Result{Kind: Success, Body: entry.Content, LastModified: entry.LastModified}
}

func (s *Service) regenerate(relativePath string, freshness time.Time) (cache.Entry, error) {
	gen := transform.NewMarkerGenerator()
	log := logger.New()
	loader := Assemble(s.Root, s.Config, gen, log)

	started := time.Now()
	fc, err := loader.Load(relativePath)
	if err != nil {
		logger.Flush(log, s.Sink)
		return cache.Entry{}, err
	}
	elapsed := time.Since(started)

	// The entry's lastModified is pinned to the freshness value computed at
	// the top of Process, not fc.LastModified: spec section 4.K requires
	// this so a later lookup's staleness check compares against the exact
	// same criterion that triggered this regeneration.
	entry := cache.Entry{
		Content:      fc.Content,
		LastModified: freshness,
		ElapsedMs:    int(elapsed.Milliseconds()),
	}
	s.Cache.Put(relativePath, entry)
	logger.Flush(log, s.Sink)
	return entry, nil
}

// datesEqual implements spec section 6's "dates are considered equal
// when |a - b| < 1 second" rule for HTTP's whole-second Last-Modified
// granularity against this pipeline's sub-second timestamps.
func datesEqual(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < time.Second
}
