package pipeline

import (
	"github.com/productiverage/cssminifier/internal/cache"
	"github.com/productiverage/cssminifier/internal/transform"
)

// Config is the single configuration struct named in spec section 9's
// design notes ("use a single config struct per composition rather than
// deep inheritance"); DefaultConfig and EnhancedConfig are its two
// canonical instances (spec section 4.L).
type Config struct {
	TagToRemove           string
	Sentinel              string
	MarkerInjection       transform.MarkerInjection
	GroupMediaQueries     bool
	OnCircularImport      transform.Policy
	OnUnsupportedImport   transform.Policy
	OnCompilerError       transform.Policy
	InvalidCacheBehaviour cache.InvalidCacheBehaviour
	ExtensionGlobs        []string
}

// DefaultConfig: wrapperRenamer off, markerInserter on all selectors,
// lessCompiler with no sentinel, mediaQueryGrouper off.
func DefaultConfig() Config {
	return Config{
		TagToRemove:           "",
		Sentinel:              "",
		MarkerInjection:       transform.MarkerInjectionAllSelectors,
		GroupMediaQueries:     false,
		OnCircularImport:      transform.Strict,
		OnUnsupportedImport:   transform.Strict,
		OnCompilerError:       transform.Strict,
		InvalidCacheBehaviour: cache.DeleteInvalid,
		ExtensionGlobs:        []string{"*.css", "*.less"},
	}
}

// EnhancedConfig: wrapperRenamer on (tag "html", the given sentinel),
// markerInserter skipping bare-element selectors, mediaQueryGrouper on.
func EnhancedConfig(sentinel string) Config {
	cfg := DefaultConfig()
	cfg.TagToRemove = "html"
	cfg.Sentinel = sentinel
	cfg.MarkerInjection = transform.MarkerInjectionSkipBareElements
	cfg.GroupMediaQueries = true
	return cfg
}
