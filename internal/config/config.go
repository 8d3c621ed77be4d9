// Package config loads cssserver's on-disk configuration, grounded on
// standardbeagle-lci's internal/config use of github.com/pelletier/go-toml/v2
// for its own on-disk settings file.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/productiverage/cssminifier/internal/cache"
)

// Config is cssserver's whole on-disk + CLI-overridable settings surface.
type Config struct {
	Root                  string   `toml:"root"`
	Host                  string   `toml:"host"`
	Port                  int      `toml:"port"`
	Sentinel              string   `toml:"sentinel"`
	CacheDir              string   `toml:"cache_dir"`
	ExtensionGlobs        []string `toml:"extension_globs"`
	Watch                 bool     `toml:"watch"`
	InvalidCacheBehaviour string   `toml:"invalid_cache_behaviour"` // "delete" or "ignore", spec section 6
}

func Default() Config {
	return Config{
		Root:                  ".",
		Host:                  "",
		Port:                  0,
		Sentinel:              ".scope-sentinel",
		CacheDir:              "",
		ExtensionGlobs:        []string{"*.css", "*.less"},
		Watch:                 false,
		InvalidCacheBehaviour: "delete",
	}
}

// InvalidCacheBehaviourValue parses the configured string into the cache
// package's enum, defaulting to DeleteInvalid for an empty value so a bare
// config file still behaves like Default(). Any other unrecognised value
// is a configuration error.
func (c Config) InvalidCacheBehaviourValue() (cache.InvalidCacheBehaviour, error) {
	switch c.InvalidCacheBehaviour {
	case "", "delete":
		return cache.DeleteInvalid, nil
	case "ignore":
		return cache.IgnoreInvalid, nil
	default:
		return cache.DeleteInvalid, fmt.Errorf("invalid_cache_behaviour: unrecognised value %q (want \"delete\" or \"ignore\")", c.InvalidCacheBehaviour)
	}
}

// Load reads path as TOML, falling back to Default() unchanged when the
// file doesn't exist so a bare `cssserver` invocation works with no config
// file present.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
