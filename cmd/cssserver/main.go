package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/urfave/cli/v2"

	"github.com/productiverage/cssminifier/internal/cache"
	"github.com/productiverage/cssminifier/internal/config"
	"github.com/productiverage/cssminifier/internal/cssfs"
	"github.com/productiverage/cssminifier/internal/pipeline"
	"github.com/productiverage/cssminifier/internal/server"
)

var commonFlags = []cli.Flag{
	&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "TOML config file path", Value: "cssserver.toml"},
	&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "Directory of stylesheets to serve (overrides config)"},
	&cli.StringFlag{Name: "host", Usage: "Host to bind (overrides config)"},
	&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to bind, 0 picks a free 800X port (overrides config)"},
	&cli.StringFlag{Name: "sentinel", Usage: "Wrapper sentinel class for the enhanced composition (overrides config)"},
	&cli.StringFlag{Name: "cache-dir", Usage: "Disk cache directory; empty disables the disk layer (overrides config)"},
	&cli.BoolFlag{Name: "watch", Usage: "Evict cache entries as their source files change (overrides config)"},
	&cli.StringFlag{Name: "invalid-cache-behaviour", Usage: "\"delete\" or \"ignore\" on a corrupt disk cache file (overrides config)"},
}

func loadConfigWithOverrides(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config from %s: %w", c.String("config"), err)
	}
	if root := c.String("root"); root != "" {
		cfg.Root = root
	}
	if host := c.String("host"); host != "" {
		cfg.Host = host
	}
	if port := c.Int("port"); port != 0 {
		cfg.Port = port
	}
	if sentinel := c.String("sentinel"); sentinel != "" {
		cfg.Sentinel = sentinel
	}
	if cacheDir := c.String("cache-dir"); cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if c.Bool("watch") {
		cfg.Watch = true
	}
	if behaviour := c.String("invalid-cache-behaviour"); behaviour != "" {
		cfg.InvalidCacheBehaviour = behaviour
	}
	return cfg, nil
}

func buildServices(cfg config.Config, sink logr.Logger) (*server.Handler, []*cache.LayeredCache, error) {
	root := cssfs.NewRoot(cfg.Root)

	onInvalid, err := cfg.InvalidCacheBehaviourValue()
	if err != nil {
		return nil, nil, err
	}

	newCache := func() *cache.LayeredCache {
		layers := []cache.Layer{cache.NewMemoryLayer()}
		if cfg.CacheDir != "" {
			layers = append(layers, cache.NewDiskLayer(cfg.CacheDir, onInvalid))
		}
		return cache.New(layers...)
	}

	defaultCache := newCache()
	enhancedCache := newCache()

	defaultCfg := pipeline.DefaultConfig()
	defaultCfg.ExtensionGlobs = cfg.ExtensionGlobs
	enhancedCfg := pipeline.EnhancedConfig(cfg.Sentinel)
	enhancedCfg.ExtensionGlobs = cfg.ExtensionGlobs

	handler := &server.Handler{
		Default:  pipeline.NewService(root, defaultCfg, defaultCache, sink),
		Enhanced: pipeline.NewService(root, enhancedCfg, enhancedCache, sink),
		OnRequest: func(a server.OnRequestArgs) {
			sink.Info("request", "method", a.Method, "path", a.Path, "status", a.Status, "ms", a.TimeInMS)
		},
	}
	return handler, []*cache.LayeredCache{defaultCache, enhancedCache}, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	sink := funcr.New(func(prefix, args string) { fmt.Fprintln(os.Stderr, prefix, args) }, funcr.Options{})

	handler, caches, err := buildServices(cfg, sink)
	if err != nil {
		return err
	}

	if cfg.Watch {
		absRoot, err := filepath.Abs(cfg.Root)
		if err != nil {
			return fmt.Errorf("failed to resolve root %q: %w", cfg.Root, err)
		}
		w, err := pipeline.NewWatcher(absRoot, sink, caches...)
		if err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		defer w.Close()
	}

	ln, err := server.Listen(cfg.Host, cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to bind listener: %w", err)
	}
	sink.Info("listening", "addr", ln.Addr().String())
	return http.Serve(ln, handler)
}

func warmCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	if c.NArg() > 0 {
		cfg.Root = c.Args().First()
	}

	sink := funcr.New(func(prefix, args string) { fmt.Fprintln(os.Stderr, prefix, args) }, funcr.Options{})
	handler, _, err := buildServices(cfg, sink)
	if err != nil {
		return err
	}

	root := cssfs.NewRoot(cfg.Root)
	names, err := root.ListDir("")
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", cfg.Root, err)
	}

	warmed := 0
	for _, name := range names {
		for _, svc := range []*pipeline.Service{handler.Default, handler.Enhanced} {
			result := svc.Process(name, nil)
			if result.Kind == pipeline.Failure {
				sink.Error(result.Err, "warm failed", "path", name)
				continue
			}
			warmed++
		}
	}
	fmt.Printf("warmed %d cache entries from %s\n", warmed, cfg.Root)
	return nil
}

func main() {
	app := &cli.App{
		Name:  "cssserver",
		Usage: "Serve minified, import-flattened stylesheets over HTTP",
		Flags: commonFlags,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Action: serveCommand,
			},
			{
				Name:      "warm",
				Usage:     "Pre-populate the cache for every file in a directory",
				ArgsUsage: "[root]",
				Action:    warmCommand,
			},
		},
		Action: serveCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
