package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clangfmt/internal/cache"
	"clangfmt/internal/ffi"
	"clangfmt/internal/format"
	"clangfmt/internal/ignore"
	"clangfmt/internal/project"
)

// settings is the project configuration with command-line overrides applied.
type settings struct {
	config   project.Config
	engine   *ffi.Engine
	resolver *ignore.Resolver
	service  *format.Service
	cache    *cache.Disk
}

// loadConfig finds .clangfmt.toml above the working directory, falling back
// to defaults.
func loadConfig() (project.Config, error) {
	manifest, ok, err := project.LoadManifest(".")
	if err != nil {
		return project.Config{}, err
	}
	if !ok {
		return project.Default(), nil
	}
	return manifest.Config, nil
}

func newResolver(cfg project.Config) *ignore.Resolver {
	return ignore.New(
		ignore.WithFileName(cfg.Ignore.File),
		ignore.WithSkipHidden(cfg.Ignore.SkipHidden),
	)
}

// loadSettings builds the formatting stack for fmt.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		if cfg.Format.Engine, err = flags.GetString("engine"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("jobs") {
		jobs, err := flags.GetInt("jobs")
		if err != nil {
			return nil, err
		}
		if jobs < 0 {
			return nil, fmt.Errorf("fmt: --jobs must not be negative")
		}
		cfg.Format.Jobs = jobs
	}
	if noCache, err := flags.GetBool("no-cache"); err == nil && noCache {
		cfg.Format.Cache = false
	}

	eng, err := ffi.Lookup(cfg.Format.Engine)
	if err != nil {
		return nil, err
	}
	resolver := newResolver(cfg)
	svc, err := format.New(resolver, eng)
	if err != nil {
		return nil, err
	}

	s := &settings{config: cfg, engine: eng, resolver: resolver, service: svc}
	if cfg.Format.Cache {
		c, err := cache.Open(cache.App)
		if err != nil {
			// formatting works without a cache
			fmt.Fprintf(cmd.ErrOrStderr(), "clangfmt: cache disabled: %v\n", err)
		} else {
			s.cache = c
		}
	}
	return s, nil
}

func stdoutFile(cmd *cobra.Command) *os.File {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return f
	}
	return nil
}
