package project

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
)

// DefaultExtensions lists the file extensions formatted when walking
// directories.
var DefaultExtensions = []string{
	".c", ".cc", ".cpp", ".cxx", ".c++",
	".h", ".hh", ".hpp", ".hxx", ".inc", ".ipp",
	".m", ".mm", ".cu", ".cuh",
	".proto", ".java", ".cs", ".js", ".mjs", ".ts", ".json",
	".td", ".textproto", ".txtpb",
}

// Config is the decoded .clangfmt.toml.
type Config struct {
	Format FormatConfig `toml:"format"`
	Ignore IgnoreConfig `toml:"ignore"`
}

// FormatConfig is the [format] table.
type FormatConfig struct {
	Engine     string   `toml:"engine"`
	Jobs       int      `toml:"-"`
	Extensions []string `toml:"extensions"`
	Cache      bool     `toml:"-"`
}

// IgnoreConfig is the [ignore] table.
type IgnoreConfig struct {
	File       string `toml:"file"`
	SkipHidden bool   `toml:"skip_hidden"`
}

// Manifest is a located and decoded configuration file.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// fileConfig mirrors Config with the raw TOML types.
type fileConfig struct {
	Format struct {
		Engine     string   `toml:"engine"`
		Jobs       int64    `toml:"jobs"`
		Extensions []string `toml:"extensions"`
		Cache      bool     `toml:"cache"`
	} `toml:"format"`
	Ignore IgnoreConfig `toml:"ignore"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Format: FormatConfig{
			Engine:     "clang",
			Extensions: append([]string(nil), DefaultExtensions...),
			Cache:      true,
		},
		Ignore: IgnoreConfig{File: ".clang-format-ignore"},
	}
}

// LoadManifest finds and decodes the nearest .clangfmt.toml above startDir.
// ok is false when there is none.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	configPath, ok, err := FindConfig(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   configPath,
		Root:   filepath.Dir(configPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig decodes path on top of Default and validates it.
func LoadConfig(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg := Default()
	if meta.IsDefined("format", "engine") {
		engine := strings.ToLower(strings.TrimSpace(raw.Format.Engine))
		switch engine {
		case "clang", "clang-format", "echo":
			cfg.Format.Engine = engine
		default:
			return Config{}, fmt.Errorf("%s: [format].engine must be clang or echo, got %q", path, raw.Format.Engine)
		}
	}
	if meta.IsDefined("format", "jobs") {
		jobs, err := safecast.Conv[int](raw.Format.Jobs)
		if err != nil || jobs < 0 {
			return Config{}, fmt.Errorf("%s: [format].jobs must be a non-negative integer, got %d", path, raw.Format.Jobs)
		}
		cfg.Format.Jobs = jobs
	}
	if meta.IsDefined("format", "extensions") {
		exts, err := normalizeExtensions(raw.Format.Extensions)
		if err != nil {
			return Config{}, fmt.Errorf("%s: [format].extensions: %w", path, err)
		}
		cfg.Format.Extensions = exts
	}
	if meta.IsDefined("format", "cache") {
		cfg.Format.Cache = raw.Format.Cache
	}
	if meta.IsDefined("ignore", "file") {
		name := strings.TrimSpace(raw.Ignore.File)
		if name == "" || strings.ContainsAny(name, `/\`) {
			return Config{}, fmt.Errorf("%s: [ignore].file must be a plain file name, got %q", path, raw.Ignore.File)
		}
		cfg.Ignore.File = name
	}
	if meta.IsDefined("ignore", "skip_hidden") {
		cfg.Ignore.SkipHidden = raw.Ignore.SkipHidden
	}
	return cfg, nil
}

func normalizeExtensions(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("list is empty")
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, ext := range in {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			return nil, fmt.Errorf("empty extension")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out, nil
}

// HasExtension reports whether path ends in one of the configured extensions.
// The comparison ignores case.
func (c FormatConfig) HasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
