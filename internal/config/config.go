// Package config loads callmap settings from TOML, YAML, or JSON files.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml"
)

// Config holds all callmap settings.
type Config struct {
	Crawl    CrawlConfig    `koanf:"crawl" toml:"crawl"`
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`
	Output   OutputConfig   `koanf:"output" toml:"output"`
	Cache    CacheConfig    `koanf:"cache" toml:"cache"`
}

// CrawlConfig controls which files are analyzed.
type CrawlConfig struct {
	ExcludeDirs     []string `koanf:"exclude_dirs" toml:"exclude_dirs"`
	ExcludePatterns []string `koanf:"exclude_patterns" toml:"exclude_patterns"`
	MaxFileSize     int64    `koanf:"max_file_size" toml:"max_file_size"` // bytes
	Gitignore       bool     `koanf:"gitignore" toml:"gitignore"`
	Hidden          bool     `koanf:"hidden" toml:"hidden"` // include dot directories and files
}

// AnalysisConfig tunes the pipeline.
type AnalysisConfig struct {
	Workers int `koanf:"workers" toml:"workers"` // <= 0 means GOMAXPROCS
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"`
	Color  bool   `koanf:"color" toml:"color"`
	Depth  int    `koanf:"depth" toml:"depth"` // tree depth limit
}

// CacheConfig controls the rendered-output cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // hours
}

// DefaultMaxFileSize mirrors the 2000 KB crawler limit.
const DefaultMaxFileSize = 2000 * 1024

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			ExcludeDirs: []string{
				".git",
				"__pycache__",
				"venv",
				".venv",
				"env",
				"node_modules",
				".idea",
				".tox",
				".mypy_cache",
				".pytest_cache",
			},
			MaxFileSize: DefaultMaxFileSize,
			Gitignore:   true,
		},
		Output: OutputConfig{
			Format: "table",
			Color:  true,
			Depth:  8,
		},
		Cache: CacheConfig{
			Dir: ".callmap-cache",
			TTL: 24,
		},
	}
}

// Load reads configuration from path, layered over DefaultConfig.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return cfg, nil
}

var configNames = []string{
	"callmap.toml",
	"callmap.yaml",
	"callmap.yml",
	"callmap.json",
	".callmap.toml",
	".callmap.yaml",
	".callmap.yml",
	".callmap.json",
}

// Find returns the first standard config file under dir, or "".
func Find(dir string) string {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadOrDefault loads the standard config file under dir if one exists.
// A config file that fails to load is an error; a missing one is not.
func LoadOrDefault(dir string) (*Config, error) {
	path := Find(dir)
	if path == "" {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) (string, error) {
	var buf bytes.Buffer
	if err := gotoml.NewEncoder(&buf).Order(gotoml.OrderPreserve).Encode(cfg); err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return buf.String(), nil
}
