// Package config assembles runtime configuration from defaults, an
// optional YAML file and the environment, in that order of precedence.
// Command-line flags are applied on top by the CLI layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is picked up from the working directory when no config
// file is named explicitly.
const DefaultFileName = "docsplice.yml"

type Config struct {
	// Snippet expansion
	SnippetsDir   string
	ElementName   string
	FileAttribute string
	MaxDepth      int

	// Remote fetch
	FetchTimeout  time.Duration
	MaxFetchBytes int64

	// Build
	DocsDir     string
	OutDir      string
	Concurrency int
	Strict      bool

	// Preview server
	Addr string
}

// fileConfig mirrors the YAML shape. Durations are strings in the file
// ("30s") and parsed on load.
type fileConfig struct {
	SnippetsDir   string `yaml:"snippets_dir"`
	Element       string `yaml:"element"`
	Attribute     string `yaml:"attribute"`
	MaxDepth      int    `yaml:"max_depth"`
	FetchTimeout  string `yaml:"fetch_timeout"`
	MaxFetchBytes int64  `yaml:"max_fetch_bytes"`
	DocsDir       string `yaml:"docs_dir"`
	OutDir        string `yaml:"out_dir"`
	Concurrency   int    `yaml:"concurrency"`
	Strict        *bool  `yaml:"strict"`
	Addr          string `yaml:"addr"`
}

// Load builds the configuration. file may be empty, in which case
// docsplice.yml is used when present and silently skipped when not.
func Load(file string) (Config, error) {
	cfg := defaults()

	switch {
	case file != "":
		if err := cfg.loadFile(file); err != nil {
			return cfg, err
		}
	default:
		if _, err := os.Stat(DefaultFileName); err == nil {
			if err := cfg.loadFile(DefaultFileName); err != nil {
				return cfg, err
			}
		}
	}

	cfg.applyEnv()

	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxFetchBytes <= 0 {
		cfg.MaxFetchBytes = 10 << 20
	}

	return cfg, nil
}

func defaults() Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return Config{
		SnippetsDir:   filepath.Join(wd, "_snippets"),
		ElementName:   "Snippet",
		FileAttribute: "file",
		MaxDepth:      10,
		FetchTimeout:  30 * time.Second,
		MaxFetchBytes: 10 << 20,
		DocsDir:       wd,
		OutDir:        filepath.Join(wd, "_build"),
		Concurrency:   4,
		Addr:          ":8091",
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.SnippetsDir != "" {
		c.SnippetsDir = fc.SnippetsDir
	}
	if fc.Element != "" {
		c.ElementName = fc.Element
	}
	if fc.Attribute != "" {
		c.FileAttribute = fc.Attribute
	}
	if fc.MaxDepth != 0 {
		c.MaxDepth = fc.MaxDepth
	}
	if fc.FetchTimeout != "" {
		d, err := time.ParseDuration(fc.FetchTimeout)
		if err != nil {
			return fmt.Errorf("parse fetch_timeout in %s: %w", path, err)
		}
		c.FetchTimeout = d
	}
	if fc.MaxFetchBytes != 0 {
		c.MaxFetchBytes = fc.MaxFetchBytes
	}
	if fc.DocsDir != "" {
		c.DocsDir = fc.DocsDir
	}
	if fc.OutDir != "" {
		c.OutDir = fc.OutDir
	}
	if fc.Concurrency != 0 {
		c.Concurrency = fc.Concurrency
	}
	if fc.Strict != nil {
		c.Strict = *fc.Strict
	}
	if fc.Addr != "" {
		c.Addr = fc.Addr
	}
	return nil
}

func (c *Config) applyEnv() {
	c.SnippetsDir = envOr("DOCSPLICE_SNIPPETS_DIR", c.SnippetsDir)
	c.ElementName = envOr("DOCSPLICE_ELEMENT", c.ElementName)
	c.FileAttribute = envOr("DOCSPLICE_ATTRIBUTE", c.FileAttribute)
	c.MaxDepth = envInt("DOCSPLICE_MAX_DEPTH", c.MaxDepth)
	c.FetchTimeout = envDuration("DOCSPLICE_FETCH_TIMEOUT", c.FetchTimeout)
	c.MaxFetchBytes = envInt64("DOCSPLICE_MAX_FETCH_BYTES", c.MaxFetchBytes)
	c.DocsDir = envOr("DOCSPLICE_DOCS_DIR", c.DocsDir)
	c.OutDir = envOr("DOCSPLICE_OUT_DIR", c.OutDir)
	c.Concurrency = envInt("DOCSPLICE_CONCURRENCY", c.Concurrency)
	c.Strict = envBool("DOCSPLICE_STRICT", c.Strict)
	c.Addr = envOr("DOCSPLICE_ADDR", c.Addr)
}

func (c Config) Validate() error {
	if c.SnippetsDir == "" {
		return fmt.Errorf("snippets directory is required")
	}
	if c.ElementName == "" {
		return fmt.Errorf("element name is required")
	}
	if c.FileAttribute == "" {
		return fmt.Errorf("file attribute name is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
