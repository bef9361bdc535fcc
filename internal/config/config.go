// Package config loads misoul settings. Later sources win:
// defaults, then the YAML file, then MISOUL_* environment variables.
// Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the CLI and server read.
type Config struct {
	DBPath    string        `yaml:"db_path" validate:"required"`
	Remote    string        `yaml:"remote" validate:"omitempty,hostname_port"`
	Listen    string        `yaml:"listen" validate:"required,hostname_port"`
	Owner     string        `yaml:"owner" validate:"max=128"`
	LogLevel  string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string        `yaml:"log_format" validate:"oneof=json console"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	ShareDir  string        `yaml:"share_dir"`
	ExportDir string        `yaml:"export_dir"`

	// Sources lists where values were loaded from, lowest priority first.
	Sources []string `yaml:"-"`
}

// Home returns ~/.misoul, or .misoul when the home directory is unknown.
func Home() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".misoul"
	}
	return filepath.Join(home, ".misoul")
}

// DefaultPath is the config file read when none is given.
func DefaultPath() string {
	return filepath.Join(Home(), "config.yaml")
}

// Default returns the built-in settings rooted at dir.
func Default(dir string) *Config {
	return &Config{
		DBPath:    filepath.Join(dir, "memory.db"),
		Listen:    "127.0.0.1:7411",
		LogLevel:  "warn",
		LogFormat: "console",
		Timeout:   10 * time.Second,
		ShareDir:  filepath.Join(dir, "shared"),
		ExportDir: ".",
		Sources:   []string{"defaults"},
	}
}

// Load builds the configuration from defaults, the file at path and the
// environment. A missing file is fine unless required is set.
func Load(path string, required bool, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default(Home())
	if path == "" {
		path = DefaultPath()
	}

	err := cfg.loadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, err
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	c.Sources = append(c.Sources, path)
	return nil
}

var envVars = []struct {
	name string
	set  func(c *Config, v string) error
}{
	{"MISOUL_DB", func(c *Config, v string) error { c.DBPath = v; return nil }},
	{"MISOUL_REMOTE", func(c *Config, v string) error { c.Remote = v; return nil }},
	{"MISOUL_LISTEN", func(c *Config, v string) error { c.Listen = v; return nil }},
	{"MISOUL_OWNER", func(c *Config, v string) error { c.Owner = v; return nil }},
	{"MISOUL_LOG_LEVEL", func(c *Config, v string) error { c.LogLevel = strings.ToLower(v); return nil }},
	{"MISOUL_LOG_FORMAT", func(c *Config, v string) error { c.LogFormat = strings.ToLower(v); return nil }},
	{"MISOUL_TIMEOUT", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MISOUL_TIMEOUT: %w", err)
		}
		c.Timeout = d
		return nil
	}},
	{"MISOUL_SHARE_DIR", func(c *Config, v string) error { c.ShareDir = v; return nil }},
	{"MISOUL_EXPORT_DIR", func(c *Config, v string) error { c.ExportDir = v; return nil }},
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	applied := false
	for _, e := range envVars {
		v, ok := lookup(e.name)
		if !ok || v == "" {
			continue
		}
		if err := e.set(c, v); err != nil {
			return err
		}
		applied = true
	}
	if applied {
		c.Sources = append(c.Sources, "environment")
	}
	return nil
}

var validate = validator.New()

// Validate checks the final settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return fmt.Errorf("invalid config: %w", err)
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// IsRemote reports whether memories live behind a record store server.
func (c *Config) IsRemote() bool { return c.Remote != "" }
