// Package config loads beamwand.toml settings for the command line tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/beamwand/errors"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "beamwand.toml"

// Output formats.
const (
	FormatText = "text"
	FormatCBOR = "cbor"
)

// Config is the full tool configuration.
type Config struct {
	Output Output `toml:"output"`
	Log    Log    `toml:"log"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Output configures how a decoded module is printed.
type Output struct {
	Format     string `toml:"format"`
	Color      bool   `toml:"color"`
	Code       bool   `toml:"code"`
	RawPreview int    `toml:"raw-preview"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: Output{
			Format:     FormatText,
			Color:      true,
			Code:       true,
			RawPreview: 16,
		},
		Log: Log{Level: "warn"},
	}
}

// Load reads and validates the configuration at path. Keys missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "cannot read "+path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML data over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse error")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.InvalidInput(errors.PhaseConfig, "unknown keys: "+strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindAndLoad walks up from startDir looking for beamwand.toml. It returns
// the defaults when no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

var levels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatCBOR:
	default:
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(c.Output.Format).
			Detail("output.format must be %q or %q, got %q", FormatText, FormatCBOR, c.Output.Format).
			Build()
	}
	if c.Output.RawPreview < 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(c.Output.RawPreview).
			Detail("output.raw-preview must not be negative").
			Build()
	}
	if !levels[c.Log.Level] {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(c.Log.Level).
			Detail("log.level must be one of debug, info, warn, error; got %q", c.Log.Level).
			Build()
	}
	return nil
}
