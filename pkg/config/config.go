// Package config loads motiontext settings and change lists from TOML.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/odvcencio/motiontext/pkg/cache"
	"github.com/odvcencio/motiontext/pkg/htmldiff"
	"github.com/odvcencio/motiontext/pkg/motion"
)

// DefaultLineLength is the line length used when none is configured.
const DefaultLineLength = 80

// Config holds the settings of a motiontext run.
type Config struct {
	LineLength int         `toml:"line_length"`
	FirstLine  int         `toml:"first_line"`
	Cache      CacheConfig `toml:"cache"`
}

// CacheConfig configures the content cache.
type CacheConfig struct {
	MaxBytes      int64    `toml:"max_bytes"`
	CompressAbove int      `toml:"compress_above"`
	TTL           Duration `toml:"ttl"`
}

// Duration is a time.Duration written as a string such as "10m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LineLength: DefaultLineLength,
		FirstLine:  1,
		Cache: CacheConfig{
			MaxBytes:      cache.DefaultMaxBytes,
			CompressAbove: cache.DefaultCompressAbove,
		},
	}
}

// Load reads the TOML file at path on top of the defaults. A missing file
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("read config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("read config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save atomically writes cfg to path as TOML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		cfg = Default()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".motiontext-config-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.LineLength <= 0 {
		return fmt.Errorf("line_length must be positive, got %d", c.LineLength)
	}
	if c.FirstLine <= 0 {
		return fmt.Errorf("first_line must be positive, got %d", c.FirstLine)
	}
	if c.Cache.MaxBytes < 0 {
		return fmt.Errorf("cache.max_bytes must not be negative, got %d", c.Cache.MaxBytes)
	}
	if c.Cache.TTL.Duration < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL.Duration)
	}
	return nil
}

// CacheOptions converts the cache section to cache.Options.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		MaxBytes:      c.Cache.MaxBytes,
		CompressAbove: c.Cache.CompressAbove,
		TTL:           c.Cache.TTL.Duration,
	}
}

// changeFile is the layout of a change list:
//
//	[[change]]
//	line_from = 3
//	line_to = 5
//	type = "replacement"
//	rejected = false
//	text = "<p>New text</p>"
type changeFile struct {
	Changes []changeEntry `toml:"change"`
}

type changeEntry struct {
	LineFrom int    `toml:"line_from"`
	LineTo   int    `toml:"line_to"`
	Type     string `toml:"type"`
	Rejected bool   `toml:"rejected"`
	Text     string `toml:"text"`
}

// LoadChanges reads a change list from the TOML file at path.
func LoadChanges(path string) ([]motion.Change, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	return ParseChanges(string(data))
}

// ParseChanges decodes a change list.
func ParseChanges(src string) ([]motion.Change, error) {
	var f changeFile
	if _, err := toml.Decode(src, &f); err != nil {
		return nil, fmt.Errorf("read changes: decode: %w", err)
	}
	out := make([]motion.Change, 0, len(f.Changes))
	for i, e := range f.Changes {
		if e.LineFrom <= 0 || e.LineTo < e.LineFrom {
			return nil, fmt.Errorf("read changes: change %d: invalid line range %d-%d", i, e.LineFrom, e.LineTo)
		}
		kind, err := parseModificationType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("read changes: change %d: %w", i, err)
		}
		out = append(out, motion.Recommendation{
			From:     e.LineFrom,
			To:       e.LineTo,
			Text:     e.Text,
			Kind:     kind,
			Rejected: e.Rejected,
		})
	}
	return out, nil
}

func parseModificationType(s string) (htmldiff.ModificationType, error) {
	if s == "" {
		return htmldiff.Replacement, nil
	}
	for _, t := range []htmldiff.ModificationType{htmldiff.Replacement, htmldiff.Insertion, htmldiff.Deletion, htmldiff.Other} {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown change type %q", s)
}
