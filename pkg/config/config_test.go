package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/odvcencio/motiontext/pkg/cache"
	"github.com/odvcencio/motiontext/pkg/htmldiff"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LineLength != DefaultLineLength || cfg.FirstLine != 1 {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
	if cfg.Cache.MaxBytes != cache.DefaultMaxBytes {
		t.Fatalf("cache.max_bytes = %d, want %d", cfg.Cache.MaxBytes, cache.DefaultMaxBytes)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motiontext.toml")
	src := `line_length = 60

[cache]
max_bytes = 1024
ttl = "10m"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LineLength != 60 {
		t.Fatalf("line_length = %d, want 60", cfg.LineLength)
	}
	if cfg.FirstLine != 1 {
		t.Fatalf("first_line = %d, want default 1", cfg.FirstLine)
	}
	opts := cfg.CacheOptions()
	if opts.MaxBytes != 1024 || opts.TTL != 10*time.Minute || opts.CompressAbove != cache.DefaultCompressAbove {
		t.Fatalf("cache options = %+v", opts)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []string{
		`line_length = 0`,
		`first_line = -2`,
		"[cache]\nttl = \"soon\"",
		`line_length = "wide"`,
	}
	for _, src := range tests {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%q) succeeded, want error", src)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motiontext.toml")
	cfg := Default()
	cfg.LineLength = 72
	cfg.Cache.TTL = Duration{5 * time.Second}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.LineLength != 72 || got.Cache.TTL.Duration != 5*time.Second {
		t.Fatalf("loaded %+v", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("directory holds %d files, want only the config", len(entries))
	}
}

func TestParseChanges(t *testing.T) {
	src := `
[[change]]
line_from = 3
line_to = 5
text = "<p>New</p>"

[[change]]
line_from = 7
line_to = 7
type = "insertion"
rejected = true
text = "<p>Added</p>"
`
	changes, err := ParseChanges(src)
	if err != nil {
		t.Fatalf("ParseChanges: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	first, second := changes[0], changes[1]
	if first.LineFrom() != 3 || first.LineTo() != 5 || first.NewText() != "<p>New</p>" || first.Type() != htmldiff.Replacement {
		t.Errorf("first change = %+v", first)
	}
	if !second.IsRejected() || second.Type() != htmldiff.Insertion {
		t.Errorf("second change = %+v", second)
	}
}

func TestParseChangesErrors(t *testing.T) {
	tests := map[string]string{
		"range":  "[[change]]\nline_from = 5\nline_to = 3",
		"type":   "[[change]]\nline_from = 1\nline_to = 2\ntype = \"rewrite\"",
		"syntax": "[[change]\n",
	}
	for name, src := range tests {
		_, err := ParseChanges(src)
		if err == nil {
			t.Errorf("%s: ParseChanges succeeded, want error", name)
			continue
		}
		if !strings.Contains(err.Error(), "read changes") {
			t.Errorf("%s: err = %v, want read changes context", name, err)
		}
	}
}
