package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/motiontext/pkg/cache"
	"github.com/odvcencio/motiontext/pkg/config"
	"github.com/odvcencio/motiontext/pkg/htmltree"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	configPath string
	markdown   bool
	verbose    bool

	cfg *config.Config
	log *slog.Logger
}

// prepare loads the config, installs the cache and sets up logging.
func (a *app) prepare(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	cache.SetDefault(cache.New(cfg.CacheOptions()))
	a.log.Debug("config loaded",
		slog.String("path", a.configPath),
		slog.Int("line_length", cfg.LineLength),
		slog.Int("first_line", cfg.FirstLine),
		slog.Int64("cache_max_bytes", cfg.Cache.MaxBytes))
	return nil
}

// readDocument returns the HTML in path, or in standard input for "-".
// Markdown input is converted first when --markdown is set.
func (a *app) readDocument(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	a.log.Debug("document read", slog.String("path", path), slog.Int("bytes", len(data)))

	if !a.markdown {
		return string(data), nil
	}
	html, err := htmltree.FromMarkdown(data)
	if err != nil {
		return "", fmt.Errorf("read %s: markdown: %w", path, err)
	}
	return html, nil
}

// numberingFlags are the line layout flags shared by several commands. A
// flag left unset falls back to the config.
type numberingFlags struct {
	lineLength int
	firstLine  int
	highlight  int
}

func (f *numberingFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.lineLength, "line-length", 0, "characters per line (default from config)")
	cmd.Flags().IntVar(&f.firstLine, "first-line", 0, "number of the first line (default from config)")
	cmd.Flags().IntVar(&f.highlight, "highlight", 0, "line to highlight")
}

func (f *numberingFlags) resolve(cmd *cobra.Command, cfg *config.Config) (lineLength, firstLine int, err error) {
	lineLength, firstLine = cfg.LineLength, cfg.FirstLine
	if cmd.Flags().Changed("line-length") {
		lineLength = f.lineLength
	}
	if cmd.Flags().Changed("first-line") {
		firstLine = f.firstLine
	}
	if lineLength <= 0 {
		return 0, 0, fmt.Errorf("line length must be positive, got %d", lineLength)
	}
	if firstLine <= 0 {
		return 0, 0, fmt.Errorf("first line must be positive, got %d", firstLine)
	}
	return lineLength, firstLine, nil
}

// optionalLine returns the value of an int flag, or nil when it is unset.
func optionalLine(cmd *cobra.Command, name string) (*int, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
