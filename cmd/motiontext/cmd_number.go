package main

import (
	"fmt"
	"log/slog"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/odvcencio/motiontext/pkg/linenumber"
)

func newNumberCmd(a *app) *cobra.Command {
	var nf numberingFlags

	cmd := &cobra.Command{
		Use:   "number FILE",
		Short: "Insert line numbers into an HTML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			lineLength, firstLine, err := nf.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}
			opts := []linenumber.Option{linenumber.WithFirstLine(firstLine)}
			if nf.highlight > 0 {
				opts = append(opts, linenumber.WithHighlight(nf.highlight))
			}
			out, err := linenumber.Annotate(html, lineLength, opts...)
			if err != nil {
				return err
			}
			a.log.Debug("numbered", slog.Int("line_length", lineLength), slog.Int("first_line", firstLine))
			return writeLine(cmd.OutOrStdout(), out)
		},
	}
	nf.register(cmd)
	return cmd
}

func newStripCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "strip FILE",
		Short: "Remove line numbers and line breaks from a numbered document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			out, err := linenumber.StripLineNumbers(html)
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), out)
		},
	}
}

func newRangeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "range FILE",
		Short: "Print the line range of a numbered document",
		Long:  "Print the first line and the line following the last line of a numbered document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			r, err := linenumber.LineNumberRange(html)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d %d\n", r.From, r.To)
			return err
		},
	}
}

func newHeadingsCmd(a *app) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "headings FILE",
		Short: "List the headings of a numbered document with their lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			headings, err := linenumber.HeadingsWithLineNumbers(html)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, h := range headings {
				text := h.Text
				if width > 0 {
					text = runewidth.Truncate(text, width, "…")
				}
				if _, err := fmt.Fprintf(out, "%d\th%d\t%s\n", h.LineNumber, h.Level, text); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "truncate heading text to this many terminal columns")
	return cmd
}

func newParagraphsCmd(a *app) *cobra.Command {
	var (
		nf       numberingFlags
		numbered bool
	)

	cmd := &cobra.Command{
		Use:   "paragraphs FILE",
		Short: "Split a document into its top-level paragraphs, one per output line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			if numbered {
				lineLength, firstLine, err := nf.resolve(cmd, a.cfg)
				if err != nil {
					return err
				}
				if html, err = linenumber.Annotate(html, lineLength, linenumber.WithFirstLine(firstLine)); err != nil {
					return err
				}
			}
			paragraphs, err := linenumber.SplitToParagraphs(html)
			if err != nil {
				return err
			}
			for _, p := range paragraphs {
				if err := writeLine(cmd.OutOrStdout(), p); err != nil {
					return err
				}
			}
			return nil
		},
	}
	nf.register(cmd)
	cmd.Flags().BoolVar(&numbered, "numbered", false, "insert line numbers before splitting")
	return cmd
}
