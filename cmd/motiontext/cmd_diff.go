package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/odvcencio/motiontext/pkg/diff"
	"github.com/odvcencio/motiontext/pkg/htmldiff"
	"github.com/odvcencio/motiontext/pkg/linenumber"
)

func newDiffCmd(a *app) *cobra.Command {
	var (
		nf           numberingFlags
		numbered     bool
		unified      bool
		contextLines int
	)

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show the changes between two HTML documents",
		Long: `Print NEW annotated with the changes from OLD: inserted text is wrapped in
<ins>, deleted text in <del>. With --numbered the result carries line
numbers. With --unified both documents are numbered and their display
lines are compared as plain text instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldHTML, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			newHTML, err := a.readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			lineLength, firstLine, err := nf.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}

			if unified {
				return printUnifiedDiff(cmd.OutOrStdout(), args[0], args[1], oldHTML, newHTML, lineLength, firstLine, contextLines)
			}

			var opts []htmldiff.Option
			if numbered {
				opts = append(opts, htmldiff.WithLineLength(lineLength), htmldiff.WithFirstLine(firstLine))
			}
			out, err := htmldiff.Diff(oldHTML, newHTML, opts...)
			if err != nil {
				return err
			}
			if htmldiff.DetectBrokenDiffHTML(out) {
				a.log.Warn("diff markup is not well-formed", slog.String("old", args[0]), slog.String("new", args[1]))
			}
			return writeLine(cmd.OutOrStdout(), out)
		},
	}

	nf.register(cmd)
	cmd.Flags().BoolVar(&numbered, "numbered", false, "insert line numbers into the diff")
	cmd.Flags().BoolVar(&unified, "unified", false, "print a unified diff of the display lines")
	cmd.Flags().IntVarP(&contextLines, "context", "U", diff.DefaultContextLines, "unchanged lines around each change in unified mode")
	return cmd
}

func printUnifiedDiff(out io.Writer, oldName, newName, oldHTML, newHTML string, lineLength, firstLine, contextLines int) error {
	numberedLines := func(html string) ([]diff.Line, error) {
		numbered, err := linenumber.Annotate(html, lineLength, linenumber.WithFirstLine(firstLine))
		if err != nil {
			return nil, err
		}
		return diff.Lines(numbered)
	}
	before, err := numberedLines(oldHTML)
	if err != nil {
		return err
	}
	after, err := numberedLines(newHTML)
	if err != nil {
		return err
	}
	return diff.WriteUnified(out, "a/"+oldName, "b/"+newName, diff.Compare(before, after), contextLines)
}
