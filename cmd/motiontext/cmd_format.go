package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/odvcencio/motiontext/pkg/config"
	"github.com/odvcencio/motiontext/pkg/motion"
)

func newFormatCmd(a *app) *cobra.Command {
	var (
		nf          numberingFlags
		modeName    string
		changesPath string
	)

	cmd := &cobra.Command{
		Use:   "format FILE",
		Short: "Render a document together with its proposed changes",
		Long: `Render FILE in one of the modes
  original  the numbered text
  changed   the text with all changes applied
  diff      every change shown inline between the unchanged lines
  final     the text with all changes applied that are not rejected
Changes are read from a TOML file of [[change]] tables with the keys
line_from, line_to, text, type and rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			mode, err := motion.ParseMode(modeName)
			if err != nil {
				return err
			}
			var changes []motion.Change
			if changesPath != "" {
				if changes, err = config.LoadChanges(changesPath); err != nil {
					return err
				}
			}
			lineLength, _, err := nf.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}
			a.log.Debug("formatting", slog.String("mode", mode.String()), slog.Int("changes", len(changes)))

			f := motion.Formatter{LineLength: lineLength}
			out, err := f.Format(text, mode, changes, nf.highlight)
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), out)
		},
	}

	nf.register(cmd)
	cmd.Flags().StringVar(&modeName, "mode", motion.Original.String(), "original, changed, diff or final")
	cmd.Flags().StringVar(&changesPath, "changes", "", "TOML file listing the changes")
	return cmd
}

func newAmendmentCmd(a *app) *cobra.Command {
	var nf numberingFlags

	cmd := &cobra.Command{
		Use:   "amendment BASE AMENDED",
		Short: "List the paragraphs an amended document changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			amended, err := a.readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			lineLength, _, err := nf.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}
			paragraphs, err := motion.AmendmentParagraphs(base, amended, lineLength)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range paragraphs {
				if _, err := fmt.Fprintf(out, "paragraph %d, lines %d-%d\n%s\n", p.Paragraph, p.Lines.From, p.Lines.To, p.Diff); err != nil {
					return err
				}
			}
			return nil
		},
	}
	nf.register(cmd)
	return cmd
}
