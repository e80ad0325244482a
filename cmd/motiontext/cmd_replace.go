package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/motiontext/pkg/linenumber"
	"github.com/odvcencio/motiontext/pkg/merge"
)

func newReplaceCmd(a *app) *cobra.Command {
	var (
		nf       numberingFlags
		from     int
		numbered bool
	)

	cmd := &cobra.Command{
		Use:   "replace FILE NEW --from N [--to N]",
		Short: "Replace a range of lines of a numbered document",
		Long: `Replace the lines from N up to, but not including, the --to line of the
line-numbered FILE with the content of NEW. The result carries no line
numbers unless --numbered is set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orig, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			replacement, err := a.readDocument(cmd, args[1])
			if err != nil {
				return err
			}
			to, err := optionalLine(cmd, "to")
			if err != nil {
				return err
			}
			out, err := merge.ReplaceLines(orig, replacement, from, to)
			if err != nil {
				return err
			}
			if numbered {
				lineLength, firstLine, err := nf.resolve(cmd, a.cfg)
				if err != nil {
					return err
				}
				if out, err = linenumber.Annotate(out, lineLength, linenumber.WithFirstLine(firstLine)); err != nil {
					return err
				}
			}
			return writeLine(cmd.OutOrStdout(), out)
		},
	}

	nf.register(cmd)
	cmd.Flags().IntVar(&from, "from", 0, "first line to replace")
	cmd.Flags().Int("to", 0, "line following the replaced range (default: end of document)")
	cmd.Flags().BoolVar(&numbered, "numbered", false, "number the result")
	if err := cmd.MarkFlagRequired("from"); err != nil {
		panic(fmt.Sprintf("replace: %v", err))
	}
	return cmd
}
