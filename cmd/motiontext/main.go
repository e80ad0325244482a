package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "motiontext",
		Short:         "Line numbering, extraction, diff and merge for motion text HTML",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "motiontext.toml", "path to the TOML config file")
	root.PersistentFlags().BoolVar(&a.markdown, "markdown", false, "read input documents as Markdown")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newNumberCmd(a))
	root.AddCommand(newStripCmd(a))
	root.AddCommand(newRangeCmd(a))
	root.AddCommand(newHeadingsCmd(a))
	root.AddCommand(newParagraphsCmd(a))
	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newDiffCmd(a))
	root.AddCommand(newReplaceCmd(a))
	root.AddCommand(newFormatCmd(a))
	root.AddCommand(newAmendmentCmd(a))

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "motiontext %s\n", version)
		},
	}
}
