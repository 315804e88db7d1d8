package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lysyi3m/rsxml/internal/opml"
	"github.com/lysyi3m/rsxml/internal/parser"
)

func newExportOPMLCmd() *cobra.Command {
	var subscriptionsOnly bool

	cmd := &cobra.Command{
		Use:   "export-opml <file>",
		Short: "Parse an OPML document and write it back out normalized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			root, err := parser.ParseOPML(cmd.Context(), b, args[0])
			if err != nil {
				return fmt.Errorf("parse opml: %w", err)
			}
			if subscriptionsOnly {
				root.Children = opml.Subscriptions(root)
			}
			return opml.Export(cmd.OutOrStdout(), root)
		},
	}

	cmd.Flags().BoolVar(&subscriptionsOnly, "flatten", false, "Write only subscription outlines, flattened under the body")

	return cmd
}
