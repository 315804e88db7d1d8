package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lysyi3m/rsxml/internal/cfg"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "rsxml",
		Short:   "Parse RSS, Atom, RDF, OPML and HTML documents",
		Version: cfg.GetVersion(),
	}

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newExportOPMLCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
