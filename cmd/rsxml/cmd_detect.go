package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lysyi3m/rsxml/internal/parser"
	"github.com/lysyi3m/rsxml/internal/rsxml"
)

type detectResult struct {
	File     string `json:"file" yaml:"file"`
	CanParse bool   `json:"can_parse" yaml:"can_parse"`
	Parser   string `json:"parser,omitempty" yaml:"parser,omitempty"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newDetectCmd() *cobra.Command {
	var outputFormat string
	var minLength int

	cmd := &cobra.Command{
		Use:   "detect <file>...",
		Short: "Report which parser would handle each document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]detectResult, 0, len(args))
			for _, name := range args {
				b, err := readInput(name)
				if err != nil {
					return fmt.Errorf("read %s: %w", name, err)
				}
				results = append(results, detect(name, b, rsxml.WithMinimumLength(minLength)))
			}
			if err := encode(cmd.OutOrStdout(), outputFormat, results); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().IntVar(&minLength, "min-length", 10, "Shortest document worth parsing, in bytes")

	return cmd
}

func detect(name string, b []byte, opts ...rsxml.Option) detectResult {
	data := parser.NewData(b, name, opts...)
	res := detectResult{
		File:     name,
		CanParse: data.CanParse(),
		Encoding: data.Encoding(),
	}
	if err := data.Err(); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Parser = data.ParserName()
	res.Kind = data.Descriptor().Kind().String()
	return res
}
