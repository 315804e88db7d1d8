package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/parser"
	"github.com/lysyi3m/rsxml/internal/rsxml"
)

type parseResult struct {
	File     string         `json:"file" yaml:"file"`
	Kind     string         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Document model.Document `json:"document,omitempty" yaml:"document,omitempty"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func newParseCmd() *cobra.Command {
	var url string
	var expect string
	var outputFormat string
	var minLength int
	var markers []string

	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse documents and dump the result (\"-\" reads stdin)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []rsxml.Option{rsxml.WithMinimumLength(minLength)}
			if len(markers) > 0 {
				opts = append(opts, rsxml.WithProviderMarkers(markers...))
			}

			parse, err := parseFunc(expect)
			if err != nil {
				return err
			}

			results := make([]parseResult, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(runtime.NumCPU())
			for i, name := range args {
				g.Go(func() error {
					b, err := readInput(name)
					if err != nil {
						return fmt.Errorf("read %s: %w", name, err)
					}
					docURL := url
					if docURL == "" {
						docURL = name
					}
					res := parseResult{File: name}
					doc, err := parse(ctx, b, docURL, opts...)
					if err != nil {
						res.Error = err.Error()
					} else {
						res.Kind = model.Kind(doc)
						res.Document = doc
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if res.Error != "" {
					failed++
				}
			}

			var out any = results
			if len(results) == 1 {
				out = results[0]
			}
			if err := encode(cmd.OutOrStdout(), outputFormat, out); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed to parse", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Document URL used to resolve relative links (defaults to the file name)")
	cmd.Flags().StringVarP(&expect, "expect", "e", "", "Require a document kind: feed, opml, html or links")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().IntVar(&minLength, "min-length", 10, "Shortest document worth parsing, in bytes")
	cmd.Flags().StringSliceVar(&markers, "provider-marker", nil, "Extra text identifying provider error documents")

	return cmd
}

type parseFn func(ctx context.Context, b []byte, url string, opts ...rsxml.Option) (model.Document, error)

func parseFunc(expect string) (parseFn, error) {
	switch expect {
	case "":
		return parser.Parse, nil
	case "links":
		return func(ctx context.Context, b []byte, url string, opts ...rsxml.Option) (model.Document, error) {
			return parser.ParseLinks(ctx, b, url, opts...)
		}, nil
	}

	kind, ok := rsxml.ParseKind(expect)
	if !ok {
		return nil, fmt.Errorf("unknown document kind: %s", expect)
	}
	switch kind {
	case rsxml.KindOPML:
		return func(ctx context.Context, b []byte, url string, opts ...rsxml.Option) (model.Document, error) {
			return parser.ParseOPML(ctx, b, url, opts...)
		}, nil
	case rsxml.KindHTML:
		return func(ctx context.Context, b []byte, url string, opts ...rsxml.Option) (model.Document, error) {
			return parser.ParseHTMLMetadata(ctx, b, url, opts...)
		}, nil
	default:
		return func(ctx context.Context, b []byte, url string, opts ...rsxml.Option) (model.Document, error) {
			return parser.ParseFeed(ctx, b, url, opts...)
		}, nil
	}
}
