// Package parser wires the built-in parsers into a registry and offers
// one-call entry points over it.
package parser

import (
	"context"

	"github.com/lysyi3m/rsxml/internal/feed"
	"github.com/lysyi3m/rsxml/internal/htmlmeta"
	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/opml"
	"github.com/lysyi3m/rsxml/internal/rsxml"
)

// Default returns the registry in priority order. The anchor-only Links
// parser is not included; use ParseLinks for it.
func Default() []*rsxml.Descriptor {
	return []*rsxml.Descriptor{
		feed.Atom,
		feed.RSS,
		feed.RDF,
		opml.OPML,
		htmlmeta.Metadata,
	}
}

// NewData runs detection against the default registry. Options given here
// are applied after it, so WithParsers replaces the registry.
func NewData(b []byte, url string, opts ...rsxml.Option) *rsxml.Data {
	all := append([]rsxml.Option{rsxml.WithParsers(Default()...)}, opts...)
	return rsxml.NewData(b, url, all...)
}

// Parse detects and parses b, returning whichever document it turned out
// to be.
func Parse(ctx context.Context, b []byte, url string, opts ...rsxml.Option) (model.Document, error) {
	p, err := rsxml.Open(NewData(b, url, opts...))
	if err != nil {
		return nil, err
	}
	return p.ParseSync(ctx)
}

func parseExpecting(ctx context.Context, data *rsxml.Data, kind rsxml.Kind) (model.Document, error) {
	if err := rsxml.Expect(data, kind); err != nil {
		return nil, err
	}
	p, err := rsxml.Open(data)
	if err != nil {
		return nil, err
	}
	return p.ParseSync(ctx)
}

func ParseFeed(ctx context.Context, b []byte, url string, opts ...rsxml.Option) (*model.Feed, error) {
	doc, err := parseExpecting(ctx, NewData(b, url, opts...), rsxml.KindFeed)
	if err != nil {
		return nil, err
	}
	return rsxml.ExpectFeed(doc)
}

func ParseOPML(ctx context.Context, b []byte, url string, opts ...rsxml.Option) (*model.OPMLItem, error) {
	doc, err := parseExpecting(ctx, NewData(b, url, opts...), rsxml.KindOPML)
	if err != nil {
		return nil, err
	}
	return rsxml.ExpectOPML(doc)
}

func ParseHTMLMetadata(ctx context.Context, b []byte, url string, opts ...rsxml.Option) (*model.HTMLMetadata, error) {
	doc, err := parseExpecting(ctx, NewData(b, url, opts...), rsxml.KindHTML)
	if err != nil {
		return nil, err
	}
	return rsxml.ExpectHTML(doc)
}

// LinksData runs detection with the Links parser as the only candidate.
func LinksData(b []byte, url string, opts ...rsxml.Option) *rsxml.Data {
	all := append(append([]rsxml.Option(nil), opts...), rsxml.WithParsers(htmlmeta.Links))
	return rsxml.NewData(b, url, all...)
}

// ParseLinks lists every anchor in an HTML document.
func ParseLinks(ctx context.Context, b []byte, url string, opts ...rsxml.Option) (*model.HTMLMetadata, error) {
	doc, err := parseExpecting(ctx, LinksData(b, url, opts...), rsxml.KindHTML)
	if err != nil {
		return nil, err
	}
	return rsxml.ExpectHTML(doc)
}
