package rsxml

import (
	"context"

	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/sax"
)

type Kind int

const (
	KindFeed Kind = iota
	KindOPML
	KindHTML
)

func (k Kind) String() string {
	switch k {
	case KindOPML:
		return "opml"
	case KindHTML:
		return "html"
	default:
		return "feed"
	}
}

// ParseKind maps "feed", "opml" and "html" to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "feed":
		return KindFeed, true
	case "opml":
		return KindOPML, true
	case "html":
		return KindHTML, true
	}
	return KindFeed, false
}

type Capabilities struct {
	IsFeedParser bool
	IsOPMLParser bool
	IsHTMLParser bool
	// RequireOrderedTags must all occur in the text, in this order, for the
	// parser to be considered. No tags means the parser accepts anything
	// and is tried after every parser that has tags.
	RequireOrderedTags []string
}

func (c Capabilities) Kind() Kind {
	switch {
	case c.IsHTMLParser:
		return KindHTML
	case c.IsOPMLParser:
		return KindOPML
	default:
		return KindFeed
	}
}

// Builder consumes lexical events and produces the finished document.
type Builder interface {
	sax.Delegate
	Document() (model.Document, error)
}

type Descriptor struct {
	Name         string
	Capabilities Capabilities
	// Preflight runs after the tags matched and may still reject the data.
	Preflight func(d *Data) bool
	New       func(d *Data) Builder
}

func (d *Descriptor) Kind() Kind {
	return d.Capabilities.Kind()
}

func (d *Descriptor) Mode() sax.Mode {
	if d.Capabilities.IsHTMLParser {
		return sax.ModeHTML
	}
	return sax.ModeXML
}

// RequireRoot returns a preflight that accepts data whose first element has
// the given local name.
func RequireRoot(local string) func(d *Data) bool {
	return func(d *Data) bool {
		root, err := sax.RootElement(context.Background(), d.Bytes(), sax.ModeXML, d.Encoding())
		return err == nil && root.Local == local
	}
}
