package feed

import (
	"time"

	"github.com/lysyi3m/rsxml/internal/rsxml"
)

var (
	Atom = &rsxml.Descriptor{
		Name: "atom",
		Capabilities: rsxml.Capabilities{
			IsFeedParser:       true,
			RequireOrderedTags: []string{"<feed"},
		},
		Preflight: rsxml.RequireRoot("feed"),
		New:       newBuilder,
	}

	RSS = &rsxml.Descriptor{
		Name: "rss",
		Capabilities: rsxml.Capabilities{
			IsFeedParser:       true,
			RequireOrderedTags: []string{"<rss", "<channel"},
		},
		Preflight: rsxml.RequireRoot("rss"),
		New:       newBuilder,
	}

	RDF = &rsxml.Descriptor{
		Name: "rdf",
		Capabilities: rsxml.Capabilities{
			IsFeedParser:       true,
			RequireOrderedTags: []string{"<rdf:RDF", "<channel"},
		},
		Preflight: rsxml.RequireRoot("RDF"),
		New:       newBuilder,
	}
)

// Descriptors lists the feed parsers in selection order.
func Descriptors() []*rsxml.Descriptor {
	return []*rsxml.Descriptor{Atom, RSS, RDF}
}

func newBuilder(d *rsxml.Data) rsxml.Builder {
	return newMachine(d.URL(), time.Now().UTC())
}
