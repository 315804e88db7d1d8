package htmlmeta

import (
	"net/url"
	"strings"

	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/rsxml"
	"github.com/lysyi3m/rsxml/internal/sax"
)

var Metadata = &rsxml.Descriptor{
	Name: "html-metadata",
	Capabilities: rsxml.Capabilities{
		IsHTMLParser:       true,
		RequireOrderedTags: []string{"<html", "<head"},
	},
	New: func(d *rsxml.Data) rsxml.Builder {
		return newMetadataBuilder(d.URL())
	},
}

// iconRels are the rel values that name an icon.
var iconRels = map[string]bool{
	"icon":                         true,
	"shortcut icon":                true,
	"apple-touch-icon":             true,
	"apple-touch-icon-precomposed": true,
	"mask-icon":                    true,
}

type rawLink struct {
	rel   string
	href  string
	title string
	typ   string
	sizes string
}

// metadataBuilder collects <link> and <base> from the document head and
// stops the parse at the end of the head.
type metadataBuilder struct {
	sax.BaseDelegate

	docURL string
	base   string
	links  []rawLink
}

func newMetadataBuilder(docURL string) *metadataBuilder {
	return &metadataBuilder{docURL: docURL, base: docURL}
}

func (b *metadataBuilder) StartElement(p *sax.Parser, e *sax.StartElement) {
	switch e.Local {
	case "base":
		if href := strings.TrimSpace(e.Attr("href")); href != "" {
			b.base = absolute(b.docURL, href)
		}
	case "link":
		href := strings.TrimSpace(e.Attr("href"))
		if href == "" {
			return
		}
		b.links = append(b.links, rawLink{
			rel:   normalizeRel(e.Attr("rel")),
			href:  href,
			title: strings.TrimSpace(e.Attr("title")),
			typ:   e.Attr("type"),
			sizes: e.Attr("sizes"),
		})
	case "body":
		p.Stop()
	}
}

func (b *metadataBuilder) EndElement(p *sax.Parser, e *sax.EndElement) {
	if e.Local == "head" {
		p.Stop()
	}
}

func (b *metadataBuilder) Document() (model.Document, error) {
	m := &model.HTMLMetadata{URL: b.docURL}

	for _, l := range b.links {
		link := absolute(b.base, l.href)

		if iconRels[l.rel] {
			m.IconLinks = append(m.IconLinks, model.IconLink{
				Link:  link,
				Title: l.title,
				Rel:   l.rel,
				Sizes: l.sizes,
			})
			if m.FaviconLink == "" && (l.rel == "icon" || l.rel == "shortcut icon") {
				m.FaviconLink = link
			}
			continue
		}

		if hasToken(l.rel, "alternate") {
			if kind := model.FeedKindForType(l.typ); kind != model.FeedKindNone {
				m.FeedLinks = append(m.FeedLinks, model.FeedLink{Link: link, Title: l.title, Kind: kind})
			}
		}
	}

	return m, nil
}

func normalizeRel(rel string) string {
	return strings.Join(strings.Fields(strings.ToLower(rel)), " ")
}

func hasToken(rel, token string) bool {
	for _, t := range strings.Fields(rel) {
		if t == token {
			return true
		}
	}
	return false
}

// absolute resolves ref against base. ref comes back unchanged when either
// side cannot be parsed or base is not absolute.
func absolute(base, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ref
	}
	return b.ResolveReference(u).String()
}
