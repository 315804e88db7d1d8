package htmlmeta

import (
	"strings"

	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/rsxml"
	"github.com/lysyi3m/rsxml/internal/sax"
)

// Links accepts any HTML and lists its anchors. It has no tags, so it is
// only chosen after every other candidate declined.
var Links = &rsxml.Descriptor{
	Name: "html-links",
	Capabilities: rsxml.Capabilities{
		IsHTMLParser: true,
	},
	New: func(d *rsxml.Data) rsxml.Builder {
		return newLinksBuilder(d.URL())
	},
}

type linksBuilder struct {
	sax.BaseDelegate

	meta   *model.HTMLMetadata
	base   string
	anchor *model.Anchor
}

func newLinksBuilder(docURL string) *linksBuilder {
	return &linksBuilder{
		meta: &model.HTMLMetadata{URL: docURL},
		base: docURL,
	}
}

func (b *linksBuilder) StartElement(p *sax.Parser, e *sax.StartElement) {
	switch e.Local {
	case "base":
		if href := strings.TrimSpace(e.Attr("href")); href != "" {
			b.base = absolute(b.meta.URL, href)
		}
	case "a":
		// an unclosed anchor ends where the next one starts
		b.closeAnchor(p.CurrentString())
		href := strings.TrimSpace(e.Attr("href"))
		if href == "" {
			return
		}
		b.anchor = &model.Anchor{
			Link:    absolute(b.base, href),
			Tooltip: strings.TrimSpace(e.Attr("title")),
		}
		p.BeginStoringCharacters()
	}
}

func (b *linksBuilder) EndElement(p *sax.Parser, e *sax.EndElement) {
	if e.Local == "a" && b.anchor != nil {
		b.closeAnchor(p.CurrentString())
	}
}

func (b *linksBuilder) Document() (model.Document, error) {
	b.closeAnchor("")
	return b.meta, nil
}

func (b *linksBuilder) closeAnchor(text string) {
	if b.anchor == nil {
		return
	}
	b.anchor.Title = strings.Join(strings.Fields(text), " ")
	b.meta.Anchors = append(b.meta.Anchors, *b.anchor)
	b.anchor = nil
}
