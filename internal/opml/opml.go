package opml

import (
	"strings"

	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/rsxml"
	"github.com/lysyi3m/rsxml/internal/sax"
)

var OPML = &rsxml.Descriptor{
	Name: "opml",
	Capabilities: rsxml.Capabilities{
		IsOPMLParser:       true,
		RequireOrderedTags: []string{"<opml"},
	},
	Preflight: rsxml.RequireRoot("opml"),
	New: func(d *rsxml.Data) rsxml.Builder {
		return newBuilder()
	},
}

var commonKeys = []string{
	"opml", "head", "body", "outline",
	model.OPMLTextKey, model.OPMLTitleKey, model.OPMLDescriptionKey,
	model.OPMLTypeKey, model.OPMLVersionKey, model.OPMLHTMLURLKey,
	model.OPMLXMLURLKey, "dateCreated", "dateModified", "ownerName",
	"ownerEmail", "category", "language",
}

// commonValues are the outline type values worth sharing between items.
var commonValues = map[string]bool{
	"rss":     true,
	"atom":    true,
	"link":    true,
	"include": true,
}

// builder turns outline events into a model.OPMLItem tree. The root item
// stands for the whole document.
type builder struct {
	sax.BaseDelegate

	pool   *sax.Pool
	root   *model.OPMLItem
	stack  []*model.OPMLItem
	inHead bool
}

func newBuilder() *builder {
	return &builder{
		pool: sax.NewPool(commonKeys...),
		root: model.NewOPMLItem(),
	}
}

func (b *builder) InternName(local, prefix string) string {
	return b.pool.InternName(local, prefix)
}

func (b *builder) InternValue(value string) string {
	if commonValues[value] {
		return b.pool.Intern(value)
	}
	return value
}

func (b *builder) StartElement(p *sax.Parser, e *sax.StartElement) {
	switch {
	case e.Local == "outline":
		item := model.NewOPMLItem()
		for _, a := range e.Attrs {
			item.SetAttribute(attrKey(a), a.Value)
		}
		b.parent().AddChild(item)
		b.stack = append(b.stack, item)
	case b.inHead:
		p.BeginStoringCharacters()
	case e.Local == "head":
		b.inHead = true
	case e.Local == "opml" && p.Depth() == 1:
		if v := e.Attr(model.OPMLVersionKey); v != "" {
			b.root.SetAttribute(model.OPMLVersionKey, v)
		}
	}
}

func (b *builder) EndElement(p *sax.Parser, e *sax.EndElement) {
	switch {
	case e.Local == "outline":
		if len(b.stack) > 0 {
			b.stack = b.stack[:len(b.stack)-1]
		}
	case e.Local == "head":
		b.inHead = false
	case b.inHead:
		if text := p.CurrentStringTrimmed(); text != "" {
			b.root.SetAttribute(e.Local, text)
		}
	}
}

func (b *builder) Document() (model.Document, error) {
	return b.root, nil
}

func (b *builder) parent() *model.OPMLItem {
	if len(b.stack) == 0 {
		return b.root
	}
	return b.stack[len(b.stack)-1]
}

func attrKey(a sax.Attr) string {
	if a.Prefix == "" {
		return a.Local
	}
	return a.Prefix + ":" + a.Local
}

// IsSubscription reports whether an outline type names a feed.
func IsSubscription(item *model.OPMLItem) bool {
	t, _ := item.Attribute(model.OPMLTypeKey)
	return item.XMLURL() != "" && (t == "" || strings.EqualFold(t, "rss") || strings.EqualFold(t, "atom"))
}

// Subscriptions returns copies of every subscription outline under root,
// depth first, without their children.
func Subscriptions(root *model.OPMLItem) []*model.OPMLItem {
	var out []*model.OPMLItem
	for _, item := range root.Feeds() {
		if !IsSubscription(item) {
			continue
		}
		flat := model.NewOPMLItem()
		flat.Attributes = append(flat.Attributes, item.Attributes...)
		out = append(out, flat)
	}
	return out
}
