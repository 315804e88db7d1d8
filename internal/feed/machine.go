package feed

import (
	"cmp"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/rsxml/internal/dates"
	"github.com/lysyi3m/rsxml/internal/entities"
	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/sax"
)

type field int

const (
	fieldTitle field = iota
	fieldBody
	fieldAbstract
	fieldLink
	fieldAuthor
	fieldPublished
	fieldModified
	fieldCount
)

// Field priorities. A value only replaces one of equal or lower priority.
const (
	prioLow  = 1
	prioBase = 2
	prioHigh = 3
)

type frame struct {
	ns    string
	local string
	known bool
}

// machine builds a model.Feed from Atom, RSS 2.0 or RDF events. One machine
// reads one document.
type machine struct {
	sax.BaseDelegate

	names  *sax.Pool
	feed   *model.Feed
	docURL string
	atom   bool
	stack  []frame

	feedLinkPrio int

	current      int
	articleDepth int
	prio         [fieldCount]int
	permaLink    string
	authorName   string
	authorEmail  string

	xhtml      *xhtmlWriter
	xhtmlField field
}

func newMachine(docURL string, parsed time.Time) *machine {
	return &machine{
		names:   sax.NewPool(elementNames...),
		feed:    model.NewFeed(docURL, parsed),
		docURL:  docURL,
		current: -1,
	}
}

func (m *machine) InternName(local, prefix string) string {
	return m.names.InternName(local, prefix)
}

func (m *machine) Document() (model.Document, error) {
	if m.current >= 0 {
		m.closeArticle()
	}
	m.feed.Link = resolveURL(m.docURL, m.feed.Link)
	return m.feed, nil
}

func (m *machine) StartElement(p *sax.Parser, e *sax.StartElement) {
	if m.xhtml != nil {
		m.stack = append(m.stack, frame{local: e.Local})
		m.xhtml.start(e)
		return
	}

	ns, known := canonicalNamespace(e.URI, e.Prefix)
	if len(m.stack) == 0 && e.Local == "feed" {
		m.atom = true
	}
	if known && ns == nsPlain && m.atom {
		ns = nsAtom
	}
	m.stack = append(m.stack, frame{ns: ns, local: e.Local, known: known})
	if !known {
		return
	}

	depth := len(m.stack)
	if m.current < 0 {
		switch {
		case (ns == nsPlain && e.Local == "item") || (ns == nsAtom && e.Local == "entry"):
			m.openArticle(depth)
		case m.parentIsFeed():
			m.startFeedField(p, ns, e)
		}
		return
	}

	switch depth - m.articleDepth {
	case 1:
		m.startArticleField(p, ns, e)
	case 2:
		if ns == nsAtom && m.parent().ns == nsAtom && m.parent().local == "author" {
			p.BeginStoringCharacters()
		}
	}
}

func (m *machine) EndElement(p *sax.Parser, e *sax.EndElement) {
	depth := len(m.stack)
	if depth == 0 {
		return
	}
	top := m.stack[depth-1]
	defer func() { m.stack = m.stack[:depth-1] }()

	if m.xhtml != nil {
		if depth > m.xhtml.depth {
			m.xhtml.end(e)
			return
		}
		m.finishXHTML()
		return
	}
	if !top.known {
		return
	}

	if m.current >= 0 {
		switch depth - m.articleDepth {
		case 0:
			m.closeArticle()
		case 1:
			m.endArticleField(p, top)
		case 2:
			if top.ns == nsAtom && m.parent().local == "author" {
				switch top.local {
				case "name":
					m.authorName = p.CurrentStringTrimmed()
				case "email":
					m.authorEmail = p.CurrentStringTrimmed()
				}
			}
		}
		return
	}

	if m.parentIsFeed() {
		m.endFeedField(p, top)
	}
}

func (m *machine) Characters(_ *sax.Parser, text []byte) {
	if m.xhtml != nil {
		m.xhtml.text(text)
	}
}

func (m *machine) parent() frame {
	if len(m.stack) < 2 {
		return frame{}
	}
	return m.stack[len(m.stack)-2]
}

func (m *machine) parentIsFeed() bool {
	parent := m.parent()
	return (parent.ns == nsPlain && parent.local == "channel") ||
		(parent.ns == nsAtom && parent.local == "feed")
}

func (m *machine) article() *model.Article {
	return &m.feed.Articles[m.current]
}

func (m *machine) openArticle(depth int) {
	m.current = m.feed.AddArticle()
	m.articleDepth = depth
	m.prio = [fieldCount]int{}
	m.permaLink = ""
	m.authorName, m.authorEmail = "", ""
}

func (m *machine) closeArticle() {
	a := m.article()
	base := m.baseURL()
	a.Link = resolveURL(base, a.Link)
	a.Permalink = resolveURL(base, a.Permalink)
	for i := range a.Enclosures {
		a.Enclosures[i].URL = resolveURL(base, a.Enclosures[i].URL)
	}
	a.Seal()
	m.current = -1
}

func (m *machine) baseURL() string {
	if u, err := url.Parse(m.feed.Link); err == nil && u.IsAbs() {
		return m.feed.Link
	}
	return m.docURL
}

func (m *machine) startFeedField(p *sax.Parser, ns string, e *sax.StartElement) {
	if ns == nsAtom && e.Local == "link" {
		rel := e.Attr("rel")
		if rel != "" && rel != "alternate" {
			return
		}
		prio := prioBase
		if !m.atom {
			prio = prioLow
		}
		if href := strings.TrimSpace(e.Attr("href")); href != "" && prio >= m.feedLinkPrio {
			m.feed.Link = href
			m.feedLinkPrio = prio
		}
		return
	}
	p.BeginStoringCharacters()
}

func (m *machine) endFeedField(p *sax.Parser, top frame) {
	text := p.CurrentStringTrimmed()
	if text == "" {
		return
	}
	f := m.feed

	switch top.ns {
	case nsPlain:
		switch top.local {
		case "title":
			f.Title = entities.Decode(text)
		case "link":
			if prioHigh >= m.feedLinkPrio {
				f.Link = text
				m.feedLinkPrio = prioHigh
			}
		case "description":
			f.Subtitle = entities.Decode(text)
		case "language":
			f.Language = text
		case "lastBuildDate":
			if t, ok := dates.Parse(text); ok {
				f.DateUpdated = &t
			}
		case "pubDate":
			if t, ok := dates.Parse(text); ok && f.DateUpdated == nil {
				f.DateUpdated = &t
			}
		}
	case nsAtom:
		switch top.local {
		case "title":
			f.Title = entities.Decode(text)
		case "subtitle", "tagline":
			f.Subtitle = entities.Decode(text)
		case "updated", "modified":
			if t, ok := dates.Parse(text); ok {
				f.DateUpdated = &t
			}
		}
	case nsDC:
		switch top.local {
		case "title":
			if f.Title == "" {
				f.Title = entities.Decode(text)
			}
		case "language":
			f.Language = text
		case "date":
			if t, ok := dates.Parse(text); ok {
				f.DateUpdated = &t
			}
		}
	}
}

func (m *machine) startArticleField(p *sax.Parser, ns string, e *sax.StartElement) {
	a := m.article()

	switch {
	case ns == nsAtom && e.Local == "link":
		m.articleLink(e)
	case ns == nsAtom && e.Local == "category":
		if term := strings.TrimSpace(cmp.Or(e.Attr("term"), e.Attr("label"))); term != "" {
			a.Categories = append(a.Categories, entities.Decode(term))
		}
	case ns == nsAtom && e.Local == "author":
		m.authorName, m.authorEmail = "", ""
	case ns == nsAtom && (e.Local == "content" || e.Local == "summary") && strings.EqualFold(e.Attr("type"), "xhtml"):
		m.xhtml = &xhtmlWriter{depth: len(m.stack)}
		m.xhtmlField = fieldBody
		if e.Local == "summary" {
			m.xhtmlField = fieldAbstract
		}
	case ns == nsPlain && e.Local == "enclosure":
		if u := strings.TrimSpace(e.Attr("url")); u != "" {
			length, _ := strconv.ParseInt(strings.TrimSpace(e.Attr("length")), 10, 64)
			a.Enclosures = append(a.Enclosures, model.Enclosure{URL: u, Type: e.Attr("type"), Length: length})
		}
	case ns == nsPlain && e.Local == "guid":
		m.permaLink = strings.TrimSpace(e.Attr("isPermaLink"))
		p.BeginStoringCharacters()
	default:
		p.BeginStoringCharacters()
	}
}

func (m *machine) articleLink(e *sax.StartElement) {
	a := m.article()
	href := strings.TrimSpace(e.Attr("href"))
	if href == "" {
		return
	}
	switch e.Attr("rel") {
	case "", "alternate":
		prio := prioBase
		if !m.atom {
			prio = prioLow
		}
		m.setText(fieldLink, prio, &a.Link, href)
	case "enclosure":
		length, _ := strconv.ParseInt(strings.TrimSpace(e.Attr("length")), 10, 64)
		a.Enclosures = append(a.Enclosures, model.Enclosure{URL: href, Type: e.Attr("type"), Length: length})
	}
}

func (m *machine) endArticleField(p *sax.Parser, top frame) {
	a := m.article()
	text := p.CurrentStringTrimmed()

	switch top.ns {
	case nsPlain:
		switch top.local {
		case "title":
			m.setText(fieldTitle, prioBase, &a.Title, entities.Decode(text))
		case "link":
			m.setText(fieldLink, prioBase, &a.Link, text)
		case "description":
			m.setDescription(text)
		case "guid":
			a.GUID = entities.Decode(text)
			if !strings.EqualFold(m.permaLink, "false") && isHTTP(text) {
				a.Permalink = text
			}
		case "pubDate":
			m.setDate(fieldPublished, prioBase, &a.DatePublished, text)
		case "author":
			m.setText(fieldAuthor, prioBase, &a.Author, entities.Decode(text))
		case "category":
			if text != "" {
				a.Categories = append(a.Categories, entities.Decode(text))
			}
		}
	case nsContent:
		if top.local == "encoded" {
			m.setEncoded(text)
		}
	case nsDC:
		switch top.local {
		case "creator":
			m.setText(fieldAuthor, prioHigh, &a.Author, entities.Decode(text))
		case "date":
			m.setDate(fieldPublished, prioHigh, &a.DatePublished, text)
		case "title":
			m.setText(fieldTitle, prioLow, &a.Title, entities.Decode(text))
		case "subject":
			if text != "" {
				a.Categories = append(a.Categories, entities.Decode(text))
			}
		}
	case nsDCTerms:
		switch top.local {
		case "created", "issued":
			m.setDate(fieldPublished, prioHigh, &a.DatePublished, text)
		case "modified":
			m.setDate(fieldModified, prioHigh, &a.DateModified, text)
		}
	case nsITunes:
		switch top.local {
		case "author":
			m.setText(fieldAuthor, prioLow, &a.Author, entities.Decode(text))
		case "summary":
			m.setText(fieldAbstract, prioLow, &a.Abstract, text)
		}
	case nsAtom:
		switch top.local {
		case "title":
			m.setText(fieldTitle, prioBase, &a.Title, entities.Decode(text))
		case "id":
			a.GUID = entities.Decode(text)
		case "summary":
			m.setText(fieldAbstract, prioBase, &a.Abstract, text)
		case "content":
			m.setText(fieldBody, prioBase, &a.Body, text)
		case "published", "issued":
			m.setDate(fieldPublished, prioBase, &a.DatePublished, text)
		case "updated", "modified":
			m.setDate(fieldModified, prioBase, &a.DateModified, text)
		case "author":
			author := formatAuthor(m.authorName, m.authorEmail)
			if author != "" && m.prio[fieldAuthor] == prioBase && a.Author != "" {
				author = a.Author + ", " + author
			}
			m.setText(fieldAuthor, prioBase, &a.Author, author)
		}
	}
}

// setDescription stores an RSS description as the body, or as the abstract
// when content:encoded already supplied the body.
func (m *machine) setDescription(text string) {
	a := m.article()
	if m.prio[fieldBody] > prioBase {
		m.setText(fieldAbstract, prioBase, &a.Abstract, text)
		return
	}
	m.setText(fieldBody, prioBase, &a.Body, text)
}

// setEncoded stores content:encoded as the body. A description already in
// the body moves to the abstract.
func (m *machine) setEncoded(text string) {
	if text == "" {
		return
	}
	a := m.article()
	if m.prio[fieldBody] == prioBase && a.Body != "" {
		m.setText(fieldAbstract, prioBase, &a.Abstract, a.Body)
	}
	m.setText(fieldBody, prioHigh, &a.Body, text)
}

func (m *machine) finishXHTML() {
	if m.current >= 0 {
		a := m.article()
		markup := m.xhtml.String()
		if m.xhtmlField == fieldAbstract {
			m.setText(fieldAbstract, prioBase, &a.Abstract, markup)
		} else {
			m.setText(fieldBody, prioBase, &a.Body, markup)
		}
	}
	m.xhtml = nil
}

func (m *machine) setText(f field, prio int, dst *string, value string) {
	if value == "" || prio < m.prio[f] {
		return
	}
	m.prio[f] = prio
	*dst = value
}

func (m *machine) setDate(f field, prio int, dst **time.Time, text string) {
	if prio < m.prio[f] {
		return
	}
	t, ok := dates.Parse(text)
	if !ok {
		return
	}
	m.prio[f] = prio
	*dst = &t
}

func formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name != "" && email != "" {
		return fmt.Sprintf("%s (%s)", email, name)
	} else if name != "" {
		return name
	} else if email != "" {
		return email
	}

	return ""
}

func isHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// resolveURL makes ref absolute against base when ref is relative and base
// is absolute. Anything else comes back unchanged.
func resolveURL(base, ref string) string {
	if ref == "" || base == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ref
	}
	return b.ResolveReference(u).String()
}
