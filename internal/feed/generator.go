package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/rsxml/internal/model"
)

// Generator writes a parsed feed back out as RSS 2.0.
type Generator struct {
	// SelfLink, when set, is written as the channel's atom:link rel="self".
	SelfLink string
	Name     string
}

func NewGenerator() *Generator {
	return &Generator{Name: "rsxml"}
}

func (g *Generator) Run(feed *model.Feed) (string, error) {
	if feed == nil {
		return "", fmt.Errorf("failed to generate feed: nil feed")
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", feed.Title, 4)
	g.writeElement(&buf, "link", feed.Link, 4)
	description := feed.Subtitle
	if description == "" {
		description = fmt.Sprintf("Feed from %s", cmp.Or(feed.URL, feed.Link))
	}
	g.writeElement(&buf, "description", description, 4)

	if g.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(g.SelfLink)))
	}

	lastBuildDate := feed.DateParsed
	if feed.DateUpdated != nil {
		lastBuildDate = *feed.DateUpdated
	}
	if !lastBuildDate.IsZero() {
		g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	}
	g.writeElement(&buf, "generator", g.Name, 4)
	g.writeElement(&buf, "language", feed.Language, 4)

	for i := range feed.Articles {
		g.writeItem(&buf, &feed.Articles[i])
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, a *model.Article) {
	buf.WriteString("    <item>\n")

	if guid := cmp.Or(a.GUID, a.ArticleID()); guid != "" {
		isPermaLink := a.Permalink != "" && a.Permalink == a.GUID
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", isPermaLink))
		xml.EscapeText(buf, []byte(guid))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", a.Title, 6)
	g.writeElement(buf, "link", cmp.Or(a.Link, a.Permalink), 6)

	description := cmp.Or(a.Abstract, a.Body)
	g.writeElement(buf, "description", description, 6)

	if a.Body != "" && a.Body != description {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(a.Body, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if a.DatePublished != nil {
		g.writeElement(buf, "pubDate", a.DatePublished.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "author", a.Author, 6)

	for _, category := range a.Categories {
		g.writeElement(buf, "category", category, 6)
	}

	// RSS 2.0 allows a single enclosure per item.
	if len(a.Enclosures) > 0 && a.Enclosures[0].URL != "" {
		enclosure := a.Enclosures[0]
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"%d\" type=\"%s\" />\n",
			html.EscapeString(enclosure.URL),
			enclosure.Length,
			html.EscapeString(enclosure.Type)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
