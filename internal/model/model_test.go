package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestArticleID(t *testing.T) {
	parsed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFeed("https://example.com/feed.xml", parsed)

	i := f.AddArticle()
	a := &f.Articles[i]
	assert.Equal(t, "", a.ArticleID())
	assert.Equal(t, f.URL, a.FeedURL())
	assert.Equal(t, parsed, a.DateParsed())

	a.GUID = "item-1"
	a.Seal()
	id := a.ArticleID()
	require.Len(t, id, 64)

	a.GUID = "changed"
	a.Seal()
	assert.Equal(t, id, a.ArticleID(), "ID is fixed once sealed")

	// Same GUID in another feed gives another ID.
	other := NewFeed("https://other.example.com/feed.xml", parsed)
	j := other.AddArticle()
	other.Articles[j].GUID = "item-1"
	other.Articles[j].Seal()
	assert.NotEqual(t, id, other.Articles[j].ArticleID())

	// Same GUID in the same feed gives the same ID.
	again := NewFeed("https://example.com/feed.xml", parsed.Add(time.Hour))
	k := again.AddArticle()
	again.Articles[k].GUID = "item-1"
	again.Articles[k].Seal()
	assert.Equal(t, id, again.Articles[k].ArticleID())
}

func TestArticleIDWithoutGUID(t *testing.T) {
	f := NewFeed("https://example.com/feed.xml", time.Now())
	published := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)

	i := f.AddArticle()
	f.Articles[i].Title = "Hello"
	f.Articles[i].Link = "https://example.com/hello"
	f.Articles[i].DatePublished = &published
	f.Articles[i].Seal()

	j := f.AddArticle()
	f.Articles[j].Title = "Hello"
	f.Articles[j].Link = "https://example.com/hello"
	f.Articles[j].Seal()

	otherLink := f.AddArticle()
	f.Articles[otherLink].Title = "Hello"
	f.Articles[otherLink].Link = "https://example.com/hello-again"
	f.Articles[otherLink].DatePublished = &published
	f.Articles[otherLink].Seal()

	otherTitle := f.AddArticle()
	f.Articles[otherTitle].Title = "Hello, again"
	f.Articles[otherTitle].Link = "https://example.com/hello"
	f.Articles[otherTitle].DatePublished = &published
	f.Articles[otherTitle].Seal()

	empty := f.AddArticle()
	f.Articles[empty].Seal()

	assert.NotEmpty(t, f.Articles[i].ArticleID())
	assert.NotEmpty(t, f.Articles[empty].ArticleID())
	assert.NotEqual(t, f.Articles[i].ArticleID(), f.Articles[j].ArticleID())
	assert.NotEqual(t, f.Articles[i].ArticleID(), f.Articles[otherLink].ArticleID())
	assert.NotEqual(t, f.Articles[i].ArticleID(), f.Articles[otherTitle].ArticleID())
}

func TestArticleJSON(t *testing.T) {
	f := NewFeed("https://example.com/feed.xml", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	i := f.AddArticle()
	f.Articles[i].GUID = "g"
	f.Articles[i].Title = "T"
	f.Articles[i].Seal()

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var out struct {
		Articles []map[string]interface{} `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Articles, 1)
	assert.Equal(t, f.Articles[i].ArticleID(), out.Articles[0]["article_id"])
	assert.Equal(t, "https://example.com/feed.xml", out.Articles[0]["feed_url"])
	assert.Equal(t, "T", out.Articles[0]["title"])
}

func TestAttributesCaseInsensitive(t *testing.T) {
	item := NewOPMLItem()
	item.SetAttribute("xmlUrl", "https://example.com/feed")

	v, ok := item.Attribute("XMLURL")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/feed", v)

	item.SetAttribute("XMLURL", "https://example.com/other")
	require.Len(t, item.Attributes, 1)
	assert.Equal(t, "xmlUrl", item.Attributes[0].Key)
	assert.Equal(t, "https://example.com/other", item.XMLURL())
}

func TestOPMLItemDerived(t *testing.T) {
	folder := NewOPMLItem()
	folder.SetAttribute("text", "Tech")
	assert.False(t, folder.IsFolder())
	assert.Equal(t, "Tech", folder.DisplayName())

	folder.SetAttribute("title", "Technology")
	assert.Equal(t, "Technology", folder.DisplayName())

	leaf := NewOPMLItem()
	leaf.SetAttribute("text", "Blog")
	leaf.SetAttribute("xmlUrl", "https://blog.example.com/rss")
	folder.AddChild(leaf)

	assert.True(t, folder.IsFolder())
	assert.Equal(t, []*OPMLItem{leaf}, folder.Feeds())
	assert.Equal(t, "Technology\n  Blog <https://blog.example.com/rss>\n", folder.String())
}

func TestAttributesMarshalOrder(t *testing.T) {
	attrs := Attributes{{Key: "text", Value: "b"}, {Key: "type", Value: "rss"}, {Key: "a", Value: "1"}}

	data, err := json.Marshal(attrs)
	require.NoError(t, err)
	assert.Equal(t, `{"text":"b","type":"rss","a":"1"}`, string(data))

	out, err := yaml.Marshal(attrs)
	require.NoError(t, err)
	assert.Equal(t, "text: b\ntype: rss\na: \"1\"\n", string(out))
}

func TestParseSize(t *testing.T) {
	assert.Equal(t, Size{Width: 32, Height: 32}, ParseSize("32x32"))
	assert.Equal(t, Size{Width: 16, Height: 24}, ParseSize(" 16X24 32x32"))
	assert.Equal(t, Size{}, ParseSize("any"))
	assert.Equal(t, Size{}, ParseSize(""))
	assert.Equal(t, Size{}, ParseSize("axb"))

	icon := IconLink{Link: "/i.png", Sizes: "180x180"}
	assert.Equal(t, 180, icon.Size().Width)
}

func TestFeedKindForType(t *testing.T) {
	assert.Equal(t, FeedKindRSS, FeedKindForType("application/rss+xml"))
	assert.Equal(t, FeedKindAtom, FeedKindForType("Application/Atom+XML; charset=utf-8"))
	assert.Equal(t, FeedKindNone, FeedKindForType("text/html"))
}

func TestDocumentKind(t *testing.T) {
	assert.Equal(t, "feed", Kind(&Feed{}))
	assert.Equal(t, "opml", Kind(NewOPMLItem()))
	assert.Equal(t, "html", Kind(&HTMLMetadata{}))
	assert.Equal(t, "", Kind(nil))
}
