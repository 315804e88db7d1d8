package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type Feed struct {
	URL         string     `json:"url" yaml:"url"`
	DateParsed  time.Time  `json:"date_parsed" yaml:"date_parsed"`
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	Link        string     `json:"link,omitempty" yaml:"link,omitempty"`
	Subtitle    string     `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Language    string     `json:"language,omitempty" yaml:"language,omitempty"`
	DateUpdated *time.Time `json:"date_updated,omitempty" yaml:"date_updated,omitempty"`
	Articles    []Article  `json:"articles" yaml:"articles"`
}

func NewFeed(url string, parsed time.Time) *Feed {
	return &Feed{
		URL:        url,
		DateParsed: parsed,
		Articles:   []Article{},
	}
}

// AddArticle appends an empty article bound to this feed and returns its index.
func (f *Feed) AddArticle() int {
	f.Articles = append(f.Articles, Article{
		feedURL:    f.URL,
		dateParsed: f.DateParsed,
	})
	return len(f.Articles) - 1
}

type Enclosure struct {
	URL    string `json:"url" yaml:"url"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
	Length int64  `json:"length,omitempty" yaml:"length,omitempty"`
}

type Article struct {
	feedURL    string
	dateParsed time.Time
	id         string

	GUID          string
	Title         string
	Abstract      string
	Body          string
	Link          string
	Permalink     string
	Author        string
	DatePublished *time.Time
	DateModified  *time.Time
	Categories    []string
	Enclosures    []Enclosure
}

// NewArticle returns an article outside of any Feed, mostly useful for
// callers rebuilding articles from storage.
func NewArticle(feedURL string, parsed time.Time) Article {
	return Article{feedURL: feedURL, dateParsed: parsed}
}

func (a *Article) FeedURL() string {
	return a.feedURL
}

func (a *Article) DateParsed() time.Time {
	return a.dateParsed
}

// ArticleID is empty until Seal has run.
func (a *Article) ArticleID() string {
	return a.id
}

func (a *Article) Sealed() bool {
	return a.id != ""
}

// Seal computes the article ID from the fields gathered so far. Later
// calls keep the first ID.
func (a *Article) Seal() {
	if a.id != "" {
		return
	}
	a.id = generateArticleID(a)
}

// generateArticleID hashes the GUID when there is one, otherwise link, title
// and publish time, always scoped by the feed URL.
func generateArticleID(a *Article) string {
	var b strings.Builder
	if a.GUID != "" {
		b.WriteString("guid|")
		b.WriteString(a.GUID)
	} else {
		b.WriteString("item|")
		b.WriteString(a.Link)
		b.WriteByte('|')
		b.WriteString(a.Title)
		b.WriteByte('|')
		if a.DatePublished != nil {
			b.WriteString(strconv.FormatInt(a.DatePublished.Unix(), 10))
		}
		if a.Link == "" && a.Title == "" && a.DatePublished == nil {
			b.WriteByte('|')
			b.WriteString(a.Body)
		}
	}
	b.WriteByte('|')
	b.WriteString(a.feedURL)

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

type articleJSON struct {
	ID            string      `json:"article_id" yaml:"article_id"`
	FeedURL       string      `json:"feed_url" yaml:"feed_url"`
	DateParsed    time.Time   `json:"date_parsed" yaml:"date_parsed"`
	GUID          string      `json:"guid,omitempty" yaml:"guid,omitempty"`
	Title         string      `json:"title,omitempty" yaml:"title,omitempty"`
	Abstract      string      `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Body          string      `json:"body,omitempty" yaml:"body,omitempty"`
	Link          string      `json:"link,omitempty" yaml:"link,omitempty"`
	Permalink     string      `json:"permalink,omitempty" yaml:"permalink,omitempty"`
	Author        string      `json:"author,omitempty" yaml:"author,omitempty"`
	DatePublished *time.Time  `json:"date_published,omitempty" yaml:"date_published,omitempty"`
	DateModified  *time.Time  `json:"date_modified,omitempty" yaml:"date_modified,omitempty"`
	Categories    []string    `json:"categories,omitempty" yaml:"categories,omitempty"`
	Enclosures    []Enclosure `json:"enclosures,omitempty" yaml:"enclosures,omitempty"`
}

func (a Article) view() articleJSON {
	return articleJSON{
		ID:            a.id,
		FeedURL:       a.feedURL,
		DateParsed:    a.dateParsed,
		GUID:          a.GUID,
		Title:         a.Title,
		Abstract:      a.Abstract,
		Body:          a.Body,
		Link:          a.Link,
		Permalink:     a.Permalink,
		Author:        a.Author,
		DatePublished: a.DatePublished,
		DateModified:  a.DateModified,
		Categories:    a.Categories,
		Enclosures:    a.Enclosures,
	}
}

func (a Article) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.view())
}

func (a Article) MarshalYAML() (interface{}, error) {
	return a.view(), nil
}
