package model

import (
	"strconv"
	"strings"
)

type FeedKind int

const (
	FeedKindNone FeedKind = iota
	FeedKindRSS
	FeedKindAtom
)

func (k FeedKind) String() string {
	switch k {
	case FeedKindRSS:
		return "rss"
	case FeedKindAtom:
		return "atom"
	default:
		return "none"
	}
}

func (k FeedKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// FeedKindForType maps a link's MIME type to a feed kind.
func FeedKindForType(mimeType string) FeedKind {
	t := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch t {
	case "application/rss+xml", "application/rdf+xml", "application/x-rss+xml":
		return FeedKindRSS
	case "application/atom+xml":
		return FeedKindAtom
	}
	return FeedKindNone
}

type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// ParseSize reads the first "{w}x{h}" token of a sizes attribute. Anything
// else yields the zero Size.
func ParseSize(sizes string) Size {
	fields := strings.Fields(sizes)
	if len(fields) == 0 {
		return Size{}
	}
	w, h, ok := strings.Cut(strings.ToLower(fields[0]), "x")
	if !ok {
		return Size{}
	}
	width, err := strconv.Atoi(w)
	if err != nil || width < 0 {
		return Size{}
	}
	height, err := strconv.Atoi(h)
	if err != nil || height < 0 {
		return Size{}
	}
	return Size{Width: width, Height: height}
}

type IconLink struct {
	Link  string `json:"link" yaml:"link"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Rel   string `json:"rel,omitempty" yaml:"rel,omitempty"`
	Sizes string `json:"sizes,omitempty" yaml:"sizes,omitempty"`
}

func (l IconLink) Size() Size {
	return ParseSize(l.Sizes)
}

type FeedLink struct {
	Link  string   `json:"link" yaml:"link"`
	Title string   `json:"title,omitempty" yaml:"title,omitempty"`
	Kind  FeedKind `json:"kind" yaml:"kind"`
}

type Anchor struct {
	Link    string `json:"link" yaml:"link"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Tooltip string `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
}

type HTMLMetadata struct {
	URL         string     `json:"url" yaml:"url"`
	FaviconLink string     `json:"favicon_link,omitempty" yaml:"favicon_link,omitempty"`
	IconLinks   []IconLink `json:"icon_links,omitempty" yaml:"icon_links,omitempty"`
	FeedLinks   []FeedLink `json:"feed_links,omitempty" yaml:"feed_links,omitempty"`
	Anchors     []Anchor   `json:"anchors,omitempty" yaml:"anchors,omitempty"`
}
