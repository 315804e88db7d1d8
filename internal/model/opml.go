package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well-known OPML attribute keys.
const (
	OPMLTextKey        = "text"
	OPMLTitleKey       = "title"
	OPMLDescriptionKey = "description"
	OPMLTypeKey        = "type"
	OPMLVersionKey     = "version"
	OPMLHTMLURLKey     = "htmlUrl"
	OPMLXMLURLKey      = "xmlUrl"
)

type Attribute struct {
	Key   string
	Value string
}

// Attributes keeps insertion order. Lookups ignore ASCII case.
type Attributes []Attribute

func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if strings.EqualFold(attr.Key, key) {
			return attr.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing key, keeping the key's original
// spelling, or appends a new one.
func (a *Attributes) Set(key, value string) {
	for i, attr := range *a {
		if strings.EqualFold(attr.Key, key) {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attribute{Key: key, Value: value})
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(attr.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(attr.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a Attributes) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, attr := range a {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: attr.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: attr.Value},
		)
	}
	return node, nil
}

// OPMLItem is one node of a subscription list. The document itself is the
// root item; its attributes come from the OPML head.
type OPMLItem struct {
	Attributes Attributes  `json:"attributes" yaml:"attributes"`
	Children   []*OPMLItem `json:"children,omitempty" yaml:"children,omitempty"`
}

func NewOPMLItem() *OPMLItem {
	return &OPMLItem{}
}

func (i *OPMLItem) AddChild(child *OPMLItem) {
	i.Children = append(i.Children, child)
}

func (i *OPMLItem) Attribute(key string) (string, bool) {
	return i.Attributes.Get(key)
}

func (i *OPMLItem) SetAttribute(key, value string) {
	i.Attributes.Set(key, value)
}

func (i *OPMLItem) IsFolder() bool {
	return len(i.Children) > 0
}

func (i *OPMLItem) Title() string {
	v, _ := i.Attributes.Get(OPMLTitleKey)
	return v
}

func (i *OPMLItem) Text() string {
	v, _ := i.Attributes.Get(OPMLTextKey)
	return v
}

func (i *OPMLItem) XMLURL() string {
	v, _ := i.Attributes.Get(OPMLXMLURLKey)
	return v
}

func (i *OPMLItem) HTMLURL() string {
	v, _ := i.Attributes.Get(OPMLHTMLURLKey)
	return v
}

// DisplayName prefers the title attribute and falls back to text.
func (i *OPMLItem) DisplayName() string {
	if t := i.Title(); t != "" {
		return t
	}
	return i.Text()
}

// Feeds returns every item with an xmlUrl, depth first.
func (i *OPMLItem) Feeds() []*OPMLItem {
	var out []*OPMLItem
	for _, c := range i.Children {
		if c.XMLURL() != "" {
			out = append(out, c)
		}
		out = append(out, c.Feeds()...)
	}
	return out
}

// String renders the tree one item per line, indented by depth.
func (i *OPMLItem) String() string {
	var b strings.Builder
	i.describe(&b, 0)
	return b.String()
}

func (i *OPMLItem) describe(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	name := i.DisplayName()
	if name == "" {
		name = "(untitled)"
	}
	b.WriteString(name)
	if u := i.XMLURL(); u != "" {
		fmt.Fprintf(b, " <%s>", u)
	}
	b.WriteByte('\n')
	for _, c := range i.Children {
		c.describe(b, depth+1)
	}
}
