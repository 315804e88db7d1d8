package sax

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	BaseDelegate
	events   []string
	texts    map[string]string
	store    map[string]bool
	onStart  func(p *Parser, e *StartElement)
	finished bool
}

func newRecorder(store ...string) *recorder {
	r := &recorder{texts: map[string]string{}, store: map[string]bool{}}
	for _, s := range store {
		r.store[s] = true
	}
	return r
}

func (r *recorder) StartElement(p *Parser, e *StartElement) {
	name := e.Local
	if e.Prefix != "" {
		name = e.Prefix + ":" + e.Local
	}
	r.events = append(r.events, "start:"+name)
	if r.store[e.Local] {
		p.BeginStoringCharacters()
	}
	if r.onStart != nil {
		r.onStart(p, e)
	}
}

func (r *recorder) EndElement(p *Parser, e *EndElement) {
	r.events = append(r.events, "end:"+e.Local)
	if r.store[e.Local] {
		r.texts[e.Local] = p.CurrentStringTrimmed()
	}
}

func (r *recorder) EndDocument(*Parser) {
	r.finished = true
}

func TestParseXMLEvents(t *testing.T) {
	doc := `<?xml version="1.0"?>
<rss xmlns:dc="http://purl.org/dc/elements/1.1/"><channel><title> Hello </title><dc:creator>Ann</dc:creator></channel></rss>`

	r := newRecorder("title", "creator")
	p := NewParser(r, ModeXML)
	require.NoError(t, p.Parse(context.Background(), []byte(doc)))

	assert.Equal(t, []string{
		"start:rss", "start:channel", "start:title", "end:title",
		"start:dc:creator", "end:creator", "end:channel", "end:rss",
	}, r.events)
	assert.Equal(t, "Hello", r.texts["title"])
	assert.Equal(t, "Ann", r.texts["creator"])
	assert.True(t, r.finished)
}

func TestParseXMLNamespaces(t *testing.T) {
	doc := `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:media="http://search.yahoo.com/mrss/"><media:group/><dc:date>x</dc:date></feed>`

	var starts []*StartElement
	r := newRecorder()
	r.onStart = func(_ *Parser, e *StartElement) { starts = append(starts, e.Copy()) }
	require.NoError(t, NewParser(r, ModeXML).Parse(context.Background(), []byte(doc)))

	require.Len(t, starts, 3)
	assert.Equal(t, "http://www.w3.org/2005/Atom", starts[0].URI)
	assert.Equal(t, "", starts[0].Prefix)
	assert.Len(t, starts[0].Namespaces, 2)
	assert.Empty(t, starts[0].Attrs)

	assert.Equal(t, "media", starts[1].Prefix)
	assert.Equal(t, "http://search.yahoo.com/mrss/", starts[1].URI)

	// undeclared prefix
	assert.Equal(t, "dc", starts[2].Prefix)
	assert.Equal(t, "", starts[2].URI)
}

func TestBufferScopedToElement(t *testing.T) {
	doc := `<root><a>one<b>two</b>three</a><c>four</c></root>`

	var inside string
	r := newRecorder("a")
	r.onStart = func(p *Parser, e *StartElement) {
		if e.Local == "c" {
			inside = p.CurrentString()
		}
	}
	require.NoError(t, NewParser(r, ModeXML).Parse(context.Background(), []byte(doc)))

	assert.Equal(t, "onetwothree", r.texts["a"])
	assert.Equal(t, "", inside)
}

func TestCancelInsideCallback(t *testing.T) {
	doc := `<root><a/><b/><c/></root>`

	r := newRecorder()
	r.onStart = func(p *Parser, e *StartElement) {
		if e.Local == "a" {
			p.Cancel()
		}
	}
	err := NewParser(r, ModeXML).Parse(context.Background(), []byte(doc))

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"start:root", "start:a"}, r.events)
	assert.False(t, r.finished)
}

func TestCancelBeforeParse(t *testing.T) {
	r := newRecorder()
	p := NewParser(r, ModeXML)
	p.Cancel()

	err := p.Parse(context.Background(), []byte(`<root><a/></root>`))
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Empty(t, r.events)

	err = p.Parse(context.Background(), []byte(`<root/>`))
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Empty(t, r.events)
}

func TestContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRecorder()
	err := NewParser(r, ModeXML).Parse(ctx, []byte(`<root/>`))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.events)
}

func TestStopReportsSuccess(t *testing.T) {
	r := newRecorder()
	r.onStart = func(p *Parser, e *StartElement) {
		if e.Local == "b" {
			p.Stop()
		}
	}
	err := NewParser(r, ModeXML).Parse(context.Background(), []byte(`<root><b/><c/></root>`))

	require.NoError(t, err)
	assert.Equal(t, []string{"start:root", "start:b"}, r.events)
}

func TestSyntaxError(t *testing.T) {
	r := newRecorder()
	err := NewParser(r, ModeXML).Parse(context.Background(), []byte("<root>\n<a>"))

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.False(t, r.finished)
}

func TestParseHTML(t *testing.T) {
	doc := `<!DOCTYPE html><HTML><Head><Title>Page &amp; Co</Title><link rel="icon" href="/f.ico"><meta charset="utf-8"></head><body><p>x</body></html>`

	r := newRecorder("title")
	require.NoError(t, NewParser(r, ModeHTML).Parse(context.Background(), []byte(doc)))

	assert.Equal(t, "Page & Co", r.texts["title"])
	assert.Contains(t, r.events, "start:link")
	assert.Contains(t, r.events, "end:link")
	assert.Contains(t, r.events, "start:head")
	assert.True(t, r.finished)
}

func TestParseUTF16(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-16"?><root><title>héllo</title></root>`
	var b strings.Builder
	b.WriteString("\xff\xfe")
	for _, r := range src {
		b.WriteByte(byte(r))
		b.WriteByte(byte(r >> 8))
	}

	r := newRecorder("title")
	p := NewParser(r, ModeXML, WithEncoding("utf-16le"))
	require.NoError(t, p.Parse(context.Background(), []byte(b.String())))
	assert.Equal(t, "héllo", r.texts["title"])
}

func TestRootElement(t *testing.T) {
	root, err := RootElement(context.Background(), []byte(`<?xml version="1.0"?><!-- c --><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"><channel/></rdf:RDF>`), ModeXML, "")
	require.NoError(t, err)
	assert.Equal(t, "RDF", root.Local)
	assert.Equal(t, "rdf", root.Prefix)

	_, err = RootElement(context.Background(), []byte(`just text`), ModeXML, "")
	assert.ErrorIs(t, err, ErrNoRoot)
}

type internDelegate struct {
	recorder
	pool *Pool
}

func (d *internDelegate) InternName(local, prefix string) string { return d.pool.InternName(local, prefix) }
func (d *internDelegate) InternValue(v string) string           { return d.pool.InternValue(v) }

func TestInterning(t *testing.T) {
	d := &internDelegate{recorder: *newRecorder(), pool: NewPool("outline")}
	doc := `<opml><outline type="rss"/><outline type="rss"/></opml>`
	require.NoError(t, NewParser(d, ModeXML).Parse(context.Background(), []byte(doc)))

	// opml, outline, type, rss
	assert.Equal(t, 4, d.pool.Len())
}
