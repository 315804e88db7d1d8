package sax

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errStopped = errors.New("stopped")

type Option func(*Parser)

// WithEncoding passes the encoding found during detection. UTF-16 input is
// transcoded to UTF-8 before tokenizing; other labels are used as a hint
// when the document does not declare its own.
func WithEncoding(label string) Option {
	return func(p *Parser) {
		p.encoding = strings.ToLower(strings.TrimSpace(label))
	}
}

type element struct {
	local  string
	prefix string
	uri    string
}

// Parser turns a byte buffer into Delegate callbacks. A Parser may be used
// for several documents in sequence but never for two at once.
type Parser struct {
	delegate Delegate
	mode     Mode
	encoding string
	names    NameInterner
	values   ValueInterner

	running  atomic.Bool
	canceled atomic.Bool
	stopped  atomic.Bool

	depth     int
	open      []element
	scopes    []map[string]string
	lastStart string

	storing    bool
	storeDepth int
	storeName  string
	chars      []byte
}

func NewParser(d Delegate, mode Mode, opts ...Option) *Parser {
	p := &Parser{
		delegate: d,
		mode:     mode,
	}
	if n, ok := d.(NameInterner); ok {
		p.names = n
	}
	if v, ok := d.(ValueInterner); ok {
		p.values = v
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) Mode() Mode {
	return p.mode
}

// Depth is the nesting level of the element currently being delivered.
func (p *Parser) Depth() int {
	return p.depth
}

// Cancel stops event delivery. Parse returns ErrCanceled. A canceled
// parser stays canceled, including a Parse that has not started yet.
func (p *Parser) Cancel() {
	p.canceled.Store(true)
}

// Stop stops event delivery. Parse returns nil.
func (p *Parser) Stop() {
	p.stopped.Store(true)
}

// BeginStoringCharacters starts accumulating character data. Call it from a
// StartElement callback; the buffer lives until that element ends.
func (p *Parser) BeginStoringCharacters() {
	p.storing = true
	p.storeDepth = p.depth
	p.storeName = p.lastStart
	p.chars = p.chars[:0]
}

func (p *Parser) CurrentCharacters() []byte {
	if !p.storing {
		return nil
	}
	return p.chars
}

func (p *Parser) CurrentString() string {
	if !p.storing {
		return ""
	}
	return string(p.chars)
}

func (p *Parser) CurrentStringTrimmed() string {
	if !p.storing {
		return ""
	}
	return string(bytes.TrimSpace(p.chars))
}

// Parse delivers the events of data to the delegate.
func (p *Parser) Parse(ctx context.Context, data []byte) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrReentrant
	}
	defer p.running.Store(false)

	p.reset()

	var err error
	switch p.mode {
	case ModeHTML:
		err = p.parseHTML(ctx, data)
	default:
		err = p.parseXML(ctx, data)
	}
	if errors.Is(err, errStopped) {
		return nil
	}
	return err
}

func (p *Parser) reset() {
	p.stopped.Store(false)
	p.depth = 0
	p.open = p.open[:0]
	p.scopes = p.scopes[:0]
	p.storing = false
	p.chars = p.chars[:0]
}

func (p *Parser) halted(ctx context.Context) error {
	if p.canceled.Load() {
		return ErrCanceled
	}
	if err := ctx.Err(); err != nil {
		p.canceled.Store(true)
		return fmt.Errorf("parse canceled: %w", err)
	}
	if p.stopped.Load() {
		return errStopped
	}
	return nil
}

func (p *Parser) parseXML(ctx context.Context, data []byte) error {
	var r io.Reader = bytes.NewReader(data)
	transcoded := false
	if order, ok := utf16Order(p.encoding); ok {
		r = transform.NewReader(r, unicode.UTF16(order, unicode.UseBOM).NewDecoder())
		transcoded = true
	}

	cr := func(label string, input io.Reader) (io.Reader, error) {
		if transcoded {
			return input, nil
		}
		return charset.NewReaderLabel(label, input)
	}
	xp := xpp.NewXMLPullParser(r, false, cr)

	for {
		if err := p.halted(ctx); err != nil {
			return err
		}
		event, err := xp.Next()
		if err != nil {
			return xmlSyntaxError(err)
		}
		switch event {
		case xpp.StartTag:
			p.startXML(xp)
		case xpp.EndTag:
			p.endXML()
		case xpp.Text:
			p.characters([]byte(xp.Text))
		case xpp.EndDocument:
			p.delegate.EndDocument(p)
			return nil
		}
	}
}

func utf16Order(label string) (unicode.Endianness, bool) {
	switch label {
	case "utf-16", "utf-16le":
		return unicode.LittleEndian, true
	case "utf-16be":
		return unicode.BigEndian, true
	}
	return unicode.LittleEndian, false
}

func xmlSyntaxError(err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Line: se.Line, Msg: se.Msg}
	}
	return &SyntaxError{Msg: err.Error()}
}

func (p *Parser) startXML(xp *xpp.XMLPullParser) {
	p.depth++

	scope := p.scope()
	var declared []Namespace
	for _, a := range xp.Attrs {
		switch {
		case a.Name.Space == "xmlns":
			declared = append(declared, Namespace{Prefix: a.Name.Local, URI: strings.TrimSpace(a.Value)})
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			declared = append(declared, Namespace{URI: strings.TrimSpace(a.Value)})
		}
	}
	if len(declared) > 0 {
		next := make(map[string]string, len(scope)+len(declared))
		for k, v := range scope {
			next[k] = v
		}
		for _, ns := range declared {
			next[ns.URI] = ns.Prefix
		}
		scope = next
	}
	p.scopes = append(p.scopes, scope)

	prefix, uri := resolveName(scope, xp.Space)
	e := StartElement{
		Local:      p.internName(xp.Name, prefix),
		Prefix:     prefix,
		URI:        uri,
		Namespaces: declared,
	}
	for _, a := range xp.Attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		aprefix, auri := resolveName(scope, a.Name.Space)
		e.Attrs = append(e.Attrs, Attr{
			Local:  p.internName(a.Name.Local, aprefix),
			Prefix: aprefix,
			URI:    auri,
			Value:  p.internValue(a.Value),
		})
	}

	p.open = append(p.open, element{local: e.Local, prefix: prefix, uri: uri})
	p.lastStart = e.Local
	p.delegate.StartElement(p, &e)
}

// resolveName splits the Space reported by the tokenizer into a prefix and
// namespace URI. Undeclared prefixes come through as the bare prefix.
func resolveName(scope map[string]string, space string) (string, string) {
	if space == "" {
		return "", ""
	}
	if prefix, ok := scope[space]; ok {
		return prefix, space
	}
	if space == xmlNamespace {
		return "xml", space
	}
	if !strings.ContainsAny(space, ":/") {
		return space, ""
	}
	return "", space
}

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

func (p *Parser) scope() map[string]string {
	if len(p.scopes) == 0 {
		return nil
	}
	return p.scopes[len(p.scopes)-1]
}

func (p *Parser) endXML() {
	if len(p.open) == 0 {
		return
	}
	top := p.open[len(p.open)-1]
	e := EndElement{Local: top.local, Prefix: top.prefix, URI: top.uri}
	p.delegate.EndElement(p, &e)
	if p.storing && p.depth == p.storeDepth {
		p.endStoring()
	}
	p.open = p.open[:len(p.open)-1]
	p.scopes = p.scopes[:len(p.scopes)-1]
	p.depth--
}

func (p *Parser) parseHTML(ctx context.Context, data []byte) error {
	contentType := ""
	if p.encoding != "" {
		contentType = "text/html; charset=" + p.encoding
	}
	r, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		r = bytes.NewReader(data)
	}
	z := html.NewTokenizer(r)

	for {
		if err := p.halted(ctx); err != nil {
			return err
		}
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				p.delegate.EndDocument(p)
				return nil
			}
			return &SyntaxError{Msg: z.Err().Error()}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			e := StartElement{Local: p.internName(string(name), "")}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				e.Attrs = append(e.Attrs, Attr{
					Local: p.internName(string(key), ""),
					Value: p.internValue(string(val)),
				})
			}
			p.depth++
			p.lastStart = e.Local
			p.delegate.StartElement(p, &e)
			if tt == html.SelfClosingTagToken || voidElements[e.Local] {
				if err := p.halted(ctx); err != nil {
					return err
				}
				p.endHTML(e.Local)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if voidElements[string(name)] {
				continue
			}
			p.endHTML(p.internName(string(name), ""))
		case html.TextToken:
			p.characters(z.Text())
		}
	}
}

// voidElements never have content or an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

func (p *Parser) endHTML(name string) {
	e := EndElement{Local: name}
	p.delegate.EndElement(p, &e)
	if p.storing && name == p.storeName {
		p.endStoring()
	}
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Parser) characters(text []byte) {
	if len(text) == 0 {
		return
	}
	if p.storing {
		p.chars = append(p.chars, text...)
	}
	p.delegate.Characters(p, text)
}

func (p *Parser) endStoring() {
	p.storing = false
	p.chars = p.chars[:0]
}

func (p *Parser) internName(local, prefix string) string {
	if p.names == nil {
		return local
	}
	if s := p.names.InternName(local, prefix); s != "" {
		return s
	}
	return local
}

func (p *Parser) internValue(value string) string {
	if p.values == nil {
		return value
	}
	return p.values.InternValue(value)
}

type rootFinder struct {
	BaseDelegate
	root *StartElement
}

func (f *rootFinder) StartElement(p *Parser, e *StartElement) {
	f.root = e.Copy()
	p.Stop()
}

// RootElement returns the first start element of data without tokenizing
// the rest of the document.
func RootElement(ctx context.Context, data []byte, mode Mode, encoding string) (*StartElement, error) {
	f := &rootFinder{}
	p := NewParser(f, mode, WithEncoding(encoding))
	if err := p.Parse(ctx, data); err != nil {
		return nil, err
	}
	if f.root == nil {
		return nil, ErrNoRoot
	}
	return f.root, nil
}
