package rsxml

import (
	"bytes"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// MinimumDataLength is the shortest buffer worth looking at.
const MinimumDataLength = 10

// DefaultProviderMarkers identify error documents some feed hosts send
// with a success status.
var DefaultProviderMarkers = []string{
	`<errors xmlns='http://schemas.google.com/g/2005'>`,
	`<errors xmlns="http://schemas.google.com/g/2005">`,
}

type Option func(*options)

type options struct {
	parsers   []*Descriptor
	minLength int
	markers   []string
}

// WithParsers sets the candidate parsers, in priority order.
func WithParsers(parsers ...*Descriptor) Option {
	return func(o *options) {
		o.parsers = parsers
	}
}

func WithMinimumLength(n int) Option {
	return func(o *options) {
		o.minLength = n
	}
}

// WithProviderMarkers adds markers to the default list.
func WithProviderMarkers(markers ...string) Option {
	return func(o *options) {
		for _, m := range markers {
			if m != "" {
				o.markers = append(o.markers, m)
			}
		}
	}
}

// Data is a raw document plus everything learned about it up front: its
// text encoding, the parser that should read it, or the reason none can.
// A Data never changes after NewData returns.
type Data struct {
	url        string
	bytes      []byte
	encoding   string
	descriptor *Descriptor
	err        *Error
}

func NewData(b []byte, url string, opts ...Option) *Data {
	o := options{
		minLength: MinimumDataLength,
		markers:   append([]string(nil), DefaultProviderMarkers...),
	}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Data{url: url, bytes: b}
	d.detect(o)
	if d.err != nil {
		slog.Debug("Document rejected", "url", url, "code", int(d.err.Code), "reason", d.err.Code.String())
	} else {
		slog.Debug("Parser selected", "url", url, "parser", d.descriptor.Name, "encoding", d.encoding)
	}
	return d
}

func (d *Data) URL() string {
	return d.url
}

func (d *Data) Bytes() []byte {
	return d.bytes
}

// Encoding is "utf-8", "utf-16le", "utf-16be" or the WHATWG name of the
// encoding the document declared.
func (d *Data) Encoding() string {
	return d.encoding
}

func (d *Data) Descriptor() *Descriptor {
	return d.descriptor
}

func (d *Data) ParserName() string {
	if d.descriptor == nil {
		return ""
	}
	return d.descriptor.Name
}

// Err returns the detection error, or nil when a parser was selected.
func (d *Data) Err() error {
	if d.err == nil {
		return nil
	}
	return d.err
}

func (d *Data) CanParse() bool {
	return d.err == nil
}

func (d *Data) detect(o options) {
	if len(d.bytes) < o.minLength {
		d.err = newError(CodeNoData, d.url)
		return
	}
	if bytes.IndexByte(d.bytes, '<') < 0 {
		d.err = newError(CodeMissingLeftCaret, d.url)
		return
	}
	for _, marker := range o.markers {
		if bytes.Contains(d.bytes, []byte(marker)) {
			d.err = newError(CodeContainsProviderErrorTag, d.url)
			return
		}
	}

	text, encoding, ok := decodeText(d.bytes)
	if !ok {
		d.err = newError(CodeInputEncoding, d.url)
		return
	}
	d.encoding = encoding

	d.descriptor = selectParser(text, d, o.parsers)
	if d.descriptor == nil {
		d.err = newError(CodeNoSuitableParser, d.url)
	}
}

// selectParser returns the first candidate, in priority order, whose tags
// all occur in order and whose preflight passes. Candidates without tags
// are tried last.
func selectParser(text string, d *Data, parsers []*Descriptor) *Descriptor {
	var lowered string
	var deferred []*Descriptor

	for _, p := range parsers {
		tags := p.Capabilities.RequireOrderedTags
		if len(tags) == 0 {
			deferred = append(deferred, p)
			continue
		}
		haystack := text
		if p.Capabilities.IsHTMLParser {
			if lowered == "" {
				lowered = strings.ToLower(text)
			}
			haystack = lowered
		}
		if !containsOrdered(haystack, tags, p.Capabilities.IsHTMLParser) {
			continue
		}
		if p.Preflight != nil && !p.Preflight(d) {
			continue
		}
		return p
	}

	for _, p := range deferred {
		if p.Preflight == nil || p.Preflight(d) {
			return p
		}
	}
	return nil
}

func containsOrdered(text string, tags []string, fold bool) bool {
	pos := 0
	for _, tag := range tags {
		if fold {
			tag = strings.ToLower(tag)
		}
		i := strings.Index(text[pos:], tag)
		if i < 0 {
			return false
		}
		pos += i + len(tag)
	}
	return true
}

func decodeText(b []byte) (string, string, bool) {
	if utf8.Valid(b) {
		return string(b), "utf-8", true
	}
	if s, name, ok := decodeDeclared(b); ok {
		return s, name, true
	}
	return decodeUTF16(b)
}

// decodeDeclared honours an encoding named in the XML declaration or an
// HTML meta charset near the start of the document.
func decodeDeclared(b []byte) (string, string, bool) {
	label := declaredEncoding(b)
	if label == "" {
		return "", "", false
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", "", false
	}
	name, _ := htmlindex.Name(enc)
	if name == "utf-8" || strings.HasPrefix(name, "utf-16") {
		return "", "", false
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", "", false
	}
	return string(out), name, true
}

const prologWindow = 1024

func declaredEncoding(b []byte) string {
	head := b
	if len(head) > prologWindow {
		head = head[:prologWindow]
	}
	lower := bytes.ToLower(head)

	if bytes.HasPrefix(bytes.TrimLeft(lower, " \t\r\n"), []byte("<?xml")) {
		end := bytes.Index(lower, []byte("?>"))
		if end > 0 {
			if v := attrValue(lower[:end], "encoding"); v != "" {
				return v
			}
		}
	}
	return attrValue(lower, "charset")
}

func attrValue(b []byte, name string) string {
	i := bytes.Index(b, []byte(name))
	if i < 0 {
		return ""
	}
	rest := bytes.TrimLeft(b[i+len(name):], " \t")
	if len(rest) == 0 || rest[0] != '=' {
		return ""
	}
	rest = bytes.TrimLeft(rest[1:], " \t")
	if len(rest) > 0 && (rest[0] == '"' || rest[0] == '\'') {
		rest = rest[1:]
	}
	end := bytes.IndexAny(rest, "\"' ;>/\t\r\n")
	if end < 0 {
		return ""
	}
	return string(rest[:end])
}

func decodeUTF16(b []byte) (string, string, bool) {
	if len(b)%2 != 0 {
		return "", "", false
	}
	order, name := unicode.LittleEndian, "utf-16le"
	switch {
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		order, name = unicode.BigEndian, "utf-16be"
	case bytes.HasPrefix(b, []byte{0xFF, 0xFE}):
	case b[0] == 0 && b[1] != 0:
		order, name = unicode.BigEndian, "utf-16be"
	}
	if !validUTF16(b, order == unicode.BigEndian) {
		return "", "", false
	}
	out, err := unicode.UTF16(order, unicode.UseBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", "", false
	}
	return string(out), name, true
}

// validUTF16 reports whether every surrogate in b is properly paired.
func validUTF16(b []byte, bigEndian bool) bool {
	unit := func(i int) uint16 {
		if bigEndian {
			return uint16(b[i])<<8 | uint16(b[i+1])
		}
		return uint16(b[i+1])<<8 | uint16(b[i])
	}
	for i := 0; i < len(b); i += 2 {
		u := unit(i)
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if i+2 >= len(b) {
				return false
			}
			next := unit(i + 2)
			if next < 0xDC00 || next > 0xDFFF {
				return false
			}
			i += 2
		case u >= 0xDC00 && u <= 0xDFFF:
			return false
		}
	}
	return true
}
