package feed

import (
	"bytes"
	"html"
	"strings"

	"github.com/lysyi3m/rsxml/internal/sax"
)

// xhtmlWriter re-serializes inline XHTML content from lexical events.
type xhtmlWriter struct {
	depth   int
	buf     bytes.Buffer
	pending bool
}

func (w *xhtmlWriter) start(e *sax.StartElement) {
	w.flush()
	w.buf.WriteByte('<')
	w.buf.WriteString(qualifiedName(e.Prefix, e.Local))
	for _, a := range e.Attrs {
		w.buf.WriteByte(' ')
		w.buf.WriteString(qualifiedName(a.Prefix, a.Local))
		w.buf.WriteString(`="`)
		w.buf.WriteString(html.EscapeString(a.Value))
		w.buf.WriteByte('"')
	}
	w.pending = true
}

func (w *xhtmlWriter) end(e *sax.EndElement) {
	if w.pending {
		w.buf.WriteString("/>")
		w.pending = false
		return
	}
	w.buf.WriteString("</")
	w.buf.WriteString(qualifiedName(e.Prefix, e.Local))
	w.buf.WriteByte('>')
}

func (w *xhtmlWriter) text(b []byte) {
	w.flush()
	w.buf.WriteString(html.EscapeString(string(b)))
}

func (w *xhtmlWriter) flush() {
	if w.pending {
		w.buf.WriteByte('>')
		w.pending = false
	}
}

func (w *xhtmlWriter) String() string {
	w.flush()
	return strings.TrimSpace(w.buf.String())
}

func qualifiedName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
