package opml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/lysyi3m/rsxml/internal/model"
)

// Export writes root as an OPML 2.0 document. Root attributes other than
// the version become <head> elements and every child becomes an <outline>.
// Attribute and child order is preserved.
func Export(w io.Writer, root *model.OPMLItem) error {
	if root == nil {
		return fmt.Errorf("failed to export OPML: nil root")
	}

	var buf bytes.Buffer

	version, _ := root.Attribute(model.OPMLVersionKey)
	if version == "" {
		version = "2.0"
	}

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "<opml version=\"%s\">\n", escapeAttr(version))

	buf.WriteString("  <head>\n")
	for _, attr := range root.Attributes {
		if strings.EqualFold(attr.Key, model.OPMLVersionKey) {
			continue
		}
		fmt.Fprintf(&buf, "    <%s>", attr.Key)
		xml.EscapeText(&buf, []byte(attr.Value))
		fmt.Fprintf(&buf, "</%s>\n", attr.Key)
	}
	buf.WriteString("  </head>\n")

	buf.WriteString("  <body>\n")
	for _, child := range root.Children {
		writeOutline(&buf, child, 4)
	}
	buf.WriteString("  </body>\n</opml>\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write OPML: %w", err)
	}
	return nil
}

func writeOutline(buf *bytes.Buffer, item *model.OPMLItem, indent int) {
	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<outline")
	for _, attr := range item.Attributes {
		fmt.Fprintf(buf, " %s=\"%s\"", attr.Key, escapeAttr(attr.Value))
	}

	if len(item.Children) == 0 {
		buf.WriteString("/>\n")
		return
	}

	buf.WriteString(">\n")
	for _, child := range item.Children {
		writeOutline(buf, child, indent+2)
	}
	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("</outline>\n")
}

func escapeAttr(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
