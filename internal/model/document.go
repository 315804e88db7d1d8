package model

// Document is the result of a parse: a *Feed, an *OPMLItem or an
// *HTMLMetadata.
type Document interface {
	documentKind() string
}

func (*Feed) documentKind() string         { return "feed" }
func (*OPMLItem) documentKind() string     { return "opml" }
func (*HTMLMetadata) documentKind() string { return "html" }

// Kind names the document variant: "feed", "opml" or "html".
func Kind(d Document) string {
	if d == nil {
		return ""
	}
	return d.documentKind()
}
