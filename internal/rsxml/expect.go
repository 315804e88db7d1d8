package rsxml

import "github.com/lysyi3m/rsxml/internal/model"

// Expect fails when d was not detected as kind. Detection errors are
// returned as they are.
func Expect(d *Data, kind Kind) error {
	if err := d.Err(); err != nil {
		return err
	}
	if got := d.Descriptor().Kind(); got != kind {
		return expectationError(kind, d.URL(), got.String())
	}
	return nil
}

func ExpectFeed(doc model.Document) (*model.Feed, error) {
	if f, ok := doc.(*model.Feed); ok && f != nil {
		return f, nil
	}
	return nil, expectationError(KindFeed, "", model.Kind(doc))
}

func ExpectOPML(doc model.Document) (*model.OPMLItem, error) {
	if o, ok := doc.(*model.OPMLItem); ok && o != nil {
		return o, nil
	}
	return nil, expectationError(KindOPML, "", model.Kind(doc))
}

func ExpectHTML(doc model.Document) (*model.HTMLMetadata, error) {
	if h, ok := doc.(*model.HTMLMetadata); ok && h != nil {
		return h, nil
	}
	return nil, expectationError(KindHTML, "", model.Kind(doc))
}
