package feed

// Canonical namespace identifiers. nsPlain covers RSS 0.9x/2.0 elements with
// no namespace as well as the RSS 1.0 namespace.
const (
	nsPlain   = "plain"
	nsAtom    = "atom"
	nsRDF     = "rdf"
	nsContent = "content"
	nsDC      = "dc"
	nsDCTerms = "dcterms"
	nsITunes  = "itunes"
)

var namespaceURIs = map[string]string{
	"http://www.w3.org/2005/Atom":                 nsAtom,
	"http://purl.org/atom/ns#":                    nsAtom,
	"http://purl.org/rss/1.0/":                    nsPlain,
	"http://backend.userland.com/rss2":            nsPlain,
	"http://backend.userland.com/rss":             nsPlain,
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#": nsRDF,
	"http://purl.org/rss/1.0/modules/content/":    nsContent,
	"http://purl.org/dc/elements/1.1/":            nsDC,
	"http://purl.org/dc/terms/":                   nsDCTerms,
	"http://www.itunes.com/dtds/podcast-1.0.dtd":  nsITunes,
}

// knownPrefixes lets undeclared but conventional prefixes through.
var knownPrefixes = map[string]string{
	"atom":    nsAtom,
	"rdf":     nsRDF,
	"content": nsContent,
	"dc":      nsDC,
	"dcterms": nsDCTerms,
	"itunes":  nsITunes,
}

// canonicalNamespace maps an element's namespace to one of the identifiers
// above. ok is false for namespaces the feed grammars do not read.
func canonicalNamespace(uri, prefix string) (string, bool) {
	if uri != "" {
		ns, ok := namespaceURIs[uri]
		return ns, ok
	}
	if prefix == "" {
		return nsPlain, true
	}
	ns, ok := knownPrefixes[prefix]
	return ns, ok
}

var elementNames = []string{
	"rss", "channel", "item", "title", "link", "description", "guid",
	"pubDate", "author", "category", "enclosure", "encoded", "creator",
	"date", "feed", "entry", "id", "summary", "content", "published",
	"updated", "name", "email", "uri", "href", "rel", "type", "length",
	"url", "alternate", "language", "lastBuildDate", "isPermaLink",
}
