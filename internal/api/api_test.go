package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rsxml/internal/dispatch"
	"github.com/lysyi3m/rsxml/internal/rsxml"
	"github.com/lysyi3m/rsxml/internal/store"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Test Feed</title><link>https://example.com/</link>
<item><title>One</title><link>https://example.com/1</link><guid>https://example.com/1</guid><pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate></item>
<item><title>Two</title><link>https://example.com/2</link><guid>https://example.com/2</guid><pubDate>Tue, 04 Jul 2023 10:00:00 GMT</pubDate></item>
</channel></rss>`

const opmlDoc = `<opml version="2.0"><head><title>Subs</title></head><body><outline text="A" xmlUrl="https://a.test/rss"/></body></opml>`

type testServer struct {
	engine *gin.Engine
	pool   *dispatch.Pool
}

func newTestServer(t *testing.T, withStore bool, apiKey string, opts Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool := dispatch.NewPool(2, 8)
	pool.Start()
	t.Cleanup(pool.Stop)

	var repo store.Repository
	if withStore {
		db, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		repo = store.New(db)
	}

	return &testServer{engine: NewServer(NewHandler(pool, repo, opts), apiKey), pool: pool}
}

func (s *testServer) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestParseFeed(t *testing.T) {
	s := newTestServer(t, false, "", Options{})

	w := s.do(http.MethodPost, "/parse?url=https://example.com/feed.xml", rssDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode(t, w)
	assert.Equal(t, "feed", out["kind"])
	assert.Equal(t, "rss", out["parser"])
	assert.Equal(t, "utf-8", out["encoding"])

	doc := out["document"].(map[string]interface{})
	assert.Equal(t, "Test Feed", doc["title"])
	articles := doc["articles"].([]interface{})
	require.Len(t, articles, 2)
	assert.NotEmpty(t, articles[0].(map[string]interface{})["article_id"])
}

func TestParseOPMLAndExpect(t *testing.T) {
	s := newTestServer(t, false, "", Options{})

	w := s.do(http.MethodPost, "/parse?expect=opml", opmlDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "opml", decode(t, w)["kind"])

	w = s.do(http.MethodPost, "/parse?expect=feed", opmlDoc)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(rsxml.CodeExpectingFeed), out["code"])
	assert.Equal(t, "rsxml", out["domain"])

	w = s.do(http.MethodPost, "/parse?expect=pdf", opmlDoc)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseLinks(t *testing.T) {
	s := newTestServer(t, false, "", Options{})

	w := s.do(http.MethodPost, "/parse?expect=links&url=https://site.test/", `<p><a href="/x" title="tip">X</a></p>`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc := decode(t, w)["document"].(map[string]interface{})
	anchors := doc["anchors"].([]interface{})
	require.Len(t, anchors, 1)
	assert.Equal(t, "https://site.test/x", anchors[0].(map[string]interface{})["link"])
}

func TestParseAsRSS(t *testing.T) {
	s := newTestServer(t, false, "", Options{})

	w := s.do(http.MethodPost, "/parse?format=rss", rssDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "2", w.Header().Get("X-Feed-Items"))
	assert.Contains(t, w.Body.String(), "<title>Test Feed</title>")
}

func TestParseErrors(t *testing.T) {
	s := newTestServer(t, false, "", Options{MaxBodyBytes: 1024})

	tests := []struct {
		name   string
		body   string
		status int
		code   rsxml.Code
	}{
		{"too short", "<a/>", http.StatusUnprocessableEntity, rsxml.CodeNoData},
		{"no caret", "just some plain text here", http.StatusUnprocessableEntity, rsxml.CodeMissingLeftCaret},
		{"unknown", "<unknown>document</unknown>", http.StatusUnprocessableEntity, rsxml.CodeNoSuitableParser},
		{"broken", `<rss version="2.0"><channel><title>x</title></channel></rss`, http.StatusUnprocessableEntity, rsxml.CodeSyntax},
		{"too large", "<rss>" + strings.Repeat("x", 2048) + "</rss>", http.StatusRequestEntityTooLarge, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/parse", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != 0 {
				assert.Equal(t, float64(tt.code), decode(t, w)["code"])
			}
		})
	}
}

func TestDetect(t *testing.T) {
	s := newTestServer(t, false, "", Options{})

	w := s.do(http.MethodPost, "/detect", rssDoc)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "rss", out["parser"])
	assert.Equal(t, "feed", out["kind"])

	w = s.do(http.MethodPost, "/detect", "nothing to see")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestProviderMarkersOption(t *testing.T) {
	s := newTestServer(t, false, "", Options{
		ParseOptions: []rsxml.Option{rsxml.WithProviderMarkers("<quota-exceeded/>")},
	})

	w := s.do(http.MethodPost, "/detect", `<rss><quota-exceeded/></rss>`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, float64(rsxml.CodeContainsProviderErrorTag), decode(t, w)["code"])
}

func TestFeedsWithoutStore(t *testing.T) {
	s := newTestServer(t, false, "", Options{})

	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodPost, "/feeds/ingest?url=x", rssDoc).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodGet, "/feeds/articles?url=x", "").Code)
}

func TestIngestAndList(t *testing.T) {
	s := newTestServer(t, true, "", Options{})
	url := "https://example.com/feed.xml"

	w := s.do(http.MethodPost, "/feeds/ingest?url="+url, rssDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode(t, w)["new"])

	w = s.do(http.MethodPost, "/feeds/ingest?url="+url, rssDoc)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["new"])

	w = s.do(http.MethodGet, "/feeds/articles?url="+url+"&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "Test Feed", out["title"])
	articles := out["articles"].([]interface{})
	require.Len(t, articles, 1)
	assert.Equal(t, "Two", articles[0].(map[string]interface{})["title"])

	w = s.do(http.MethodGet, "/feeds/articles?url="+url+"&format=rss", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>One</title>")

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/feeds/articles?url=https://nowhere.test/", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/feeds/articles?url="+url+"&limit=zero", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, "/feeds/ingest?url="+url, opmlDoc).Code)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, true, "secret", Options{})
	url := "https://example.com/feed.xml"

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/feeds/ingest?url="+url, rssDoc).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/feeds/ingest?url="+url, rssDoc, "X-API-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/feeds/ingest?url="+url, rssDoc, "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/feeds/articles?url="+url, "", "Authorization", "Bearer secret").Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/parse", rssDoc).Code)
}

func TestHealthAndStats(t *testing.T) {
	s := newTestServer(t, true, "", Options{})

	s.do(http.MethodPost, "/parse", rssDoc)
	s.do(http.MethodPost, "/parse", "<unknown>document</unknown>")

	w := s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["store"])

	w = s.do(http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	parses := out["parses"].(map[string]interface{})
	assert.Equal(t, float64(1), parses["ok"])
	assert.Equal(t, float64(1), parses["rejected"])
	pool := out["pool"].(map[string]interface{})
	assert.Equal(t, float64(2), pool["workers"])
}

func TestParseTimeout(t *testing.T) {
	s := newTestServer(t, false, "", Options{ParseTimeout: time.Nanosecond})

	w := s.do(http.MethodPost, "/parse", rssDoc)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, false, "", Options{})

	w := s.do(http.MethodOptions, "/parse", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
