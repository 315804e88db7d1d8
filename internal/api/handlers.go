package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rsxml/internal/dispatch"
	"github.com/lysyi3m/rsxml/internal/feed"
	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/parser"
	"github.com/lysyi3m/rsxml/internal/rsxml"
	"github.com/lysyi3m/rsxml/internal/store"
)

const (
	defaultArticleLimit = 50
	maxArticleLimit     = 1000
)

type Handler struct {
	pool      PoolInterface
	repo      store.Repository
	generator GeneratorInterface
	opts      Options
	startedAt time.Time

	mu       sync.Mutex
	outcomes map[string]int64
}

// NewHandler builds the request handlers. repo may be nil, in which case the
// /feeds endpoints answer 503.
func NewHandler(pool PoolInterface, repo store.Repository, opts Options) *Handler {
	if opts.ParseTimeout <= 0 {
		opts.ParseTimeout = 30 * time.Second
	}
	return &Handler{
		pool:      pool,
		repo:      repo,
		generator: feed.NewGenerator(),
		opts:      opts,
		startedAt: time.Now(),
		outcomes:  make(map[string]int64),
	}
}

func (h *Handler) Parse(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}
	url := c.Query("url")
	expect := c.Query("expect")

	var data *rsxml.Data
	if expect == "links" {
		data = parser.LinksData(body, url, h.opts.ParseOptions...)
	} else {
		data = parser.NewData(body, url, h.opts.ParseOptions...)
	}

	if expect != "" && expect != "links" {
		kind, ok := rsxml.ParseKind(expect)
		if !ok {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "expect must be one of feed, opml, html, links"})
			return
		}
		if err := rsxml.Expect(data, kind); err != nil {
			h.record("rejected")
			writeError(c, err)
			return
		}
	}

	doc, err := h.run(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") == "rss" {
		f, err := rsxml.ExpectFeed(doc)
		if err != nil {
			writeError(c, err)
			return
		}
		h.writeRSS(c, f)
		return
	}

	c.JSON(http.StatusOK, parseResponse{
		Kind:     model.Kind(doc),
		Parser:   data.ParserName(),
		Encoding: data.Encoding(),
		Document: doc,
	})
}

func (h *Handler) Detect(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}

	data := parser.NewData(body, c.Query("url"), h.opts.ParseOptions...)
	if err := data.Err(); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, detectResponse{
		Parser:   data.ParserName(),
		Kind:     data.Descriptor().Kind().String(),
		Encoding: data.Encoding(),
	})
}

func (h *Handler) Ingest(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "Article store is not configured"})
		return
	}

	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing url parameter"})
		return
	}

	body, ok := h.readBody(c)
	if !ok {
		return
	}

	data := parser.NewData(body, url, h.opts.ParseOptions...)
	if err := rsxml.Expect(data, rsxml.KindFeed); err != nil {
		h.record("rejected")
		writeError(c, err)
		return
	}

	doc, err := h.run(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}
	f, err := rsxml.ExpectFeed(doc)
	if err != nil {
		writeError(c, err)
		return
	}

	inserted, err := h.repo.SaveFeed(c.Request.Context(), f)
	if err != nil {
		slog.Error("Database error", "operation", "save_feed", "url", url, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Database error"})
		return
	}

	slog.Info("Feed ingested", "url", url, "articles", len(f.Articles), "new", inserted)

	c.JSON(http.StatusOK, gin.H{
		"url":      url,
		"title":    f.Title,
		"articles": len(f.Articles),
		"new":      inserted,
	})
}

func (h *Handler) Articles(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "Article store is not configured"})
		return
	}

	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing url parameter"})
		return
	}

	limit := defaultArticleLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxArticleLimit)
	}

	f, err := h.repo.Feed(c.Request.Context(), url)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "url", url, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Database error"})
		return
	}
	if f == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Feed not found"})
		return
	}

	articles, err := h.repo.Articles(c.Request.Context(), url, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_articles", "url", url, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Database error"})
		return
	}
	f.Articles = articles

	if c.Query("format") == "rss" {
		h.writeRSS(c, f)
		return
	}

	c.JSON(http.StatusOK, f)
}

func (h *Handler) Health(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"store":     h.repo != nil,
	}

	if h.repo != nil {
		if stats, err := h.repo.Stats(c.Request.Context()); err == nil {
			health["feeds"] = stats.Feeds
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) Stats(c *gin.Context) {
	h.mu.Lock()
	outcomes := make(map[string]int64, len(h.outcomes))
	for k, v := range h.outcomes {
		outcomes[k] = v
	}
	h.mu.Unlock()

	stats := map[string]interface{}{
		"parses": outcomes,
		"pool":   h.pool.Stats(),
	}

	if h.repo != nil {
		if st, err := h.repo.Stats(c.Request.Context()); err == nil {
			stats["store"] = st
		}
	}

	c.JSON(http.StatusOK, stats)
}

// run parses data on the pool, bounded by ctx and the parse timeout.
func (h *Handler) run(ctx context.Context, data *rsxml.Data) (model.Document, error) {
	p, err := rsxml.Open(data)
	if err != nil {
		h.record("rejected")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.ParseTimeout)
	defer cancel()

	task := p.ParseAsyncOn(ctx, h.pool, nil)
	doc, err := task.Wait(ctx)
	if err != nil {
		task.Cancel()
	}

	h.record(outcome(err))
	if err != nil {
		slog.Debug("Parse failed", "task_id", task.ID, "url", data.URL(), "error", err)
	}
	return doc, err
}

func outcome(err error) string {
	var rerr *rsxml.Error
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rerr):
		return "failed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, dispatch.ErrQueueFull), errors.Is(err, dispatch.ErrStopped):
		return "rejected"
	default:
		return "error"
	}
}

func (h *Handler) record(outcome string) {
	h.mu.Lock()
	h.outcomes[outcome]++
	h.mu.Unlock()
}

func (h *Handler) readBody(c *gin.Context) ([]byte, bool) {
	if h.opts.MaxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxBodyBytes)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Failed to read request body"})
		return nil, false
	}
	return body, true
}

func (h *Handler) writeRSS(c *gin.Context, f *model.Feed) {
	rss, err := h.generator.Run(f)
	if err != nil {
		slog.Error("RSS generation error", "url", f.URL, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(f.Articles)))
	c.Header("X-Feed-URL", f.URL)
	c.String(http.StatusOK, rss)
}

func writeError(c *gin.Context, err error) {
	var rerr *rsxml.Error
	switch {
	case errors.As(err, &rerr):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Error:   rerr.Error(),
			Code:    int(rerr.Code),
			Domain:  string(rerr.Domain),
			URL:     rerr.URL,
			Message: rerr.Code.String(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, errorResponse{Error: "Parse timed out"})
	case errors.Is(err, dispatch.ErrQueueFull), errors.Is(err, dispatch.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "Parse canceled"})
	default:
		slog.Error("Parse error", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal error"})
	}
}
