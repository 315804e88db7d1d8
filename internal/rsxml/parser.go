package rsxml

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/sax"
)

// Parser runs one Descriptor over one Data. It is single-use.
type Parser struct {
	data     *Data
	desc     *Descriptor
	builder  Builder
	lexer    *sax.Parser
	used     atomic.Bool
	canceled atomic.Bool
}

// NewParser binds desc to data. It fails with the matching expectation
// error when data was detected as something desc cannot read. Data that
// failed detection still yields a Parser; CanParse reports false and the
// parse returns the detection error.
func NewParser(data *Data, desc *Descriptor) (*Parser, error) {
	if data.CanParse() && data.Descriptor().Name != desc.Name {
		return nil, expectationError(desc.Kind(), data.URL(), data.Descriptor().Kind().String())
	}

	p := &Parser{data: data, desc: desc}
	if data.CanParse() {
		p.builder = desc.New(data)
		p.lexer = sax.NewParser(p.builder, desc.Mode(), sax.WithEncoding(data.Encoding()))
	}
	return p, nil
}

// Open returns a parser for whatever data was detected as.
func Open(data *Data) (*Parser, error) {
	if err := data.Err(); err != nil {
		return nil, err
	}
	return NewParser(data, data.Descriptor())
}

func (p *Parser) Data() *Data {
	return p.data
}

func (p *Parser) Descriptor() *Descriptor {
	return p.desc
}

func (p *Parser) CanParse() bool {
	return p.data.CanParse()
}

// Cancel stops a running parse, or one that has not started yet. It is
// safe to call from any goroutine.
func (p *Parser) Cancel() {
	p.canceled.Store(true)
	if p.lexer != nil {
		p.lexer.Cancel()
	}
}

// ParseSync parses on the calling goroutine.
func (p *Parser) ParseSync(ctx context.Context) (model.Document, error) {
	if err := p.data.Err(); err != nil {
		return nil, err
	}
	if !p.used.CompareAndSwap(false, true) {
		return nil, ErrParserUsed
	}

	if p.canceled.Load() {
		return nil, sax.ErrCanceled
	}

	start := time.Now()
	if err := p.lexer.Parse(ctx, p.data.Bytes()); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		slog.Debug("Document failed to tokenize", "url", p.data.URL(), "parser", p.desc.Name, "error", err)
		return nil, lexerError(err, p.data.URL())
	}

	doc, err := p.builder.Document()
	if err != nil {
		return nil, err
	}
	slog.Debug("Document parsed", "url", p.data.URL(), "parser", p.desc.Name, "duration", time.Since(start))
	return doc, nil
}

// ParseAsync parses on the default executor.
func (p *Parser) ParseAsync(ctx context.Context, completion func(model.Document, error)) *Task {
	return p.ParseAsyncOn(ctx, DefaultExecutor(), completion)
}

// ParseAsyncOn parses on exec. completion, when not nil, runs exactly once
// through exec.Deliver, with either a document or an error.
func (p *Parser) ParseAsyncOn(ctx context.Context, exec Executor, completion func(model.Document, error)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := newTask(cancel)

	work := func() {
		doc, err := p.ParseSync(ctx)
		t.finish(exec, doc, err, completion)
	}
	if err := exec.Submit(work); err != nil {
		t.finish(exec, nil, err, completion)
	}
	return t
}
