package rsxml

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/rsxml/internal/model"
)

// Executor runs parse work off the caller's goroutine and delivers
// completions on its own designated goroutine, one at a time.
type Executor interface {
	Submit(work func()) error
	Deliver(fn func())
}

// Task tracks one asynchronous parse.
type Task struct {
	ID        string
	StartedAt time.Time

	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
	doc    model.Document
	err    error
}

func newTask(cancel context.CancelFunc) *Task {
	return &Task{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (t *Task) GetDuration() time.Duration {
	return time.Since(t.StartedAt)
}

// Cancel asks the parse to stop. The task still completes, with an error
// wrapping context.Canceled unless the parse had already finished.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed once the result is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) (model.Document, error) {
	select {
	case <-t.done:
		return t.doc, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Task) finish(exec Executor, doc model.Document, err error, completion func(model.Document, error)) {
	t.once.Do(func() {
		if err != nil {
			doc = nil
		}
		t.doc, t.err = doc, err
		t.cancel()
		close(t.done)
		if completion != nil {
			exec.Deliver(func() { completion(doc, err) })
		}
	})
}

type goExecutor struct {
	once        sync.Once
	completions chan func()
}

var defaultExecutor = &goExecutor{}

// DefaultExecutor runs each parse on a new goroutine and delivers
// completions on a single long-lived goroutine.
func DefaultExecutor() Executor {
	return defaultExecutor
}

func (e *goExecutor) Submit(work func()) error {
	go work()
	return nil
}

func (e *goExecutor) Deliver(fn func()) {
	e.once.Do(func() {
		e.completions = make(chan func(), 64)
		go func() {
			for fn := range e.completions {
				fn()
			}
		}()
	})
	e.completions <- fn
}
