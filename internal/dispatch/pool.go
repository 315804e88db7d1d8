package dispatch

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/rsxml/internal/rsxml"
)

var _ rsxml.Executor = (*Pool)(nil)

var (
	ErrQueueFull = errors.New("job queue is full")
	ErrStopped   = errors.New("pool is stopped")
)

type Stats struct {
	Workers   int   `json:"workers"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Rejected  int64 `json:"rejected"`
	Delivered int64 `json:"delivered"`
}

type job struct {
	id       string
	work     func()
	queuedAt time.Time
}

// Pool runs submitted work on a fixed set of workers and runs completions
// one at a time on a single delivery goroutine.
type Pool struct {
	workerCount int
	queue       chan job
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []func()
	stopping bool
	closed   bool
	loopDone chan struct{}

	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	delivered atomic.Int64
}

func NewPool(workerCount, queueSize int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		workerCount: workerCount,
		queue:       make(chan job, queueSize),
		loopDone:    make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
		go p.deliveryLoop()
		slog.Debug("Dispatch pool started", "workers", p.workerCount, "queue_size", cap(p.queue))
	})
}

// Stop rejects new work, lets the workers finish what is queued and waits
// for every pending completion to run.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.Start()

		p.mu.Lock()
		p.stopping = true
		close(p.queue)
		p.mu.Unlock()

		p.wg.Wait()

		p.mu.Lock()
		p.closed = true
		p.cond.Broadcast()
		p.mu.Unlock()

		<-p.loopDone
		slog.Debug("Dispatch pool stopped", "completed", p.completed.Load(), "delivered", p.delivered.Load())
	})
}

func (p *Pool) Submit(work func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopping {
		p.rejected.Add(1)
		return ErrStopped
	}

	j := job{id: uuid.New().String(), work: work, queuedAt: time.Now()}
	select {
	case p.queue <- j:
		p.submitted.Add(1)
		return nil
	default:
		p.rejected.Add(1)
		return ErrQueueFull
	}
}

// Deliver queues fn for the delivery goroutine. After Stop it runs fn on
// the caller's goroutine.
func (p *Pool) Deliver(fn func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		fn()
		p.delivered.Add(1)
		return
	}
	p.pending = append(p.pending, fn)
	p.cond.Signal()
	p.mu.Unlock()
}

func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workerCount,
		Queued:    len(p.queue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Rejected:  p.rejected.Load(),
		Delivered: p.delivered.Load(),
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for j := range p.queue {
		started := time.Now()
		j.work()
		p.completed.Add(1)
		slog.Debug("Job finished", "worker_id", id, "id", j.id, "waited", started.Sub(j.queuedAt), "duration", time.Since(started))
	}
}

func (p *Pool) deliveryLoop() {
	defer close(p.loopDone)

	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		fn := p.pending[0]
		p.pending[0] = nil
		p.pending = p.pending[1:]
		p.mu.Unlock()

		fn()
		p.delivered.Add(1)
	}
}
