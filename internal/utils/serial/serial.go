package serial

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var ErrClosed = errors.New("serial: executor closed")

type job struct {
	ctx    context.Context
	fn     func(ctx context.Context) (interface{}, error)
	result chan result
}

type result struct {
	value interface{}
	err   error
}

// Executor runs submitted jobs one at a time, in submission order, on a single goroutine.
type Executor struct {
	mux    sync.RWMutex
	closed bool
	jobs   chan job
	done   chan struct{}
	wg     sync.WaitGroup
}

func New(queueSize int) *Executor {
	e := &Executor{
		jobs: make(chan job, queueSize),
		done: make(chan struct{}),
	}
	e.wg.Add(1)
	go e.worker()
	return e
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			e.drain()
			return
		case j := <-e.jobs:
			// a job whose caller gave up before it started is never run
			if err := j.ctx.Err(); err != nil {
				j.result <- result{err: err}
				continue
			}
			v, err := j.fn(j.ctx)
			j.result <- result{value: v, err: err}
		}
	}
}

func (e *Executor) drain() {
	for {
		select {
		case j := <-e.jobs:
			j.result <- result{err: ErrClosed}
		default:
			return
		}
	}
}

// Do blocks until fn has run on the executor goroutine, or returns the context error
// without running fn when ctx ends first.
func (e *Executor) Do(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j := job{ctx: ctx, fn: fn, result: make(chan result, 1)}
	if err := e.enqueue(ctx, j); err != nil {
		return nil, err
	}

	r := <-j.result
	return r.value, r.err
}

func (e *Executor) enqueue(ctx context.Context, j job) error {
	e.mux.RLock()
	defer e.mux.RUnlock()

	if e.closed {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case e.jobs <- j:
		return nil
	}
}

// Close stops the worker after the running job. Queued jobs fail with ErrClosed.
func (e *Executor) Close() {
	e.mux.Lock()
	if !e.closed {
		e.closed = true
		close(e.done)
	}
	e.mux.Unlock()
	e.wg.Wait()
}

// Run is Do with a typed result.
func Run[T any](ctx context.Context, e *Executor, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := e.Do(ctx, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// Group hands out one executor per key, created on first use.
type Group struct {
	mux       sync.Mutex
	queueSize int
	execs     map[string]*Executor
}

func NewGroup(queueSize int) *Group {
	return &Group{queueSize: queueSize, execs: make(map[string]*Executor)}
}

func (g *Group) For(key string) *Executor {
	g.mux.Lock()
	defer g.mux.Unlock()

	e, ok := g.execs[key]
	if !ok {
		e = New(g.queueSize)
		g.execs[key] = e
	}
	return e
}

func (g *Group) Close() {
	g.mux.Lock()
	defer g.mux.Unlock()

	for _, e := range g.execs {
		e.Close()
	}
}
