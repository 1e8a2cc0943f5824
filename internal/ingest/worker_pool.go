package ingest

import (
	"context"
	"sync"
	"sync/atomic"
)

// task pairs a unit of work with the channel that collects its outcome.
type task[In, Out any] struct {
	in  In
	out chan<- outcome[Out]
}

type outcome[Out any] struct {
	value Out
	err   error
}

// pool runs fn on a fixed set of goroutines fed from a bounded queue.
// Producers never block: when the queue is full they do the work themselves.
type pool[In, Out any] struct {
	tasks    chan task[In, Out]
	fn       func(context.Context, In) (Out, error)
	inflight atomic.Int64
	once     sync.Once
	wg       sync.WaitGroup
}

func newPool[In, Out any](ctx context.Context, workers, depth int, fn func(context.Context, In) (Out, error)) *pool[In, Out] {
	p := &pool[In, Out]{
		tasks: make(chan task[In, Out], depth),
		fn:    fn,
	}
	p.wg.Add(workers)
	for range workers {
		go p.work(ctx)
	}
	return p
}

func (p *pool[In, Out]) work(ctx context.Context) {
	defer p.wg.Done()
	for {
		var t task[In, Out]
		var ok bool
		select {
		case t, ok = <-p.tasks:
		case <-ctx.Done():
			return
		}
		if !ok {
			return
		}
		p.inflight.Add(1)
		v, err := p.fn(ctx, t.in)
		p.inflight.Add(-1)
		if t.out != nil {
			t.out <- outcome[Out]{value: v, err: err}
		}
	}
}

// trySubmit queues in and reports whether it was accepted. out needs
// buffer space for the outcome.
func (p *pool[In, Out]) trySubmit(in In, out chan<- outcome[Out]) bool {
	select {
	case p.tasks <- task[In, Out]{in: in, out: out}:
		return true
	default:
		return false
	}
}

// utilization is the fraction of queue slots in use, 0 when unbuffered.
func (p *pool[In, Out]) utilization() float64 {
	if cap(p.tasks) == 0 {
		return 0
	}
	return float64(len(p.tasks)) / float64(cap(p.tasks))
}

// busy returns how many tasks workers are running right now.
func (p *pool[In, Out]) busy() int {
	return int(p.inflight.Load())
}

// close stops intake and waits for the workers. Safe to call twice.
func (p *pool[In, Out]) close() {
	p.once.Do(func() { close(p.tasks) })
	p.wg.Wait()
}
