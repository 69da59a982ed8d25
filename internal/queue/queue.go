package queue

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// Task is a deferred unit of work
type Task func(ctx context.Context) error

// PanicError is the outcome of a task that panicked
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Stats is a snapshot of queue counters
type Stats struct {
	Active     int
	Waiting    int
	PeakActive int
	Completed  int64
	Failed     int64
	Panicked   int64
}

type pending struct {
	ctx  context.Context
	task Task
	done chan error
}

// Queue admits at most limit tasks at once. Waiting tasks are started in
// submission order, and every finished task holds its slot for rateLimit
// before the slot is handed on.
type Queue struct {
	limit     int
	rateLimit time.Duration

	mu      sync.Mutex
	active  int
	waiting []*pending
	stats   Stats

	wg sync.WaitGroup
}

// New creates a queue. A limit below 1 is treated as 1.
func New(limit int, rateLimit time.Duration) *Queue {
	if limit < 1 {
		limit = 1
	}
	if rateLimit < 0 {
		rateLimit = 0
	}
	return &Queue{
		limit:     limit,
		rateLimit: rateLimit,
	}
}

// Submit schedules task and returns a channel that receives its outcome once.
// It never blocks.
func (q *Queue) Submit(ctx context.Context, task Task) <-chan error {
	p := &pending{ctx: ctx, task: task, done: make(chan error, 1)}

	q.wg.Add(1)

	q.mu.Lock()
	if q.active < q.limit {
		q.active++
		if q.active > q.stats.PeakActive {
			q.stats.PeakActive = q.active
		}
		q.mu.Unlock()
		go q.run(p)
		return p.done
	}
	q.waiting = append(q.waiting, p)
	q.mu.Unlock()

	return p.done
}

// Do submits task and waits for its outcome
func (q *Queue) Do(ctx context.Context, task Task) error {
	return <-q.Submit(ctx, task)
}

// Wait blocks until every submitted task has finished, including tasks
// submitted by running tasks.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Stats returns a snapshot of the queue counters
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.stats
	s.Active = q.active
	s.Waiting = len(q.waiting)
	return s
}

func (q *Queue) run(p *pending) {
	var err error
	defer func() {
		q.pause(p.ctx)
		q.release()
		p.done <- err
		q.wg.Done()
	}()

	if ctxErr := p.ctx.Err(); ctxErr != nil {
		err = ctxErr
		return
	}

	err = q.execute(p)

	q.mu.Lock()
	q.stats.Completed++
	if err != nil {
		q.stats.Failed++
	}
	q.mu.Unlock()
}

// execute runs the task, converting a panic into a PanicError
func (q *Queue) execute(p *pending) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.mu.Lock()
			q.stats.Panicked++
			q.mu.Unlock()
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return p.task(p.ctx)
}

// pause holds the slot for the rate limit
func (q *Queue) pause(ctx context.Context) {
	if q.rateLimit <= 0 {
		return
	}

	timer := time.NewTimer(q.rateLimit)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// release hands the slot to the oldest waiter or frees it
func (q *Queue) release() {
	q.mu.Lock()
	if len(q.waiting) == 0 {
		q.active--
		q.mu.Unlock()
		return
	}

	next := q.waiting[0]
	q.waiting[0] = nil
	q.waiting = q.waiting[1:]
	q.mu.Unlock()

	go q.run(next)
}
