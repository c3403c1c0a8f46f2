package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// pool runs batch tasks on their own goroutines. Failures are collected
// rather than cancelling siblings; the producer polls Failed between records.
// With a limit, both pooled tasks and the tail batch take a slot, so at most
// limit batches are processed at any moment.
type pool struct {
	g       errgroup.Group
	sem     *semaphore.Weighted
	metrics *Metrics

	pending atomic.Int64
	failed  atomic.Bool

	mu   sync.Mutex
	errs []error
}

func newPool(limit int, m *Metrics) *pool {
	p := &pool{metrics: m}
	if limit > 0 {
		p.sem = semaphore.NewWeighted(int64(limit))
	}
	return p
}

// Submit starts task for batch seq. With a limit it blocks until a slot is
// free or ctx is done.
func (p *pool) Submit(ctx context.Context, seq int, task func() error) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	p.pending.Add(1)
	p.metrics.inFlight(1)
	p.g.Go(func() error {
		defer func() {
			p.release()
			p.pending.Add(-1)
			p.metrics.inFlight(-1)
		}()
		if err := safeRun(task); err != nil {
			p.fail(&TaskError{Batch: seq, Err: err})
		}
		return nil
	})
	return nil
}

// RunSync runs task for batch seq on the calling goroutine, under the same
// slot limit as pooled tasks.
func (p *pool) RunSync(ctx context.Context, seq int, task func() error) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()
	if err := safeRun(task); err != nil {
		return &TaskError{Batch: seq, Sync: true, Err: err}
	}
	return nil
}

// Await waits for the submitted tasks. It returns a JoinTimeoutError when
// some are still running after timeout; timeout <= 0 waits forever.
func (p *pool) Await(timeout time.Duration) *JoinTimeoutError {
	done := make(chan struct{})
	go func() {
		_ = p.g.Wait()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return nil
	case <-t.C:
		return &JoinTimeoutError{Timeout: timeout, Outstanding: p.pending.Load()}
	}
}

// Failed reports whether any task has failed so far.
func (p *pool) Failed() bool { return p.failed.Load() }

// Err returns the task failures collected so far, joined.
func (p *pool) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

// Outstanding returns the number of submitted tasks not yet finished.
func (p *pool) Outstanding() int64 { return p.pending.Load() }

func (p *pool) fail(err error) {
	p.mu.Lock()
	p.errs = append(p.errs, err)
	p.mu.Unlock()
	p.failed.Store(true)
	p.metrics.batchFailed()
}

func (p *pool) acquire(ctx context.Context) error {
	if p.sem == nil {
		return nil
	}
	return p.sem.Acquire(ctx, 1)
}

func (p *pool) release() {
	if p.sem != nil {
		p.sem.Release(1)
	}
}

// safeRun turns a panic inside task into an error.
func safeRun(task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task()
}
