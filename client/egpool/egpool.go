// Package egpool runs jobs on a bounded number of goroutines and reports
// the first error.
package egpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Group is a bounded errgroup. At most PoolSize jobs run at once. Once a
// job fails, jobs which have not started yet are skipped and the context
// returned by WithContext is cancelled.
type Group struct {
	PoolSize int

	once  sync.Once
	slots chan struct{}
	wg    sync.WaitGroup

	mu       sync.Mutex // guards firstErr and errs
	firstErr error
	errs     []error
	failed   int32
	cancel   context.CancelFunc
}

// WithContext returns a Group of the given size and a context derived from
// ctx which is cancelled when a job fails or Wait returns.
func WithContext(ctx context.Context, size int) (*Group, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	return &Group{PoolSize: size, cancel: cancel}, ctx
}

// Go runs f on its own goroutine. It blocks while PoolSize jobs are
// running. After a failure f is dropped.
func (eg *Group) Go(f func() error) {
	eg.once.Do(func() {
		if eg.PoolSize <= 0 {
			eg.PoolSize = 1
		}
		eg.slots = make(chan struct{}, eg.PoolSize)
	})

	eg.slots <- struct{}{}
	if eg.Failed() {
		<-eg.slots
		return
	}
	eg.wg.Add(1)
	go eg.run(f)
}

// ErrPanic is recorded for a job which panicked.
type ErrPanic struct {
	Value interface{}
}

func (p ErrPanic) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// ErrGoexit is recorded for a job which called runtime.Goexit.
var ErrGoexit = errors.New("runtime.Goexit used in job function")

func (eg *Group) run(f func() error) {
	defer eg.wg.Done()
	// The slot is released last so that a following job sees the failure.
	defer func() { <-eg.slots }()

	var returned bool
	defer func() {
		if returned {
			return
		}
		if p := recover(); p != nil {
			eg.fail(ErrPanic{p})
		} else {
			eg.fail(ErrGoexit)
		}
	}()

	err := f()
	returned = true
	if err != nil {
		eg.fail(err)
	}
}

func (eg *Group) fail(err error) {
	eg.mu.Lock()
	defer eg.mu.Unlock()

	if eg.firstErr == nil {
		eg.firstErr = err
		atomic.StoreInt32(&eg.failed, 1)
		if eg.cancel != nil {
			eg.cancel()
		}
	}
	eg.errs = append(eg.errs, err)
}

// Failed reports whether any job has returned an error so far.
func (eg *Group) Failed() bool {
	return atomic.LoadInt32(&eg.failed) != 0
}

// Wait waits for every started job and returns the first error.
func (eg *Group) Wait() error {
	if eg.cancel != nil {
		defer eg.cancel()
	}
	eg.wg.Wait()

	eg.mu.Lock()
	defer eg.mu.Unlock()
	return eg.firstErr
}

// Errors returns every error returned by a job, in completion order.
func (eg *Group) Errors() []error {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	return eg.errs
}
