package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsJobs(t *testing.T) {
	pool := NewWorkerPool(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	var count int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		if err := pool.Submit(func(context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&count, 1)
			return nil
		}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	wg.Wait()
	pool.Stop()

	if got := atomic.LoadInt32(&count); got != 4 {
		t.Errorf("executed jobs = %d, want 4", got)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	var running int32
	var peak int32
	release := make(chan struct{})
	var wg sync.WaitGroup

	blocking := func(context.Context) error {
		defer wg.Done()
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&running, -1)
		return nil
	}

	// Two workers plus a queue of two: four jobs fit, all are eventually
	// executed but never more than two at once.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		if err := pool.Submit(blocking); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	// Give both workers time to pick up a job, then check the bound.
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&running); got != 2 {
		t.Errorf("concurrent jobs = %d, want 2", got)
	}

	close(release)
	wg.Wait()
	pool.Stop()

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestWorkerPoolDropsWhenFull(t *testing.T) {
	pool := NewWorkerPool(1)
	// Not started: nothing drains the queue, so capacity is the buffer.

	for i := 0; i < 2; i++ {
		if err := pool.Submit(func(context.Context) error { return nil }); err != nil {
			t.Fatalf("Submit() error = %v on job %d", err, i)
		}
	}

	if err := pool.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Submit() error = %v, want ErrQueueFull", err)
	}
}
