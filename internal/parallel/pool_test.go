package parallel

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(4)
	defer p.Close()

	var count int64
	ctx := context.Background()
	const n = 50
	for i := 0; i < n; i++ {
		if err := p.Submit(ctx, func() {
			atomic.AddInt64(&count, 1)
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	p.Close()

	if got := atomic.LoadInt64(&count); got != n {
		t.Fatalf("expected %d tasks to run, got %d", n, got)
	}
	finished, failed := p.Stats()
	if finished != n {
		t.Fatalf("expected %d finished, got %d", n, finished)
	}
	if failed != 0 {
		t.Fatalf("expected 0 failed, got %d", failed)
	}
}

func TestPoolRecordsPanicAsFailure(t *testing.T) {
	p := New(2)
	ctx := context.Background()

	if err := p.Submit(ctx, func() { panic("boom") }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	p.Close()

	_, failed := p.Stats()
	if failed != 1 {
		t.Fatalf("expected 1 failed task, got %d", failed)
	}
}

func TestPoolRejectsAfterClose(t *testing.T) {
	p := New(1)
	p.Close()

	err := p.Submit(context.Background(), func() {})
	if err != ErrPoolClosed {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPoolRespectsContextCancellation(t *testing.T) {
	p := New(1)
	defer p.Close()

	// Saturate the single worker and its buffer so the next Submit blocks.
	block := make(chan struct{})
	_ = p.Submit(context.Background(), func() { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Fill the buffered channel, then issue one more Submit that must
	// observe ctx.Done() rather than hang forever.
	fillCtx, fillCancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer fillCancel()
	for {
		if err := p.Submit(fillCtx, func() {}); err != nil {
			break
		}
	}

	err := p.Submit(ctx, func() {})
	close(block)
	if err == nil {
		t.Fatalf("expected Submit to report context cancellation")
	}
}
