/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package periodic

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is the tick interval when none is configured.
const DefaultInterval = 10 * time.Second

// Hook is the work done on every tick.
type Hook func(ctx context.Context)

// Task calls a Hook periodically until shut down.
type Task struct {
	hook     Hook
	name     string
	log      zerolog.Logger
	interval atomic.Int64
	reset    chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Task.
type Option func(*Task)

// WithInterval sets the tick interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(t *Task) {
		if d > 0 {
			t.interval.Store(int64(d))
		}
	}
}

// WithName names the task in log entries.
func WithName(name string) Option {
	return func(t *Task) { t.name = name }
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Task) { t.log = l }
}

// New creates a stopped Task.
func New(hook Hook, opts ...Option) *Task {
	t := &Task{
		hook:  hook,
		name:  "periodic",
		log:   zerolog.Nop(),
		reset: make(chan struct{}, 1),
	}
	t.interval.Store(int64(DefaultInterval))
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Interval returns the current tick interval.
func (t *Task) Interval() time.Duration {
	return time.Duration(t.interval.Load())
}

// SetInterval changes the tick interval. Non-positive values are ignored.
func (t *Task) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	t.interval.Store(int64(d))
	select {
	case t.reset <- struct{}{}:
	default:
	}
}

// Start launches the loop. The loop stops when ctx is done or Shutdown is called.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		return fmt.Errorf("%s: already started", t.name)
	}

	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	go t.loop(ctx, t.done)
	return nil
}

// Running reports whether the loop is active.
func (t *Task) Running() bool {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Shutdown stops the loop and waits for a running hook to return.
// It is safe to call more than once, and before Start.
func (t *Task) Shutdown() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
}

func (t *Task) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		t.tick(ctx)
		if !t.wait(ctx) {
			return
		}
	}
}

// wait sleeps one interval, restarting on every SetInterval. It returns false
// when ctx is done.
func (t *Task) wait(ctx context.Context) bool {
	for {
		timer := time.NewTimer(t.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-t.reset:
			timer.Stop()
		case <-timer.C:
			return true
		}
	}
}

func (t *Task) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().
				Str("task", t.name).
				Interface("panic", r).
				Msg("periodic hook panicked")
		}
	}()
	t.hook(ctx)
}
