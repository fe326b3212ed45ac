package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/comalice/counterx/internal/primitives"
)

// ErrQueueFull is returned by Runner.Send under backpressure.
var ErrQueueFull = errors.New("instruction queue full (backpressure)")

// ErrRunnerStopped is returned by Runner.Send and Runner.Start once the runner
// has been stopped or its context cancelled.
var ErrRunnerStopped = errors.New("runner stopped")

// InstructionSource feeds raw instruction buffers into a Runner.
type InstructionSource interface {
	Instructions() <-chan []byte
}

// Runner serializes invocations against a single slot.
// Send is safe for concurrent use; instructions are applied one at a time in
// arrival order, each to completion before the next is dequeued.
type Runner struct {
	engine    *Engine
	slotID    string
	slot      primitives.Slot
	queue     chan []byte
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	// sendMu orders Send against shutdown: nothing is enqueued after done closes.
	sendMu  sync.RWMutex
	stopped bool

	mu       sync.RWMutex
	last     *primitives.Transition
	failures int

	persister Persister
	source    InstructionSource
	logger    *slog.Logger
}

// NewRunner creates a Runner applying instructions to slot through engine.
func NewRunner(engine *Engine, slotID string, slot primitives.Slot, opts ...RunnerOption) *Runner {
	r := &Runner{
		engine: engine,
		slotID: slotID,
		slot:   slot,
		queue:  make(chan []byte, 1000), // default buffered queue
		done:   make(chan struct{}),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the processing goroutine and, if configured, the source pump.
// Idempotent: safe to call multiple times.
func (r *Runner) Start(ctx context.Context) error {
	select {
	case <-r.done:
		return ErrRunnerStopped
	default:
	}
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.loop(ctx)

		if r.source != nil {
			r.wg.Add(1)
			go r.pump()
		}
	})
	return nil
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case buf := <-r.queue:
			r.handle(ctx, buf)
		case <-r.done:
			r.drain(ctx)
			return
		case <-ctx.Done():
			r.shutdown()
			return
		}
	}
}

// shutdown rejects further sends and closes done. Safe to call repeatedly.
func (r *Runner) shutdown() {
	r.stopOnce.Do(func() {
		r.sendMu.Lock()
		r.stopped = true
		r.sendMu.Unlock()
		close(r.done)
	})
}

// drain applies whatever is already queued at shutdown.
func (r *Runner) drain(ctx context.Context) {
	for {
		select {
		case buf := <-r.queue:
			r.handle(ctx, buf)
		default:
			return
		}
	}
}

func (r *Runner) pump() {
	defer r.wg.Done()
	src := r.source.Instructions()
	for {
		select {
		case buf, ok := <-src:
			if !ok {
				return
			}
			if err := r.Send(buf); err != nil {
				r.logger.Warn("drop instruction", slog.String("slot", r.slotID), slog.Any("error", err))
			}
		case <-r.done:
			return
		}
	}
}

func (r *Runner) handle(ctx context.Context, buf []byte) {
	tr, err := r.engine.Execute(ctx, r.slot, buf)
	if err != nil {
		r.mu.Lock()
		r.failures++
		r.mu.Unlock()
		r.logger.Warn("instruction rejected", slog.String("slot", r.slotID), slog.Any("error", err))
		return
	}

	r.mu.Lock()
	r.last = &tr
	r.mu.Unlock()

	if r.persister == nil {
		return
	}
	snap := SlotSnapshot{
		SlotID:    r.slotID,
		Record:    primitives.Record{Counter: tr.After},
		Last:      &tr,
		Timestamp: tr.At,
	}
	if err := r.persister.Save(ctx, snap); err != nil {
		r.logger.Error("persist snapshot", slog.String("slot", r.slotID), slog.Any("error", err))
	}
}

// Send enqueues an instruction for asynchronous processing.
// Returns ErrQueueFull instead of blocking, and ErrRunnerStopped after Stop
// or context cancellation. Thread-safe.
func (r *Runner) Send(instruction []byte) error {
	r.sendMu.RLock()
	defer r.sendMu.RUnlock()
	if r.stopped {
		return ErrRunnerStopped
	}
	select {
	case r.queue <- instruction:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop signals shutdown and waits for queued instructions to be applied.
// Safe to call multiple times.
func (r *Runner) Stop() error {
	r.shutdown()
	r.wg.Wait()
	return nil
}

// Last returns the most recent committed transition.
func (r *Runner) Last() (primitives.Transition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return primitives.Transition{}, false
	}
	return *r.last, true
}

// Failures returns the number of rejected instructions.
func (r *Runner) Failures() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failures
}

// Restore writes a persisted record back into the slot.
// Call before Start.
func (r *Runner) Restore(snapshot SlotSnapshot) error {
	if snapshot.SlotID != r.slotID {
		return fmt.Errorf("slot ID mismatch: have %q, snapshot %q", r.slotID, snapshot.SlotID)
	}
	view, err := r.slot.Acquire()
	if err != nil {
		return fmt.Errorf("%w: acquire slot: %w", primitives.ErrStorageWrite, err)
	}
	if err := snapshot.Record.EncodeInto(view); err != nil {
		_ = r.slot.Release(false)
		return err
	}
	if err := r.slot.Release(true); err != nil {
		return fmt.Errorf("%w: commit slot: %w", primitives.ErrStorageWrite, err)
	}

	r.mu.Lock()
	r.last = nil
	if snapshot.Last != nil {
		last := *snapshot.Last
		r.last = &last
	}
	r.mu.Unlock()
	return nil
}
