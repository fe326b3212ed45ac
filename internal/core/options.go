// Package core provides the runtime tier of the counter engine.
// Options for configuring Engine and Runner instances.
package core

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// WithOverflowPolicy sets how Increment handles uint32 overflow.
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithLogger configures the Engine logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPublisher configures the Engine with a Publisher for committed transitions.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithObserver configures the Engine with an Observer for invocation outcomes.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithTracer replaces the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithClock overrides time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// RunnerOption applies configuration to Runner.
type RunnerOption func(*Runner)

// WithQueueSize configures the instruction queue buffer size.
func WithQueueSize(size int) RunnerOption {
	return func(r *Runner) {
		r.queue = make(chan []byte, size)
	}
}

// WithPersister configures the Runner with a Persister for slot snapshots.
func WithPersister(p Persister) RunnerOption {
	return func(r *Runner) {
		r.persister = p
	}
}

// WithSource configures the Runner with an InstructionSource drained after Start.
func WithSource(s InstructionSource) RunnerOption {
	return func(r *Runner) {
		r.source = s
	}
}

// WithRunnerLogger configures the Runner logger.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}
