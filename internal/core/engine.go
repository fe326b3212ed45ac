// Package core provides the runtime tier of the counter engine: the
// read-modify-write Engine, the pure mutation rules and the sequential Runner.
// Dependencies: internal/primitives.
// Pluggable components are declared here and implemented in internal/production.
//go:generate go test ./... -race

package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/counterx/internal/primitives"
)

const tracerName = "github.com/comalice/counterx/internal/core"

// Pluggable component interfaces.

// Publisher receives every committed transition.
type Publisher interface {
	Publish(ctx context.Context, t primitives.Transition) error
	Close() error
}

// Observer records the outcome of every invocation, successful or not.
// op is the opcode name, or "unknown" when decoding failed.
type Observer interface {
	Observe(op string, outcome string, elapsed time.Duration)
}

// Persister stores slot snapshots outside the host slot.
type Persister interface {
	Save(ctx context.Context, snapshot SlotSnapshot) error
	Load(ctx context.Context, slotID string) (SlotSnapshot, error)
}

// SlotSnapshot is the serializable view of a slot after a committed transition.
type SlotSnapshot struct {
	SlotID    string                 `json:"slotID" yaml:"slotID"`
	Record    primitives.Record      `json:"record" yaml:"record"`
	Last      *primitives.Transition `json:"last,omitempty" yaml:"last,omitempty"`
	Timestamp time.Time              `json:"timestamp" yaml:"timestamp"`
}

// Option applies configuration to Engine via functional options pattern.
type Option func(*Engine)

// Engine decodes instructions and applies them to a slot as one atomic
// read-modify-write. It holds no per-slot state; the same Engine may serve
// any number of slots, but each slot admits one invocation at a time.
type Engine struct {
	policy    OverflowPolicy
	logger    *slog.Logger
	publisher Publisher
	observer  Observer
	tracer    trace.Tracer
	now       func() time.Time
}

// NewEngine creates an Engine. Without options it wraps on overflow, logs
// nowhere and publishes nothing.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		policy: OverflowWrap,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the configured overflow policy.
func (e *Engine) Policy() OverflowPolicy {
	return e.policy
}

// Process runs one instruction against slot and reports only success or failure.
func (e *Engine) Process(ctx context.Context, slot primitives.Slot, instruction []byte) error {
	_, err := e.Execute(ctx, slot, instruction)
	return err
}

// Execute runs one instruction against slot.
//
// Sequence: decode the instruction, acquire the slot, decode the record, apply
// the command, encode the record into the slot view, release with commit.
// Every failure before the encode step releases the slot without commit, so the
// stored bytes are those of the last successful invocation.
func (e *Engine) Execute(ctx context.Context, slot primitives.Slot, instruction []byte) (primitives.Transition, error) {
	start := e.now()
	ctx, span := e.tracer.Start(ctx, "counterx.Execute")
	defer span.End()

	cmd, err := primitives.DecodeCommand(instruction)
	if err != nil {
		return e.fail(span, "unknown", start, err)
	}
	op := cmd.Op.String()
	span.SetAttributes(attribute.String("counterx.op", op))

	tr, err := e.mutate(slot, cmd)
	if err != nil {
		return e.fail(span, op, start, err)
	}

	span.SetAttributes(
		attribute.Int64("counterx.before", int64(tr.Before)),
		attribute.Int64("counterx.after", int64(tr.After)),
	)
	e.logger.Debug("transition committed",
		slog.String("op", op),
		slog.Uint64("value", uint64(cmd.Value)),
		slog.Uint64("before", uint64(tr.Before)),
		slog.Uint64("after", uint64(tr.After)),
	)
	if e.observer != nil {
		e.observer.Observe(op, Outcome(nil), e.now().Sub(start))
	}
	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, tr); err != nil {
			e.logger.Warn("publish transition", slog.String("id", tr.ID.String()), slog.Any("error", err))
		}
	}
	return tr, nil
}

func (e *Engine) mutate(slot primitives.Slot, cmd primitives.Command) (primitives.Transition, error) {
	view, err := slot.Acquire()
	if err != nil {
		return primitives.Transition{}, fmt.Errorf("%w: acquire slot: %w", primitives.ErrStorageWrite, err)
	}
	committed := false
	defer func() {
		if !committed {
			if err := slot.Release(false); err != nil {
				e.logger.Warn("release slot", slog.Any("error", err))
			}
		}
	}()

	before, err := primitives.DecodeRecord(view)
	if err != nil {
		return primitives.Transition{}, err
	}
	after, err := Apply(before, cmd, e.policy)
	if err != nil {
		return primitives.Transition{}, err
	}
	if err := after.EncodeInto(view); err != nil {
		return primitives.Transition{}, err
	}

	committed = true
	if err := slot.Release(true); err != nil {
		if errors.Is(err, primitives.ErrStorageWrite) {
			return primitives.Transition{}, err
		}
		return primitives.Transition{}, fmt.Errorf("%w: commit slot: %w", primitives.ErrStorageWrite, err)
	}
	return primitives.NewTransition(cmd, before, after, e.now()), nil
}

func (e *Engine) fail(span trace.Span, op string, start time.Time, err error) (primitives.Transition, error) {
	outcome := Outcome(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	e.logger.Warn("instruction failed", slog.String("op", op), slog.String("outcome", outcome), slog.Any("error", err))
	if e.observer != nil {
		e.observer.Observe(op, outcome, e.now().Sub(start))
	}
	return primitives.Transition{}, err
}

// Outcome classifies err into a stable label for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, primitives.ErrInvalidInstruction):
		return "invalid_instruction"
	case errors.Is(err, primitives.ErrMalformedState):
		return "malformed_state"
	case errors.Is(err, primitives.ErrStorageWrite):
		return "storage_write"
	case errors.Is(err, primitives.ErrCounterOverflow):
		return "overflow"
	default:
		return "error"
	}
}
