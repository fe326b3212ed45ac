package extensibility

import (
	"context"
	"log/slog"
	"time"

	"github.com/comalice/counterx/internal/core"
	"github.com/comalice/counterx/internal/primitives"
)

// Processor applies one instruction buffer to one slot.
type Processor interface {
	Process(ctx context.Context, slot primitives.Slot, instruction []byte) error
}

// LoggingProcessor wraps a Processor and records every invocation at Info.
type LoggingProcessor struct {
	inner  Processor
	logger *slog.Logger
}

// NewLoggingProcessor creates a new LoggingProcessor wrapping inner.
func NewLoggingProcessor(inner Processor, logger *slog.Logger) *LoggingProcessor {
	return &LoggingProcessor{inner: inner, logger: logger}
}

// Process logs before and after delegating to the inner processor.
func (p *LoggingProcessor) Process(ctx context.Context, slot primitives.Slot, instruction []byte) error {
	p.logger.InfoContext(ctx, "processing instruction", slog.Int("bytes", len(instruction)))
	start := time.Now()
	err := p.inner.Process(ctx, slot, instruction)
	p.logger.InfoContext(ctx, "instruction processed",
		slog.Duration("elapsed", time.Since(start)),
		slog.String("outcome", core.Outcome(err)),
	)
	return err
}
