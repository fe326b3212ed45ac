package extensibility

import (
	"errors"
	"time"
)

// ErrEmptyProgram is returned by NewTickerSource when no instructions are given.
var ErrEmptyProgram = errors.New("ticker program is empty")

// ChannelSource is an InstructionSource backed by a Go channel.
// Provides a simple way to feed external instruction buffers into a Runner.
type ChannelSource struct {
	ch chan []byte
}

// NewChannelSource creates a new ChannelSource with the given channel.
// The channel should be buffered if backpressure handling is needed.
func NewChannelSource(ch chan []byte) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Instructions returns the receive-only channel for instruction buffers.
func (s *ChannelSource) Instructions() <-chan []byte {
	return s.ch
}

// TickerSource emits a fixed program of instructions, one per tick, cycling
// back to the start when the program is exhausted.
type TickerSource struct {
	ch      chan []byte
	program [][]byte
	ticker  *time.Ticker
	stop    chan struct{}
}

// NewTickerSource starts emitting program every d.
func NewTickerSource(d time.Duration, program ...[]byte) (*TickerSource, error) {
	if len(program) == 0 {
		return nil, ErrEmptyProgram
	}
	t := &TickerSource{
		ch:      make(chan []byte, 10),
		program: program,
		ticker:  time.NewTicker(d),
		stop:    make(chan struct{}),
	}
	go t.run()
	return t, nil
}

func (t *TickerSource) run() {
	next := 0
	for {
		select {
		case <-t.ticker.C:
			instr := t.program[next%len(t.program)]
			select {
			case t.ch <- instr:
				next++
			default:
				// drop if full
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Instructions returns the instruction channel.
func (t *TickerSource) Instructions() <-chan []byte {
	return t.ch
}

// Stop stops the ticker and closes the channel.
func (t *TickerSource) Stop() {
	close(t.stop)
}
