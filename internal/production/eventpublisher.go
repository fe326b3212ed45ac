package production

import (
	"context"

	"github.com/comalice/counterx/internal/primitives"
)

// PublishedTransition bundles a transition with the slot it was applied to.
type PublishedTransition struct {
	SlotID     string
	Transition primitives.Transition
}

// ChannelPublisher forwards committed transitions to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	slotID string
	ch     chan<- PublishedTransition
}

// NewChannelPublisher creates a ChannelPublisher tagging transitions with slotID.
func NewChannelPublisher(slotID string, ch chan<- PublishedTransition) *ChannelPublisher {
	return &ChannelPublisher{slotID: slotID, ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, t primitives.Transition) error {
	select {
	case p.ch <- PublishedTransition{SlotID: p.slotID, Transition: t}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil // Non-blocking drop
	}
}

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
