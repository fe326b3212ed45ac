package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/comalice/counterx/internal/primitives"
)

// OverflowPolicy decides what Increment does when the sum leaves uint32 range.
type OverflowPolicy int

const (
	// OverflowWrap wraps modulo 2^32. This is the historical behaviour.
	OverflowWrap OverflowPolicy = iota
	// OverflowSaturate clamps the counter at math.MaxUint32.
	OverflowSaturate
	// OverflowReject fails the invocation with ErrCounterOverflow.
	OverflowReject
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowWrap:
		return "wrap"
	case OverflowSaturate:
		return "saturate"
	case OverflowReject:
		return "reject"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy accepts "wrap", "saturate" or "reject". Empty means wrap.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wrap":
		return OverflowWrap, nil
	case "saturate":
		return OverflowSaturate, nil
	case "reject":
		return OverflowReject, nil
	default:
		return OverflowWrap, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// Apply computes the record that results from running cmd against rec.
// It is pure: nothing is written anywhere.
func Apply(rec primitives.Record, cmd primitives.Command, policy OverflowPolicy) (primitives.Record, error) {
	cur := rec.Counter
	switch cmd.Op {
	case primitives.OpIncrement:
		sum := cur + cmd.Value
		if sum < cur {
			switch policy {
			case OverflowSaturate:
				sum = math.MaxUint32
			case OverflowReject:
				return rec, fmt.Errorf("%w: %d + %d", primitives.ErrCounterOverflow, cur, cmd.Value)
			}
		}
		return primitives.Record{Counter: sum}, nil
	case primitives.OpDecrement:
		// Floors at zero; subtract only when the current value exceeds n.
		if cur > cmd.Value {
			return primitives.Record{Counter: cur - cmd.Value}, nil
		}
		return primitives.Record{Counter: 0}, nil
	case primitives.OpReset:
		return primitives.Record{Counter: 0}, nil
	case primitives.OpUpdate:
		return primitives.Record{Counter: cmd.Value}, nil
	default:
		return rec, fmt.Errorf("%w: %s", primitives.ErrInvalidInstruction, cmd.Op)
	}
}
