package production

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/counterx/internal/core"
	"github.com/comalice/counterx/internal/primitives"
)

func TestPromObserver_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObserver(reg)
	e := core.NewEngine(core.WithObserver(obs))
	slot := primitives.NewBufferSlot(make([]byte, primitives.RecordSize))
	ctx := context.Background()

	require.NoError(t, e.Process(ctx, slot, primitives.Increment(1).Encode()))
	require.NoError(t, e.Process(ctx, slot, primitives.Increment(1).Encode()))
	require.Error(t, e.Process(ctx, slot, []byte{4}))
	require.Error(t, e.Process(ctx, primitives.NewBufferSlot([]byte{0}), primitives.Reset().Encode()))

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.instructions.WithLabelValues("increment", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.instructions.WithLabelValues("unknown", "invalid_instruction")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.instructions.WithLabelValues("reset", "malformed_state")))

	expected := `
# HELP counterx_instructions_total Total instructions processed by opcode and outcome
# TYPE counterx_instructions_total counter
counterx_instructions_total{op="increment",outcome="ok"} 2
counterx_instructions_total{op="reset",outcome="malformed_state"} 1
counterx_instructions_total{op="unknown",outcome="invalid_instruction"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "counterx_instructions_total"))
	assert.Equal(t, 3, testutil.CollectAndCount(obs.duration))
}
