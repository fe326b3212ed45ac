package production

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PromObserver implements core.Observer with Prometheus collectors.
type PromObserver struct {
	instructions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewPromObserver registers the counterx collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics.
func NewPromObserver(reg prometheus.Registerer) *PromObserver {
	factory := promauto.With(reg)
	return &PromObserver{
		// instructions counts invocations by opcode and outcome
		instructions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "counterx_instructions_total",
			Help: "Total instructions processed by opcode and outcome",
		}, []string{"op", "outcome"}),

		// duration tracks decode-to-commit latency
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "counterx_instruction_duration_seconds",
			Help:    "Instruction processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10), // 1µs to ~260ms
		}, []string{"op"}),
	}
}

func (o *PromObserver) Observe(op, outcome string, elapsed time.Duration) {
	o.instructions.WithLabelValues(op, outcome).Inc()
	o.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}
