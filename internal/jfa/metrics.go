package jfa

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts frames and passes. Collectors are registered on the
// registerer handed to NewMetrics, if any.
type Metrics struct {
	Frames       *prometheus.CounterVec
	Passes       prometheus.Counter
	Resizes      prometheus.Counter
	FrameSeconds prometheus.Histogram
}

// Frame outcome labels.
const (
	OutcomePresented = "presented"
)

// NewMetrics builds the collectors and registers them on reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jumpflood",
			Name:      "frames_total",
			Help:      "Frames by outcome: presented or the failure class.",
		}, []string{"outcome"}),
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jumpflood",
			Name:      "passes_total",
			Help:      "Passes submitted, seed and composite included.",
		}),
		Resizes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jumpflood",
			Name:      "resizes_total",
			Help:      "Field buffer reallocations.",
		}),
		FrameSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jumpflood",
			Name:      "frame_seconds",
			Help:      "Wall time of presented frames.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Frames, m.Passes, m.Resizes, m.FrameSeconds)
	}
	return m
}
