package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "origin"

// Collector holds the runtime's Prometheus metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	Frames        prometheus.Counter
	FixedSteps    prometheus.Counter
	FrameDuration prometheus.Histogram

	Services prometheus.Gauge
	Tickable prometheus.Gauge

	Timers     *prometheus.GaugeVec
	TimerFired prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Logic frames ticked.",
		}),
		FixedSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixed_steps_total",
			Help:      "Fixed-step updates ticked.",
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Wall time spent inside one logic frame.",
			Buckets:   []float64{.0005, .001, .002, .004, .008, .016, .033, .066, .1},
		}),
		Services: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "services",
			Help:      "Live services in the registry.",
		}),
		Tickable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tickable_services",
			Help:      "Live services taking the per-frame update.",
		}),
		Timers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timers",
			Help:      "Live timers per time domain.",
		}, []string{"domain"}),
		TimerFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_fired_total",
			Help:      "Timer callbacks fired.",
		}),
	}
	c.registry.MustRegister(
		c.Frames,
		c.FixedSteps,
		c.FrameDuration,
		c.Services,
		c.Tickable,
		c.Timers,
		c.TimerFired,
	)
	return c
}

// Registry returns the registry the metrics live on, for /metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveFrame records one logic frame. It satisfies host.FrameObserver.
func (c *Collector) ObserveFrame(d time.Duration, fixedSteps int) {
	c.Frames.Inc()
	c.FixedSteps.Add(float64(fixedSteps))
	c.FrameDuration.Observe(d.Seconds())
}
