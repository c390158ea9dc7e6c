// Package metrics exposes pump and platform counters for Prometheus.
package metrics

import (
	"errors"
	"strconv"

	"wellpump/internal/platform"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wellpump"

// Collector owns every wellpump metric. The zero value is not usable; build it with NewCollector.
type Collector struct {
	runs        *prometheus.CounterVec
	commands    *prometheus.CounterVec
	requests    *prometheus.CounterVec
	level       prometheus.Gauge
	pumpRunning prometheus.Gauge
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Engine runs by outcome.",
		}, []string{"outcome"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_commands_total",
			Help:      "Relay commands accepted by the platform.",
		}, []string{"output", "value"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "platform",
			Name:      "requests_total",
			Help:      "Device platform requests by operation and result.",
		}, []string{"op", "result"}),
		level: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "water_level_cm",
			Help:      "Last water level read from the well controller.",
		}),
		pumpRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pump_running",
			Help:      "1 while the persisted phase is on.",
		}),
	}
	reg.MustRegister(c.runs, c.commands, c.requests, c.level, c.pumpRunning)
	return c
}

func (c *Collector) ObserveRun(outcome string) {
	c.runs.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveLevel(cm float64) {
	c.level.Set(cm)
}

func (c *Collector) ObserveCommand(output string, value bool) {
	c.commands.WithLabelValues(output, strconv.FormatBool(value)).Inc()
}

func (c *Collector) ObservePumpRunning(running bool) {
	v := 0.0
	if running {
		v = 1
	}
	c.pumpRunning.Set(v)
}

// ObservePlatformRequest implements platform.RequestObserver.
func (c *Collector) ObservePlatformRequest(op string, err error) {
	c.requests.WithLabelValues(op, requestResult(err)).Inc()
}

func requestResult(err error) string {
	if err == nil {
		return "ok"
	}
	var re *platform.RequestError
	if !errors.As(err, &re) {
		return "error"
	}
	switch {
	case re.StatusCode == 0:
		return "transport"
	case re.StatusCode >= 500:
		return "5xx"
	case re.StatusCode >= 400:
		return "4xx"
	default:
		return "decode"
	}
}
