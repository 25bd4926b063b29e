package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/compozy/overlay/pkg/debugcmd"
	"github.com/compozy/overlay/pkg/overrides"
)

// commandMetrics records executed /debug commands. It implements
// debugcmd.Recorder.
type commandMetrics struct {
	commands *prometheus.CounterVec
}

func newCommandMetrics(registry *prometheus.Registry, store *overrides.Store) *commandMetrics {
	m := &commandMetrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "overlay",
			Name:      "debug_commands_total",
			Help:      "Debug commands executed, by action and outcome.",
		}, []string{"action", "ok"}),
	}
	active := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "overlay",
		Name:      "overrides_active",
		Help:      "1 when at least one debug override is set.",
	}, func() float64 {
		if store.IsEmpty() {
			return 0
		}
		return 1
	})
	registry.MustRegister(m.commands, active)
	return m
}

func (m *commandMetrics) Observe(action debugcmd.Action, ok bool) {
	m.commands.WithLabelValues(string(action), strconv.FormatBool(ok)).Inc()
}
