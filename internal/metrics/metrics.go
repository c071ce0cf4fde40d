// Package metrics exposes dispatcher statistics as Prometheus metrics
package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/klauern/hubhooks/internal/core"
)

const namespace = "hubhooks"

// StatsSource is implemented by *core.Dispatcher
type StatsSource interface {
	Stats() core.Stats
}

// Collector turns a stats snapshot into const metrics on every scrape
type Collector struct {
	src StatsSource

	dispatches    *prometheus.Desc
	failures      *prometheus.Desc
	calls         *prometheus.Desc
	scripts       *prometheus.Desc
	registrations *prometheus.Desc
}

// NewCollector creates a collector reading from src
func NewCollector(src StatsSource) *Collector {
	return &Collector{
		src: src,
		dispatches: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "hook", "dispatches_total"),
			"Number of times a hook was dispatched.",
			[]string{"hook"}, nil,
		),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "hook", "failures_total"),
			"Number of handler failures per hook.",
			[]string{"hook"}, nil,
		),
		calls: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "script", "calls_total"),
			"Number of handler invocations per script and hook.",
			[]string{"script_id", "script", "hook"}, nil,
		),
		scripts: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "scripts"),
			"Number of registered scripts by state.",
			[]string{"state"}, nil,
		),
		registrations: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "registrations_total"),
			"Number of successful script registrations.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.dispatches
	ch <- c.failures
	ch <- c.calls
	ch <- c.scripts
	ch <- c.registrations
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()

	for _, h := range st.Hooks {
		ch <- prometheus.MustNewConstMetric(c.dispatches, prometheus.CounterValue, float64(h.Dispatches), string(h.Hook))
		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(h.Failures), string(h.Hook))
	}
	for _, s := range st.Scripts {
		id := strconv.FormatUint(uint64(s.ID), 10)
		for hook, n := range s.Calls {
			ch <- prometheus.MustNewConstMetric(c.calls, prometheus.CounterValue, float64(n), id, s.Name, string(hook))
		}
	}
	ch <- prometheus.MustNewConstMetric(c.scripts, prometheus.GaugeValue, float64(st.Active), "enabled")
	ch <- prometheus.MustNewConstMetric(c.scripts, prometheus.GaugeValue, float64(st.Disabled), "disabled")
	ch <- prometheus.MustNewConstMetric(c.registrations, prometheus.CounterValue, float64(st.Registrations))
}

// NewRegistry returns a registry holding only the dispatcher collector
func NewRegistry(src StatsSource) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(src)); err != nil {
		return nil, fmt.Errorf("register collector: %w", err)
	}
	return reg, nil
}

// WriteText gathers g and writes the text exposition format to w
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
