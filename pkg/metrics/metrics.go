// Package metrics keeps in-process counters for live sessions and the
// carousel and exposes them in the Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds the site metrics. A nil *Metrics is valid and records
// nothing, so components can take one optionally.
type Metrics struct {
	namespace string

	SessionsActive *Gauge
	SessionsTotal  *Counter
	SessionsEnded  *CounterVec

	CarouselAdvances *Counter
	Selections       *CounterVec

	RenderDuration *Histogram

	mu     sync.RWMutex
	gauges map[string]GaugeFunc
}

// GaugeFunc is a gauge read at scrape time.
type GaugeFunc struct {
	Help string
	Fn   func() float64
}

// New creates a metrics set whose names are prefixed with namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		namespace:        namespace,
		SessionsActive:   NewGauge("live_sessions_active", "Live sessions currently connected"),
		SessionsTotal:    NewCounter("live_sessions_total", "Live sessions started"),
		SessionsEnded:    NewCounterVec("live_sessions_ended_total", "Live sessions ended", "reason"),
		CarouselAdvances: NewCounter("carousel_advances_total", "Timer-driven carousel advances"),
		Selections:       NewCounterVec("carousel_selections_total", "Carousel card selections", "result"),
		RenderDuration:   NewHistogram("render_duration_seconds", "Component render time"),
		gauges:           make(map[string]GaugeFunc),
	}
}

// RegisterGaugeFunc adds a gauge computed on every scrape.
func (m *Metrics) RegisterGaugeFunc(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = GaugeFunc{Help: help, Fn: fn}
}

// SessionStarted records a new live session.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// SessionEnded records the end of a live session.
func (m *Metrics) SessionEnded(reason string) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.SessionsEnded.Inc(reason)
}

// Advanced records one timer tick applied to a carousel.
func (m *Metrics) Advanced() {
	if m == nil {
		return
	}
	m.CarouselAdvances.Inc()
}

// Selected records a click, accepted or rejected.
func (m *Metrics) Selected(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Selections.Inc("ok")
		return
	}
	m.Selections.Inc("rejected")
}

// ObserveRender records how long one render took.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(d.Seconds())
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.WriteTo(w)
	})
}

// WriteTo writes every metric to w.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	m.writeScalar(cw, m.SessionsActive.name, m.SessionsActive.help, "gauge", m.SessionsActive.Value())
	m.writeScalar(cw, m.SessionsTotal.name, m.SessionsTotal.help, "counter", m.SessionsTotal.Value())
	m.writeVec(cw, m.SessionsEnded)
	m.writeScalar(cw, m.CarouselAdvances.name, m.CarouselAdvances.help, "counter", m.CarouselAdvances.Value())
	m.writeVec(cw, m.Selections)
	m.writeSummary(cw, m.RenderDuration)

	m.mu.RLock()
	names := make([]string, 0, len(m.gauges))
	for name := range m.gauges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		g := m.gauges[name]
		m.writeScalar(cw, name, g.Help, "gauge", g.Fn())
	}
	m.mu.RUnlock()

	return cw.n, cw.err
}

func (m *Metrics) fullName(name string) string {
	if m.namespace == "" {
		return name
	}
	return m.namespace + "_" + name
}

func (m *Metrics) writeScalar(w io.Writer, name, help, typ string, value float64) {
	name = m.fullName(name)
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %s\n", name, help, name, typ, name, formatFloat(value))
}

func (m *Metrics) writeVec(w io.Writer, cv *CounterVec) {
	name := m.fullName(cv.name)
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", name, cv.help, name)

	values := cv.Values()
	labels := make([]string, 0, len(values))
	for l := range values {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		fmt.Fprintf(w, "%s{%s=%q} %s\n", name, cv.label, l, formatFloat(values[l]))
	}
}

func (m *Metrics) writeSummary(w io.Writer, h *Histogram) {
	name := m.fullName(h.name)
	stats := h.Stats()
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s summary\n", name, h.help, name)
	fmt.Fprintf(w, "%s_sum %s\n%s_count %d\n", name, formatFloat(stats.Sum), name, stats.Count)
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// NewCounter creates a new counter.
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds a non-negative delta.
func (c *Counter) Add(delta int64) {
	if delta > 0 {
		c.value.Add(delta)
	}
}

// Value returns the current counter value.
func (c *Counter) Value() float64 {
	return float64(c.value.Load())
}

// Gauge is a value that can go up and down.
type Gauge struct {
	name  string
	help  string
	value atomic.Int64
}

// NewGauge creates a new gauge.
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

// Set sets the gauge.
func (g *Gauge) Set(v int64) {
	g.value.Store(v)
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() {
	g.value.Add(1)
}

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() {
	g.value.Add(-1)
}

// Value returns the current gauge value.
func (g *Gauge) Value() float64 {
	return float64(g.value.Load())
}

// CounterVec is a counter partitioned by one label.
type CounterVec struct {
	name   string
	help   string
	label  string
	values map[string]*Counter
	mu     sync.RWMutex
}

// NewCounterVec creates a new counter vector.
func NewCounterVec(name, help, label string) *CounterVec {
	return &CounterVec{
		name:   name,
		help:   help,
		label:  label,
		values: make(map[string]*Counter),
	}
}

// WithLabel returns the counter for a label value.
func (cv *CounterVec) WithLabel(value string) *Counter {
	cv.mu.RLock()
	c, ok := cv.values[value]
	cv.mu.RUnlock()
	if ok {
		return c
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if c, ok := cv.values[value]; ok {
		return c
	}
	c = NewCounter(cv.name, cv.help)
	cv.values[value] = c
	return c
}

// Inc increments the counter for a label value.
func (cv *CounterVec) Inc(value string) {
	cv.WithLabel(value).Inc()
}

// Values returns a snapshot of every label's count.
func (cv *CounterVec) Values() map[string]float64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	out := make(map[string]float64, len(cv.values))
	for label, c := range cv.values {
		out[label] = c.Value()
	}
	return out
}

// Histogram tracks count, sum and extremes of observed values.
type Histogram struct {
	name  string
	help  string
	sum   float64
	count int64
	min   float64
	max   float64
	mu    sync.Mutex
}

// NewHistogram creates a new histogram.
func NewHistogram(name, help string) *Histogram {
	return &Histogram{name: name, help: help}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 || v < h.min {
		h.min = v
	}
	if h.count == 0 || v > h.max {
		h.max = v
	}
	h.sum += v
	h.count++
}

// Stats returns a snapshot.
func (h *Histogram) Stats() HistogramStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := HistogramStats{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	if h.count > 0 {
		s.Avg = h.sum / float64(h.count)
	}
	return s
}

// HistogramStats contains histogram statistics.
type HistogramStats struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Avg   float64
}
