// Package health runs the site's checks concurrently and serves the
// results for load balancer probes.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the outcome of a check or of the whole checker.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusDraining  Status = "draining"
)

const defaultTimeout = 5 * time.Second

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Status     Status         `json:"status"`
	DurationMS float64        `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// HealthStatus is the aggregate report.
type HealthStatus struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version,omitempty"`
}

// Check is one named probe.
type Check struct {
	Name    string
	Check   func(ctx context.Context) error
	Timeout time.Duration
	// Critical failures make the whole report unhealthy; others degrade it.
	Critical bool
}

// Checker holds the registered checks.
type Checker struct {
	checks   []Check
	version  string
	started  time.Time
	draining atomic.Bool
	mu       sync.RWMutex
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{started: time.Now()}
}

// SetVersion sets the version shown in reports.
func (hc *Checker) SetVersion(version string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.version = version
}

// AddCheck registers a non-critical check.
func (hc *Checker) AddCheck(name string, check func(context.Context) error, timeout time.Duration) {
	hc.add(Check{Name: name, Check: check, Timeout: timeout})
}

// AddCriticalCheck registers a check whose failure makes the site unhealthy.
func (hc *Checker) AddCriticalCheck(name string, check func(context.Context) error, timeout time.Duration) {
	hc.add(Check{Name: name, Check: check, Timeout: timeout, Critical: true})
}

func (hc *Checker) add(c Check) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, c)
}

// Drain marks the checker as shutting down. Readiness fails from then on
// while liveness keeps passing.
func (hc *Checker) Drain() {
	hc.draining.Store(true)
}

// Draining reports whether Drain was called.
func (hc *Checker) Draining() bool {
	return hc.draining.Load()
}

// Names returns the registered check names, sorted.
func (hc *Checker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, 0, len(hc.checks))
	for _, c := range hc.checks {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// Check runs every check concurrently, each under its own timeout.
func (hc *Checker) Check(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	checks := make([]Check, len(hc.checks))
	copy(checks, hc.checks)
	version := hc.version
	hc.mu.RUnlock()

	status := HealthStatus{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now(),
		Uptime:    time.Since(hc.started).Round(time.Second).String(),
		Version:   version,
	}

	results := make([]CheckResult, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			results[i] = run(ctx, c)
			return nil
		})
	}
	g.Wait()

	for i, c := range checks {
		r := results[i]
		status.Checks[c.Name] = r
		if r.Status == StatusHealthy {
			continue
		}
		if c.Critical {
			status.Status = StatusUnhealthy
		} else if status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
	}

	if hc.Draining() && status.Status != StatusUnhealthy {
		status.Status = StatusDraining
	}
	return status
}

func run(ctx context.Context, c Check) CheckResult {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := c.Check(ctx)
	result := CheckResult{
		Status:     StatusHealthy,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		var he *HealthError
		if errors.As(err, &he) {
			result.Details = he.Details
		}
	}
	return result
}

// LivenessHandler answers 200 while the process is serving.
func (hc *Checker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	})
}

// ReadinessHandler answers 503 when a critical check fails or the
// checker is draining, 200 otherwise.
func (hc *Checker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := hc.Check(r.Context())
		code := http.StatusOK
		if status.Status == StatusUnhealthy || status.Status == StatusDraining {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	})
}

// HealthHandler always answers 200 with the full report.
func (hc *Checker) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hc.Check(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// PingCheck always passes.
func PingCheck() func(context.Context) error {
	return func(ctx context.Context) error {
		return nil
	}
}

// LiveSessionsCheck fails once the number of live sessions reaches max.
// A max of zero disables the check.
func LiveSessionsCheck(getCount func() int, max int) func(context.Context) error {
	return func(ctx context.Context) error {
		count := getCount()
		if max > 0 && count >= max {
			return &HealthError{
				Message: "live sessions at capacity",
				Details: map[string]any{
					"current": count,
					"max":     max,
				},
			}
		}
		return nil
	}
}

// HealthError is a check failure carrying details for the report.
type HealthError struct {
	Message string
	Details map[string]any
}

func (e *HealthError) Error() string {
	return e.Message
}

// DefaultChecker returns a checker with the version set and a ping check.
func DefaultChecker(version string) *Checker {
	hc := NewChecker()
	hc.SetVersion(version)
	hc.AddCheck("ping", PingCheck(), time.Second)
	return hc
}
