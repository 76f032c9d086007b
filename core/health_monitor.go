package core

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"examhub/dispatch/core/domain/healthlog"
	"examhub/dispatch/core/domain/service"
)

// Default probe schedule.
const (
	DefaultProbeInterval = 30 * time.Second
	DefaultProbeTimeout  = 5 * time.Second
)

// HealthReader answers whether a service may receive traffic.
type HealthReader interface {
	IsHealthy(name string) bool
}

// ProbeRecorder stores probe results for diagnostics.
type ProbeRecorder interface {
	Create(e *healthlog.Entry) error
}

// HealthStatus is the last known health of one service.
type HealthStatus struct {
	Healthy     bool      `json:"healthy"`
	Probed      bool      `json:"probed"`
	LastChecked time.Time `json:"last_checked,omitempty"`

	batch uint64
}

// HealthMonitor probes each service's health endpoint on a fixed schedule
// and keeps a status table that routing reads concurrently.
// Services never probed are reported healthy.
type HealthMonitor struct {
	registry *ServiceRegistry
	client   *http.Client
	interval time.Duration
	timeout  time.Duration
	recorder ProbeRecorder

	mu       sync.RWMutex
	status   map[string]HealthStatus // Key: service name
	batchSeq atomic.Uint64

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewHealthMonitor creates a monitor for the services in reg. Non-positive
// durations fall back to the defaults and the timeout is capped at the
// interval. recorder may be nil.
func NewHealthMonitor(reg *ServiceRegistry, interval, timeout time.Duration, recorder ProbeRecorder) *HealthMonitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if timeout > interval {
		log.Printf("Warning: health probe timeout %v exceeds interval %v, using %v", timeout, interval, interval)
		timeout = interval
	}

	return &HealthMonitor{
		registry: reg,
		client:   &http.Client{Timeout: timeout},
		interval: interval,
		timeout:  timeout,
		recorder: recorder,
		status:   make(map[string]HealthStatus),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs an immediate probe batch and then one batch per interval until
// ctx is cancelled or Stop is called. It blocks, so run it in its own
// goroutine: go monitor.Start(ctx). Start must be called at most once.
// Done is closed after the last in-flight probe has returned.
func (m *HealthMonitor) Start(ctx context.Context) {
	defer close(m.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Printf("Starting health monitor: interval=%v, timeout=%v", m.interval, m.timeout)

	var batches sync.WaitGroup
	m.CheckAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// A slow batch must not hold up the next tick.
			batches.Add(1)
			go func() {
				defer batches.Done()
				m.CheckAll(ctx)
			}()
		case <-m.stopChan:
			cancel()
			batches.Wait()
			log.Println("Health monitor stopped")
			return
		case <-ctx.Done():
			batches.Wait()
			log.Println("Health monitor stopped")
			return
		}
	}
}

// Stop signals the monitor to stop. It is safe to call multiple times.
// Wait on Done to observe completion.
func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

// Done returns a channel closed when Start has returned.
func (m *HealthMonitor) Done() <-chan struct{} {
	return m.done
}

// CheckAll probes every service that declares a health path, concurrently,
// and returns once each probe has finished or timed out.
// Results of an older batch never overwrite those of a newer one.
func (m *HealthMonitor) CheckAll(ctx context.Context) {
	runID := uuid.NewString()
	batch := m.batchSeq.Add(1)

	var wg sync.WaitGroup
	count := 0
	for _, svc := range m.registry.All() {
		if !svc.HasHealthCheck() {
			continue
		}
		count++
		wg.Add(1)
		go func(svc *service.Descriptor) {
			defer wg.Done()
			m.check(ctx, batch, runID, svc)
		}(svc)
	}

	log.Printf("Running health probes for %d services (run %s)", count, runID)
	wg.Wait()
}

// check performs a health probe on a single service. A probe cut short
// because the monitor is shutting down records nothing.
func (m *HealthMonitor) check(parent context.Context, batch uint64, runID string, svc *service.Descriptor) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(parent, m.timeout)
	defer cancel()

	entry := &healthlog.Entry{
		RunID:       runID,
		ServiceName: svc.Name,
		CheckedAt:   startTime,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.HealthCheckURL(), nil)
	if err != nil {
		log.Printf("Failed to create health probe request for %s: %v", svc.Name, err)
		entry.Status = healthlog.StatusError
		entry.ErrorMessage = err.Error()
		m.finish(svc.Name, batch, false, entry)
		return
	}

	resp, err := m.client.Do(req)
	entry.ResponseTimeMs = time.Since(startTime).Milliseconds()
	if err != nil {
		if parent.Err() != nil {
			log.Printf("Health probe for %s abandoned: %v", svc.Name, parent.Err())
			return
		}
		log.Printf("Health probe failed for %s: %v", svc.Name, err)
		entry.Status = healthlog.StatusUnhealthy
		entry.ErrorMessage = err.Error()
		m.finish(svc.Name, batch, false, entry)
		return
	}
	defer resp.Body.Close()
	// Drain a bounded amount so the connection can be reused
	io.Copy(io.Discard, io.LimitReader(resp.Body, 10*1024))

	entry.StatusCode = resp.StatusCode

	// Consider 2xx status codes as healthy
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		entry.Status = healthlog.StatusHealthy
		m.finish(svc.Name, batch, true, entry)
		return
	}

	log.Printf("Health probe failed for %s: status=%d", svc.Name, resp.StatusCode)
	entry.Status = healthlog.StatusUnhealthy
	entry.ErrorMessage = "HTTP " + strconv.Itoa(resp.StatusCode)
	m.finish(svc.Name, batch, false, entry)
}

// finish records a probe outcome in the status table, metrics and history.
func (m *HealthMonitor) finish(name string, batch uint64, healthy bool, entry *healthlog.Entry) {
	if !m.setStatus(name, batch, healthy, entry.CheckedAt) {
		log.Printf("Dropping stale health probe result for %s (run %s)", name, entry.RunID)
		return
	}

	result := healthlog.StatusHealthy
	if !healthy {
		result = healthlog.StatusUnhealthy
	}
	MetricHealthProbes.WithLabelValues(name, result).Inc()

	if m.recorder == nil {
		return
	}
	if err := m.recorder.Create(entry); err != nil {
		log.Printf("Warning: failed to record health probe for %s: %v", name, err)
	}
}

// setStatus stores a result unless a newer batch has already reported.
func (m *HealthMonitor) setStatus(name string, batch uint64, healthy bool, at time.Time) bool {
	m.mu.Lock()
	prev, seen := m.status[name]
	if seen && batch < prev.batch {
		m.mu.Unlock()
		return false
	}
	m.status[name] = HealthStatus{Healthy: healthy, Probed: true, LastChecked: at, batch: batch}
	m.mu.Unlock()

	gauge := 0.0
	if healthy {
		gauge = 1
	}
	MetricServiceHealthy.WithLabelValues(name).Set(gauge)

	if seen && prev.Healthy != healthy {
		log.Printf("Service %s changed health: healthy=%v", name, healthy)
	}
	return true
}

// IsHealthy reports the last known health of a service. Unknown and never
// probed services are healthy.
func (m *HealthMonitor) IsHealthy(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.status[name]
	return !ok || st.Healthy
}

// Status returns the last known status of a service.
func (m *HealthMonitor) Status(name string) HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.status[name]
	if !ok {
		return HealthStatus{Healthy: true}
	}
	return st
}

// Snapshot returns name -> healthy for every registered service.
func (m *HealthMonitor) Snapshot() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := make(map[string]bool, m.registry.Len())
	for _, svc := range m.registry.All() {
		st, ok := m.status[svc.Name]
		snap[svc.Name] = !ok || st.Healthy
	}
	return snap
}

// Statuses returns the detailed status of every registered service.
func (m *HealthMonitor) Statuses() map[string]HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]HealthStatus, m.registry.Len())
	for _, svc := range m.registry.All() {
		st, ok := m.status[svc.Name]
		if !ok {
			st = HealthStatus{Healthy: true}
		}
		out[svc.Name] = st
	}
	return out
}

// SetStatus overrides a service's health without probing.
// Test hook only: production code paths never call it.
func (m *HealthMonitor) SetStatus(name string, healthy bool) {
	log.Printf("Health status of %s overridden: healthy=%v", name, healthy)
	m.setStatus(name, m.batchSeq.Load(), healthy, time.Now())
}
