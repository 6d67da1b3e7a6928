package metrics

import (
	"sync"
)

// Service holds process-local counters and gauges behind one mutex.
type Service struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
}

// NewService returns an empty metrics service.
func NewService() *Service {
	return &Service{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
	}
}

var (
	defaultInstance *Service
	defaultOnce     sync.Once
)

// Default returns the process-wide metrics instance.
func Default() *Service {
	defaultOnce.Do(func() {
		defaultInstance = NewService()
	})
	return defaultInstance
}

// Reset clears all counters and gauges of the default instance. Tests
// call this between cases.
func Reset() {
	svc := Default()
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.counters = make(map[string]int64)
	svc.gauges = make(map[string]float64)
}

// Increment adds one to a counter.
func (s *Service) Increment(name string) {
	s.Add(name, 1)
}

// Add adds a value to a counter.
func (s *Service) Add(name string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] += value
}

// Counter returns the current value of a counter.
func (s *Service) Counter(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[name]
}

// SetGauge sets a gauge to a value.
func (s *Service) SetGauge(name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges[name] = value
}

// Gauge returns the current value of a gauge, 0 when unset.
func (s *Service) Gauge(name string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gauges[name]
}

// Snapshot returns a merged copy of all counters and gauges.
func (s *Service) Snapshot() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.counters)+len(s.gauges))
	for name, value := range s.counters {
		out[name] = float64(value)
	}
	for name, value := range s.gauges {
		out[name] = value
	}
	return out
}
