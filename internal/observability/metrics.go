package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides in-memory request counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	latencyTotal map[string]time.Duration
}

// RouteStat summarizes one method/route/status bucket.
type RouteStat struct {
	Key         string
	Count       int64
	MeanLatency time.Duration
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		latencyTotal: make(map[string]time.Duration),
	}
}

// RecordRequest counts a completed request and its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyTotal[key] += duration
}

// RecordError counts an error response by its domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := pathKey(path, method, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Requests returns request buckets sorted by key.
func (m *Metrics) Requests() []RouteStat {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make([]RouteStat, 0, len(m.requestCount))
	for key, count := range m.requestCount {
		stats = append(stats, RouteStat{
			Key:         key,
			Count:       count,
			MeanLatency: m.latencyTotal[key] / time.Duration(count),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Key < stats[j].Key })
	return stats
}

// Errors returns a copy of the error counters.
func (m *Metrics) Errors() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64, len(m.errorCount))
	for k, v := range m.errorCount {
		out[k] = v
	}
	return out
}

func pathKey(path, method, suffix string) string {
	return method + " " + path + "|" + suffix
}
