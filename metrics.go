package goAuthClient

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that stored a scoped token pair.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected logins.
	MetricLoginFailure
	// MetricLoginDeferred counts phase-one logins awaiting organization
	// selection before a token is issued.
	MetricLoginDeferred
	// MetricOrgSelectSuccess counts successful organization selections.
	MetricOrgSelectSuccess
	// MetricOrgSelectFailure counts failed organization selections.
	MetricOrgSelectFailure
	// MetricRegisterSuccess counts successful registrations.
	MetricRegisterSuccess
	// MetricRegisterFailure counts failed registrations.
	MetricRegisterFailure
	// MetricRefreshSuccess counts silent refreshes that stored new tokens.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refresh attempts the server rejected.
	MetricRefreshFailure
	// MetricRefreshCoalesced counts callers that shared a single
	// in-flight refresh instead of issuing their own. Every participant
	// of a shared refresh is counted, the initiator included.
	MetricRefreshCoalesced
	// MetricRetryAfterRefresh counts requests re-issued after a refresh.
	MetricRetryAfterRefresh
	// MetricUnauthorizedSurfaced counts 401 responses returned to callers
	// after the single refresh-and-retry.
	MetricUnauthorizedSurfaced
	// MetricCSRFBootstrap counts bootstrap GETs that yielded a token.
	MetricCSRFBootstrap
	// MetricCSRFBootstrapFailure counts bootstrap GETs that yielded none.
	MetricCSRFBootstrapFailure
	// MetricCSRFRotated counts cache overwrites from response headers.
	MetricCSRFRotated
	// MetricCSRFUnavailable counts mutating calls blocked locally because
	// no token could be obtained.
	MetricCSRFUnavailable
	// MetricFlowStarted counts PKCE flows that built an authorization URL.
	MetricFlowStarted
	// MetricFlowCompleted counts flows that exchanged a code for tokens.
	MetricFlowCompleted
	// MetricFlowFailed counts flows that reached the Failed state.
	MetricFlowFailed
	// MetricFlowStateMismatch counts callbacks rejected on state mismatch.
	MetricFlowStateMismatch
	// MetricLogout counts logout operations.
	MetricLogout
	// MetricProfileFallback counts principal resolutions that fell back to
	// locally decoded claims after a transport error.
	MetricProfileFallback
	// MetricDispatchLatency is the dispatcher's end-to-end latency
	// histogram, including the refresh-and-retry when one happened.
	MetricDispatchLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and an optional latency histogram.
// Counters live in cache-line-padded slots; the write path is
// allocation-free.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether the instance records anything at all.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency observations are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc atomically increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample. Only [MetricDispatchLatency] carries a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricDispatchLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter value for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a deep copy of all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricDispatchLatency].buckets[i])
		}
		s.Histograms[MetricDispatchLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
