package goAuthClient

import (
	"net/http"
	"strings"
	"sync"

	"github.com/MrEthical07/goAuthClient/storage"
	"golang.org/x/sync/singleflight"
)

// Engine is the process-wide session context. It owns the credential store,
// the CSRF manager, the authenticated dispatcher, and the in-memory
// principal. Engine instances are configured through [Builder.Build] and
// safe for concurrent use afterwards.
type Engine struct {
	config       Config
	httpClient   *http.Client
	credentials  *CredentialStore
	csrf         *csrfManager
	sessionStore storage.Store
	audit        *auditDispatcher
	metrics      *Metrics

	refreshGroup   singleflight.Group
	onUnauthorized func()

	mu        sync.Mutex
	principal *Principal
	loading   bool
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Credentials exposes the engine's credential store, primarily so a [Flow]
// can write exchanged tokens into the same store the dispatcher reads.
func (e *Engine) Credentials() *CredentialStore {
	if e == nil {
		return nil
	}
	return e.credentials
}

// AuditDropped returns the number of audit events dropped under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a deep copy of the engine's metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// endpointURL resolves a configured path against the base URL. Absolute
// URLs pass through untouched.
func (e *Engine) endpointURL(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return strings.TrimRight(e.config.Endpoints.BaseURL, "/") + endpoint
}

func (e *Engine) setPrincipal(p *Principal) {
	e.mu.Lock()
	e.principal = p
	e.mu.Unlock()
}

// Principal returns the current session principal, or false when no one is
// authenticated.
func (e *Engine) Principal() (Principal, bool) {
	if e == nil {
		return Principal{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.principal == nil {
		return Principal{}, false
	}
	return *e.principal, true
}

// Loading reports whether [Engine.Initialize] is still resolving the
// principal. UI layers render a neutral state while this is true.
func (e *Engine) Loading() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

func (e *Engine) setLoading(v bool) {
	e.mu.Lock()
	e.loading = v
	e.mu.Unlock()
}
