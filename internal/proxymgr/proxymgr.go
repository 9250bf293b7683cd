// Package proxymgr rotates the configured proxies and benches failing ones.
package proxymgr

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/config"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/errs"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/observability"
)

// maxBackoff caps the exponential backoff of a failing proxy.
const maxBackoff = time.Hour

// ProxyState represents the current state of a proxy.
type ProxyState int

const (
	// ProxyStateAvailable indicates the proxy is available for use.
	ProxyStateAvailable ProxyState = iota
	// ProxyStateFailed indicates the proxy has failed and is in backoff.
	ProxyStateFailed
)

// ProxyStats represents statistics for a proxy.
type ProxyStats struct {
	State        ProxyState
	FailureCount int
	LastFailure  time.Time
	BackoffUntil time.Time
}

// Manager manages proxy rotation and health.
type Manager struct {
	log     *slog.Logger
	cfg     config.Proxy
	metrics *observability.Metrics
	now     func() time.Time
	dial    dialFunc

	mu      sync.Mutex
	proxies map[string]*ProxyStats
	order   []string // insertion order, rotation follows it
	next    int
}

// New creates a new proxy manager. metrics may be nil.
func New(log *slog.Logger, cfg config.Proxy, metrics *observability.Metrics) *Manager {
	mgr := &Manager{
		log:     log.With(slog.String("package", "proxymgr")),
		cfg:     cfg,
		metrics: metrics,
		now:     time.Now,
		dial:    (&net.Dialer{}).DialContext,
		proxies: make(map[string]*ProxyStats, len(cfg.Proxies)),
		order:   make([]string, 0, len(cfg.Proxies)),
	}

	for _, proxy := range cfg.Proxies {
		if _, dup := mgr.proxies[proxy]; dup {
			continue
		}

		mgr.proxies[proxy] = &ProxyStats{State: ProxyStateAvailable}
		mgr.order = append(mgr.order, proxy)
	}

	metrics.SetProxiesAvailable(len(mgr.order))

	return mgr
}

// Next returns the next available proxy in round-robin order.
func (m *Manager) Next() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	for range m.order {
		proxy := m.order[m.next%len(m.order)]
		m.next++

		if m.isAvailable(m.proxies[proxy], now) {
			return proxy, nil
		}
	}

	return "", errs.ErrNoProxiesAvailable
}

// MarkFailed records a failure; after MaxFailures in a row the proxy is benched
// with exponential backoff.
func (m *Manager) MarkFailed(proxyURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, exists := m.proxies[proxyURL]
	if !exists {
		return
	}

	now := m.now()
	info.FailureCount++
	info.LastFailure = now

	maxFailures := max(m.cfg.MaxFailures, 1)
	if info.FailureCount < maxFailures {
		return
	}

	backoff := m.cfg.FailureBackoff << min(info.FailureCount-maxFailures, 16)
	if backoff <= 0 || backoff > maxBackoff {
		backoff = maxBackoff
	}

	info.State = ProxyStateFailed
	info.BackoffUntil = now.Add(backoff)

	m.log.Warn("proxy marked as failed",
		slog.String("proxy", proxyURL),
		slog.Int("failure_count", info.FailureCount),
		slog.Duration("backoff", backoff))

	m.metrics.SetProxiesAvailable(m.availableLocked(now))
}

// MarkSuccess marks a proxy as healthy and resets its failure count.
func (m *Manager) MarkSuccess(proxyURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, exists := m.proxies[proxyURL]
	if !exists {
		return
	}

	info.State = ProxyStateAvailable
	info.FailureCount = 0
	info.BackoffUntil = time.Time{}

	m.metrics.SetProxiesAvailable(m.availableLocked(m.now()))
}

// Stats returns a snapshot of every proxy's state.
func (m *Manager) Stats() map[string]ProxyStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[string]ProxyStats, len(m.proxies))
	for proxyURL, info := range m.proxies {
		stats[proxyURL] = *info
	}

	return stats
}

// ProxyCount returns the total number of configured proxies.
func (m *Manager) ProxyCount() int {
	return len(m.order)
}

// AvailableCount returns the number of currently available proxies.
func (m *Manager) AvailableCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.availableLocked(m.now())
}

func (m *Manager) availableLocked(now time.Time) int {
	n := 0

	for _, proxy := range m.order {
		if m.isAvailable(m.proxies[proxy], now) {
			n++
		}
	}

	return n
}

// isAvailable reports whether a proxy may be used; an expired backoff counts as available.
func (m *Manager) isAvailable(info *ProxyStats, now time.Time) bool {
	return info.State == ProxyStateAvailable || !now.Before(info.BackoffUntil)
}
