package proxymgr

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"
)

const (
	defaultSOCKSPort     = "1080"
	defaultHTTPPort      = "8080"
	defaultHealthTimeout = 5 * time.Second
)

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// RunHealthChecker checks every proxy right away and then every HealthInterval.
// It blocks until ctx is done and returns immediately when health checks are disabled.
func (m *Manager) RunHealthChecker(ctx context.Context) error {
	if !m.cfg.HealthCheck || len(m.order) == 0 {
		return nil
	}

	m.CheckHealth(ctx)

	if m.cfg.HealthInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(m.cfg.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.CheckHealth(ctx)
		}
	}
}

// CheckHealth opens a TCP connection to every proxy. Reachable proxies are restored,
// unreachable ones are benched for FailureBackoff. It returns the reachable count.
func (m *Manager) CheckHealth(ctx context.Context) int {
	healthy := 0

	for _, proxy := range m.order {
		if err := m.probe(ctx, proxy); err != nil {
			m.log.WarnContext(ctx, "proxy unreachable", slog.String("proxy", proxy), slog.Any("error", err))
			m.bench(proxy)

			continue
		}

		m.MarkSuccess(proxy)
		healthy++
	}

	m.log.InfoContext(ctx, "proxy health checked", slog.Int("healthy", healthy), slog.Int("total", len(m.order)))

	return healthy
}

func (m *Manager) probe(ctx context.Context, proxyURL string) error {
	addr, err := proxyAddr(proxyURL)
	if err != nil {
		return err
	}

	timeout := m.cfg.HealthTimeout
	if timeout <= 0 {
		timeout = defaultHealthTimeout
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := m.dial(checkCtx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	return conn.Close()
}

// bench takes a proxy out of rotation regardless of its failure count.
func (m *Manager) bench(proxyURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, exists := m.proxies[proxyURL]
	if !exists {
		return
	}

	backoff := m.cfg.FailureBackoff
	if backoff <= 0 {
		backoff = maxBackoff
	}

	now := m.now()
	info.State = ProxyStateFailed
	info.LastFailure = now
	info.BackoffUntil = now.Add(backoff)

	m.metrics.SetProxiesAvailable(m.availableLocked(now))
}

// proxyAddr returns host:port of a proxy URL, adding the scheme's default port.
//   - socks5h://host => host:1080
//   - http://host:3128 => host:3128
func proxyAddr(proxyURL string) (string, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return "", fmt.Errorf("parse proxy url: %w", err)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("proxy url %q has no host", proxyURL)
	}

	if u.Port() != "" {
		return u.Host, nil
	}

	switch u.Scheme {
	case "socks5", "socks5h", "socks4", "socks4a":
		return net.JoinHostPort(u.Hostname(), defaultSOCKSPort), nil
	case "http", "https":
		return net.JoinHostPort(u.Hostname(), defaultHTTPPort), nil
	default:
		return "", fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
}
