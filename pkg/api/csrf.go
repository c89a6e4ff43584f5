package api

import (
	"context"
	"sync"
	"time"

	"github.com/seonmall/storefront/pkg/logger"
)

// csrfManager caches the process-wide anti-forgery token. The token is
// time-boxed, refetches are throttled, and concurrent callers during an
// in-flight fetch share the one outstanding request instead of issuing
// duplicates.
type csrfManager struct {
	fetch      func(ctx context.Context) (string, error)
	validity   time.Duration
	minRefetch time.Duration
	now        func() time.Time

	mu          sync.Mutex
	token       string
	fetchedAt   time.Time
	lastAttempt time.Time
	inflight    chan struct{} // closed when the current fetch settles
}

func newCSRFManager(fetch func(ctx context.Context) (string, error), validity, minRefetch time.Duration) *csrfManager {
	return &csrfManager{
		fetch:      fetch,
		validity:   validity,
		minRefetch: minRefetch,
		now:        time.Now,
	}
}

// Token returns an anti-forgery token to attach to a state-changing
// request. The cached token is reused within its validity window; an
// expired token is still returned when a refetch would violate the
// throttle, leaving the server as the final authority.
func (m *csrfManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()

	if m.token != "" && m.now().Sub(m.fetchedAt) < m.validity {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}

	if m.token != "" && m.now().Sub(m.lastAttempt) < m.minRefetch {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}

	return m.refreshLocked(ctx)
}

// ForceRefresh discards the cached token and fetches a fresh one,
// bypassing the validity window and the refetch throttle. Used after the
// server rejects a request for a stale token.
func (m *csrfManager) ForceRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.token = ""
	m.fetchedAt = time.Time{}
	return m.refreshLocked(ctx)
}

// refreshLocked is entered holding mu and returns with it released. If a
// fetch is already in flight the caller waits for it; otherwise the caller
// becomes the fetcher.
func (m *csrfManager) refreshLocked(ctx context.Context) (string, error) {
	if m.inflight != nil {
		done := m.inflight
		m.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}

		m.mu.Lock()
		token := m.token
		m.mu.Unlock()
		if token == "" {
			return "", ErrNetworkError
		}
		return token, nil
	}

	done := make(chan struct{})
	m.inflight = done
	m.lastAttempt = m.now()
	m.mu.Unlock()

	token, err := m.fetch(ctx)

	m.mu.Lock()
	if err == nil && token != "" {
		m.token = token
		m.fetchedAt = m.now()
	}
	m.inflight = nil
	close(done)
	m.mu.Unlock()

	if err != nil {
		logger.Warn("Anti-forgery token fetch failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", err
	}
	return token, nil
}
