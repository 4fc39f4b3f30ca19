package examAuth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Refresh renews the token pair through the platform using the current
// access token.
//
// Concurrent refreshes of the same access token share one remote call. On
// failure the error wraps ErrRefreshFailed and the held and persisted tokens
// stay as they were; the manager does not log out on its own. On success the
// new pair is persisted before it replaces the old one in memory.
func (m *SessionManager) Refresh(ctx context.Context) error {
	pair := m.currentPair()
	if !pair.Complete() {
		m.metrics.Inc(MetricNotAuthenticated)
		return ErrNotAuthenticated
	}
	return m.refreshFrom(ctx, pair.AccessToken)
}

// refreshFrom renews the session that stale belongs to. If stale has already
// been replaced the call succeeds without a remote round trip.
func (m *SessionManager) refreshFrom(ctx context.Context, stale string) error {
	// the shared call outlives any single caller's cancellation
	shared := context.WithoutCancel(ctx)
	ch := m.refreshGroup.DoChan(stale, func() (interface{}, error) {
		return nil, m.doRefresh(shared, stale)
	})

	select {
	case res := <-ch:
		if res.Shared {
			m.metrics.Inc(MetricRefreshShared)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *SessionManager) doRefresh(ctx context.Context, stale string) error {
	if current := m.currentPair(); current.AccessToken != stale {
		if current.Complete() {
			return nil
		}
		return ErrNotAuthenticated
	}

	userID := m.currentUserID()

	start := time.Now()
	next, err := m.transport.ReAuth(ctx, stale)
	m.observeRemote(start)
	if err != nil {
		return m.refreshFailed(ctx, userID, classifyRemote("reauth", err))
	}
	if next == nil || !next.Complete() {
		m.metrics.Inc(MetricProtocolViolation)
		return m.refreshFailed(ctx, userID, fmt.Errorf("reauth: %w: incomplete token pair", ErrProtocolViolation))
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	// a logout or a new login may have landed while the call was in flight
	if current := m.currentPair(); current.AccessToken != stale {
		if current.Complete() {
			return nil
		}
		return ErrNotAuthenticated
	}

	if err := m.store.Save(ctx, *next); err != nil {
		m.metrics.Inc(MetricStoreFailure)
		return m.refreshFailed(ctx, userID, fmt.Errorf("persist refreshed session: %w", err))
	}

	m.mu.Lock()
	m.pair = *next
	m.mu.Unlock()

	m.metrics.Inc(MetricRefreshSuccess)
	m.logger.Info("session refreshed", zap.String("user_id", userID))
	m.emitAudit(ctx, AuditRefreshSuccess, userID, true, nil, nil)
	return nil
}

func (m *SessionManager) refreshFailed(ctx context.Context, userID string, cause error) error {
	m.metrics.Inc(MetricRefreshFailure)
	m.logger.Warn("session refresh failed", zap.String("user_id", userID), zap.Error(cause))
	m.emitAudit(ctx, AuditRefreshFailure, userID, false, cause, nil)
	return fmt.Errorf("%w: %w", ErrRefreshFailed, cause)
}
