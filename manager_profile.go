package examAuth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FetchCurrentProfile is FetchCurrentProfileWithOptions with refresh-retry
// allowed.
func (m *SessionManager) FetchCurrentProfile(ctx context.Context) (*UserProfile, error) {
	return m.FetchCurrentProfileWithOptions(ctx, true)
}

// FetchCurrentProfileWithOptions fetches the current user's profile and
// caches it together with its role.
//
// When the platform reports an expired token and allowRefreshRetry is set,
// the session is refreshed once and the fetch retried once with the new
// token. Any other failure, a failed refresh, or a second expiry is returned
// as is.
func (m *SessionManager) FetchCurrentProfileWithOptions(ctx context.Context, allowRefreshRetry bool) (*UserProfile, error) {
	refreshed := false
	for {
		pair := m.currentPair()
		if !pair.Complete() {
			m.metrics.Inc(MetricNotAuthenticated)
			return nil, ErrNotAuthenticated
		}

		start := time.Now()
		profile, err := m.transport.GetProfile(ctx, pair.AccessToken)
		m.observeRemote(start)

		if err == nil {
			if profile == nil {
				m.metrics.Inc(MetricProfileFailure)
				m.metrics.Inc(MetricProtocolViolation)
				return nil, fmt.Errorf("get profile: %w: empty result", ErrProtocolViolation)
			}
			m.storeProfile(pair.AccessToken, profile)
			m.metrics.Inc(MetricProfileFetch)
			return cloneProfile(profile), nil
		}

		err = classifyRemote("get profile", err)
		if !allowRefreshRetry || refreshed || !errors.Is(err, ErrTokenExpired) {
			m.metrics.Inc(MetricProfileFailure)
			return nil, err
		}

		refreshed = true
		m.metrics.Inc(MetricProfileRetry)
		m.logger.Debug("access token rejected, refreshing before retry")
		if err := m.refreshFrom(ctx, pair.AccessToken); err != nil {
			m.metrics.Inc(MetricProfileFailure)
			return nil, err
		}
	}
}

// storeProfile caches profile unless the session it was fetched for has
// been replaced in the meantime.
func (m *SessionManager) storeProfile(accessToken string, profile *UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pair.AccessToken != accessToken {
		return
	}
	m.profile = cloneProfile(profile)
	m.role = profile.Role
	m.logger.Debug("profile cached", zap.String("user_id", profile.UserID), zap.Stringer("role", profile.Role))
}
