package examAuth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/examAuth/identity"
	"github.com/MrEthical07/examAuth/permission"
	"github.com/MrEthical07/examAuth/session"
	"github.com/MrEthical07/examAuth/token"
)

// SessionManager owns the client's authenticated session: the token pair,
// the role and profile derived from it, and every transition between the
// anonymous and authenticated states.
//
// All methods are safe for concurrent use. Transitions that touch the store
// (login, refresh, logout) are serialized; the store is always written before
// the in-memory session changes.
type SessionManager struct {
	config    Config
	identity  *identity.Identity
	transport Transport
	store     session.Store
	policy    *permission.Policy
	logger    *zap.Logger
	metrics   *Metrics
	audit     *auditDispatcher
	captcha   *captchaTracker

	// writeMu serializes persisted transitions. It is taken before mu.
	writeMu sync.Mutex

	mu      sync.RWMutex
	pair    session.Pair
	role    permission.Role
	profile *UserProfile

	refreshGroup singleflight.Group
}

func (m *SessionManager) hydrate(ctx context.Context) error {
	pair, err := m.store.Load(ctx)
	if err != nil {
		m.metrics.Inc(MetricStoreFailure)
		return fmt.Errorf("load persisted session: %w", err)
	}
	if pair.Empty() {
		return nil
	}
	if !pair.Complete() {
		m.logger.Warn("ignoring partially persisted session",
			zap.Bool("has_access_token", pair.AccessToken != ""),
			zap.Bool("has_refresh_token", pair.RefreshToken != ""),
		)
		return nil
	}

	m.mu.Lock()
	m.pair = pair
	m.role = permission.RoleUnknown
	m.profile = nil
	m.mu.Unlock()

	m.logger.Info("session restored", zap.String("correlation_id", m.identity.CorrelationID()))
	m.emitAudit(ctx, AuditSessionRestored, "", true, nil, nil)
	return nil
}

// IsAuthenticated reports whether a complete token pair is held. The tokens
// are not validated.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.Complete()
}

// State returns StateAuthenticated when IsAuthenticated is true.
func (m *SessionManager) State() State {
	if m.IsAuthenticated() {
		return StateAuthenticated
	}
	return StateAnonymous
}

// Role returns the role learned from the last login or profile fetch.
// It is RoleUnknown after a restore until the profile is fetched.
func (m *SessionManager) Role() permission.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role
}

// Profile returns a copy of the cached profile, or nil.
func (m *SessionManager) Profile() *UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneProfile(m.profile)
}

func (m *SessionManager) Snapshot() SessionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := SessionSnapshot{
		AccessToken:  m.pair.AccessToken,
		RefreshToken: m.pair.RefreshToken,
		Role:         m.role,
		Profile:      cloneProfile(m.profile),
		State:        StateAnonymous,
	}
	if m.pair.Complete() {
		s.State = StateAuthenticated
	}
	return s
}

// Identity returns the resolved client identity.
func (m *SessionManager) Identity() *identity.Identity {
	return m.identity
}

// AccessTokenExpiry decodes the expiry of the held access token without
// verifying it. ok is false when anonymous or when the token carries no
// readable expiry.
func (m *SessionManager) AccessTokenExpiry() (time.Time, bool) {
	m.mu.RLock()
	raw := m.pair.AccessToken
	m.mu.RUnlock()
	if raw == "" {
		return time.Time{}, false
	}
	info, err := token.Inspect(raw)
	if err != nil || info.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return info.ExpiresAt, true
}

// CanManageUsers applies the access policy to the current role.
func (m *SessionManager) CanManageUsers() bool {
	return m.policy.CanManageUsers(m.Role())
}

// Policy returns the access policy the manager decides with.
func (m *SessionManager) Policy() *permission.Policy {
	return m.policy
}

// CanSearchUsers applies the access policy to the current role.
func (m *SessionManager) CanSearchUsers() bool {
	return m.policy.CanSearchUsers(m.Role())
}

// CanAssignRole reports whether the current role may create users with target.
func (m *SessionManager) CanAssignRole(target permission.Role) bool {
	return m.policy.CanAssignRole(m.Role(), target)
}

// ReresolveBasePath runs base-address resolution again and points the
// transport at the result when it supports BaseURLSetter.
func (m *SessionManager) ReresolveBasePath() string {
	base := m.identity.Reresolve()
	if setter, ok := m.transport.(BaseURLSetter); ok {
		setter.SetBaseURL(base)
	}
	m.logger.Debug("base path resolved", zap.String("base_path", base))
	return base
}

// MetricsSnapshot returns the manager's counters.
func (m *SessionManager) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (m *SessionManager) AuditDropped() uint64 {
	return m.audit.Dropped()
}

// Close flushes pending audit events. The session itself is left as is.
func (m *SessionManager) Close() {
	_ = m.Shutdown(context.Background())
}

// Shutdown is Close bounded by ctx. It returns ctx.Err() when audit events
// are still being delivered as ctx ends.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	err := m.audit.Close(ctx)
	_ = m.logger.Sync()
	return err
}

func (m *SessionManager) currentPair() session.Pair {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair
}

func (m *SessionManager) currentAuth() (session.Pair, permission.Role) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair, m.role
}

func (m *SessionManager) currentUserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile != nil {
		return m.profile.UserID
	}
	return ""
}

func (m *SessionManager) observeRemote(start time.Time) {
	m.metrics.Observe(MetricRemoteLatency, time.Since(start))
}

func (m *SessionManager) emitAudit(ctx context.Context, eventType, userID string, success bool, err error, metadata map[string]string) {
	if m.audit == nil {
		return
	}
	event := AuditEvent{
		EventType:     eventType,
		UserID:        userID,
		CorrelationID: m.identity.CorrelationID(),
		Success:       success,
		Metadata:      metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}
	m.audit.Emit(ctx, event)
}

func cloneProfile(p *UserProfile) *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
