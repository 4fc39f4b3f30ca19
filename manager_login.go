package examAuth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/examAuth/permission"
	"github.com/MrEthical07/examAuth/session"
)

// Login authenticates with the platform and establishes a session.
//
// An empty req.CaptchaID uses the last challenge issued through
// RequestCaptcha; an empty req.ClientRID uses the manager's correlation id.
// Failures are classified as ErrInvalidCaptcha, ErrInvalidCredentials or
// ErrUnknown and leave the current session untouched. On success the token
// pair is persisted before it becomes visible, replacing any prior session.
func (m *SessionManager) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.CaptchaID == "" {
		req.CaptchaID, _ = m.captcha.last()
	}
	if req.ClientRID == "" {
		req.ClientRID = m.identity.CorrelationID()
	}

	start := time.Now()
	res, err := m.transport.Login(ctx, req)
	m.observeRemote(start)
	if err != nil {
		err = narrowRemote("login", classifyRemote("login", err),
			ErrInvalidCaptcha, ErrInvalidCredentials, ErrProtocolViolation)
		m.metrics.Inc(MetricLoginFailure)
		m.logger.Info("login rejected", zap.String("user_id", req.UserID), zap.Error(err))
		m.emitAudit(ctx, AuditLoginFailure, req.UserID, false, err, nil)
		return nil, err
	}
	if res == nil || !res.Pair().Complete() {
		m.metrics.Inc(MetricLoginFailure)
		m.metrics.Inc(MetricProtocolViolation)
		m.emitAudit(ctx, AuditLoginFailure, req.UserID, false, ErrProtocolViolation, nil)
		return nil, fmt.Errorf("login: %w: incomplete token pair", ErrProtocolViolation)
	}

	userID := res.UserID
	if userID == "" {
		userID = req.UserID
	}
	profile := &UserProfile{
		UserID:   userID,
		FullName: res.FullName,
		Role:     res.Role,
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.store.Save(ctx, res.Pair()); err != nil {
		m.metrics.Inc(MetricLoginFailure)
		m.metrics.Inc(MetricStoreFailure)
		m.logger.Error("persist session after login", zap.String("user_id", userID), zap.Error(err))
		m.emitAudit(ctx, AuditLoginFailure, userID, false, err, nil)
		return nil, fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.pair = res.Pair()
	m.role = res.Role
	m.profile = profile
	m.mu.Unlock()

	m.metrics.Inc(MetricLoginSuccess)
	m.logger.Info("login succeeded", zap.String("user_id", userID), zap.Stringer("role", res.Role))
	m.emitAudit(ctx, AuditLoginSuccess, userID, true, nil, map[string]string{"role": res.Role.String()})

	out := *res
	return &out, nil
}

// Logout forgets the session: memory first, then the store. The manager is
// anonymous afterwards even when the store fails; that failure is returned.
// Logging out while anonymous is a no-op apart from clearing the store.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	wasAuthenticated := m.pair.Complete()
	userID := ""
	if m.profile != nil {
		userID = m.profile.UserID
	}
	m.pair = session.Pair{}
	m.role = permission.RoleUnknown
	m.profile = nil
	m.mu.Unlock()

	m.metrics.Inc(MetricLogout)
	if err := m.store.Clear(ctx); err != nil {
		m.metrics.Inc(MetricStoreFailure)
		m.logger.Warn("clear persisted session", zap.String("user_id", userID), zap.Error(err))
		m.emitAudit(ctx, AuditLogout, userID, false, err, nil)
		return fmt.Errorf("clear persisted session: %w", err)
	}

	if wasAuthenticated {
		m.logger.Info("logged out", zap.String("user_id", userID))
	}
	m.emitAudit(ctx, AuditLogout, userID, true, nil, nil)
	return nil
}
