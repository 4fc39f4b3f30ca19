package examAuth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/examAuth/permission"
)

// CreateUser creates a user on the platform.
//
// The current role must be allowed to assign the requested role, checked
// locally before any remote call. A zero req.Role requests RoleStudent.
// The role used for the check is the one from the last login or profile
// fetch, so after a restore FetchCurrentProfile must run first.
func (m *SessionManager) CreateUser(ctx context.Context, req CreateUserRequest) (*CreateUserResult, error) {
	pair, role := m.currentAuth()
	if !pair.Complete() {
		m.metrics.Inc(MetricNotAuthenticated)
		return nil, ErrNotAuthenticated
	}

	if req.Role == permission.RoleUnknown {
		req.Role = permission.RoleStudent
	}
	if !m.policy.CanAssignRole(role, req.Role) {
		m.metrics.Inc(MetricPermissionDenied)
		m.logger.Info("user creation denied by policy",
			zap.Stringer("role", role), zap.Stringer("target_role", req.Role))
		m.emitAudit(ctx, AuditPermissionDenied, m.currentUserID(), false, ErrPermissionDenied,
			map[string]string{"operation": "create_user", "target_role": req.Role.String()})
		return nil, fmt.Errorf("%w: %s may not assign %s", ErrPermissionDenied, role, req.Role)
	}

	start := time.Now()
	res, err := m.transport.CreateUser(ctx, pair.AccessToken, req)
	m.observeRemote(start)
	if err != nil {
		return nil, classifyRemote("create user", err)
	}
	if res == nil {
		m.metrics.Inc(MetricProtocolViolation)
		return nil, fmt.Errorf("create user: %w: empty result", ErrProtocolViolation)
	}

	m.metrics.Inc(MetricUserOperation)
	m.emitAudit(ctx, AuditUserCreated, m.currentUserID(), true, nil,
		map[string]string{"target_user_id": res.UserID, "target_role": res.Role.String()})
	return res, nil
}

// SearchUser runs a user search. Only a session is required locally; the
// platform enforces who may search.
func (m *SessionManager) SearchUser(ctx context.Context, req SearchUserRequest) (*SearchUserResult, error) {
	pair := m.currentPair()
	if !pair.Complete() {
		m.metrics.Inc(MetricNotAuthenticated)
		return nil, ErrNotAuthenticated
	}

	start := time.Now()
	res, err := m.transport.SearchUser(ctx, pair.AccessToken, req)
	m.observeRemote(start)
	if err != nil {
		return nil, classifyRemote("search user", err)
	}
	if res == nil {
		m.metrics.Inc(MetricProtocolViolation)
		return nil, fmt.Errorf("search user: %w: empty result", ErrProtocolViolation)
	}
	m.metrics.Inc(MetricUserOperation)
	return res, nil
}

// EditUser updates a user's editable fields.
func (m *SessionManager) EditUser(ctx context.Context, req EditUserRequest) (*EditUserResult, error) {
	pair := m.currentPair()
	if !pair.Complete() {
		m.metrics.Inc(MetricNotAuthenticated)
		return nil, ErrNotAuthenticated
	}

	start := time.Now()
	res, err := m.transport.EditUser(ctx, pair.AccessToken, req)
	m.observeRemote(start)
	if err != nil {
		return nil, classifyRemote("edit user", err)
	}
	if res == nil {
		m.metrics.Inc(MetricProtocolViolation)
		return nil, fmt.Errorf("edit user: %w: empty result", ErrProtocolViolation)
	}

	m.metrics.Inc(MetricUserOperation)
	m.emitAudit(ctx, AuditUserEdited, m.currentUserID(), true, nil,
		map[string]string{"target_user_id": res.UserID})
	return res, nil
}

// GetUserInfo fetches another user's record.
func (m *SessionManager) GetUserInfo(ctx context.Context, userID string) (*UserInfo, error) {
	pair := m.currentPair()
	if !pair.Complete() {
		m.metrics.Inc(MetricNotAuthenticated)
		return nil, ErrNotAuthenticated
	}

	start := time.Now()
	res, err := m.transport.GetUserInfo(ctx, pair.AccessToken, userID)
	m.observeRemote(start)
	if err != nil {
		return nil, classifyRemote("get user info", err)
	}
	if res == nil {
		m.metrics.Inc(MetricProtocolViolation)
		return nil, fmt.Errorf("get user info: %w: empty result", ErrProtocolViolation)
	}
	m.metrics.Inc(MetricUserOperation)
	return res, nil
}
