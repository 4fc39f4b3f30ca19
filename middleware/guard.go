package middleware

import (
	"context"
	"net/http"

	examAuth "github.com/MrEthical07/examAuth"
	"github.com/MrEthical07/examAuth/permission"
)

const requestIDHeader = "X-Request-ID"

type sessionContextKey struct{}

// SessionFromContext returns the snapshot injected by a guard.
func SessionFromContext(ctx context.Context) (examAuth.SessionSnapshot, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(examAuth.SessionSnapshot)
	return s, ok
}

// RequireSession admits requests only while the manager is authenticated.
func RequireSession(m *examAuth.SessionManager) func(http.Handler) http.Handler {
	return guard(m, func(examAuth.SessionSnapshot) bool { return true })
}

// RequireManageUsers admits requests when the snapshot's role may manage users
// under the manager's policy.
func RequireManageUsers(m *examAuth.SessionManager) func(http.Handler) http.Handler {
	return guard(m, func(s examAuth.SessionSnapshot) bool { return m.Policy().CanManageUsers(s.Role) })
}

// RequireSearchUsers admits requests when the snapshot's role may search users
// under the manager's policy.
func RequireSearchUsers(m *examAuth.SessionManager) func(http.Handler) http.Handler {
	return guard(m, func(s examAuth.SessionSnapshot) bool { return m.Policy().CanSearchUsers(s.Role) })
}

// RequireRole admits requests when the current role is one of roles.
func RequireRole(m *examAuth.SessionManager, roles ...permission.Role) func(http.Handler) http.Handler {
	return guard(m, func(s examAuth.SessionSnapshot) bool {
		for _, r := range roles {
			if s.Role == r {
				return true
			}
		}
		return false
	})
}

func guard(m *examAuth.SessionManager, allow func(examAuth.SessionSnapshot) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			snap := m.Snapshot()
			if snap.State != examAuth.StateAuthenticated {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !allow(snap) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, snap)
			if id := r.Header.Get(requestIDHeader); id != "" {
				ctx = examAuth.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
