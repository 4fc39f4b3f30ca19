// Package middleware exposes net/http guards for a local server (a desktop
// shell or a dev UI) that embeds an examAuth.SessionManager.
//
// # Guards
//
//   - [RequireSession] rejects requests while the manager is anonymous.
//   - [RequireManageUsers] and [RequireSearchUsers] apply the access policy
//     to the manager's current role.
//   - [RequireRole] admits an explicit set of roles.
//
// Every guard forwards the incoming X-Request-ID to the manager's remote
// calls through examAuth.WithRequestID and injects the session snapshot into
// the request context.
//
// # What this package must NOT do
//
//   - Read tokens from incoming requests. The session belongs to the manager,
//     not to the caller of the local server.
//   - Make policy decisions of its own; they are delegated to the manager.
package middleware
