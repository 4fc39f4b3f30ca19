// Package examAuth is the client-side session manager for the ExamSphere
// platform: it logs a user in behind a captcha, keeps the access/refresh
// token pair in a pluggable store, renews it when the platform reports
// expiry, and gates user-management calls on the caller's role.
//
// A [SessionManager] is assembled with [Builder] and is safe to call from
// multiple goroutines after [Builder.Build]. Build restores a persisted
// token pair; the role and profile are not persisted and are learned again
// through [SessionManager.FetchCurrentProfile].
//
// # Architecture boundaries
//
// examAuth is the public surface. It exposes [SessionManager], [Builder],
// [Config], the [Transport] contract and its payload types. Persistence
// lives in the session package, role rules in permission, identity
// resolution in identity, and the HTTP wire format in transport/httpapi.
//
// # What this package must NOT do
//
//   - Validate tokens locally. Expiry is learned from the platform; the token
//     package only decodes claims for display.
//   - Log or audit token values.
//   - Import transport/httpapi or any package that re-imports examAuth.
//   - Log the user out on its own when a refresh fails.
package examAuth
