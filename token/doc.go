// Package token reads and issues the platform's JWT access tokens.
//
// The client treats tokens as opaque credentials: [Inspect] decodes claims WITHOUT
// verifying the signature and must only feed informational displays (expiry, subject).
// Authorization decisions never depend on it, and the session manager never refreshes
// proactively based on it.
//
// [Signer] issues and verifies HS256 tokens. It backs in-process test doubles of the
// platform; production tokens are issued by the platform itself.
package token
