// Package identity resolves the per-process client identity used by examAuth: a
// correlation id attached to captcha and login requests, and the remote base address.
//
// # Correlation id
//
// The correlation id lets the platform correlate retries from one client process. It is
// generated with math/rand/v2 and is NOT a secret: never use it as a credential, nonce, or
// any other security-sensitive identifier. If its role ever changes, switch
// [NewCorrelationID] to crypto/rand.
//
// # Base address
//
// [Resolver.Resolve] applies a fixed precedence: explicit override, then the embedding
// runtime's serving origin unless it is a local development port, then a hardcoded
// default. Trailing slashes are always stripped.
//
// # What this package must NOT do
//
//   - Perform I/O. Resolution reads only the values it is given.
//   - Import examAuth or any collaborator package.
package identity
