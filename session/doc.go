// Package session defines the persistence contract for the client's token pair and
// ships three implementations: [MemoryStore], [FileStore] and [RedisStore].
//
// # Contract
//
// A [Store] durably keeps exactly one [Pair] under two fixed keys
// ([KeyAccessToken], [KeyRefreshToken]). Save overwrites, Load returns the last saved
// pair (zero Pair when nothing is stored), Clear removes both values and is idempotent.
//
// Stores do not encrypt or integrity-check tokens. Callers must not assume either.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT interpret tokens, track roles, or decide
// whether a pair is still valid; the session manager enforces the pair invariant on load.
//
// # What this package must NOT do
//
//   - Import examAuth, permission, or any transport.
//   - Log or otherwise expose token values.
package session
