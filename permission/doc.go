// Package permission provides the platform role model and the access policy that gates
// user-management operations.
//
// # Roles
//
// [Role] is ordered partially: Owner dominates Admin, Admin dominates Teacher and
// Student, Teacher and Student are incomparable, and Unknown neither dominates nor is
// dominated by anything. An absent role is treated as Unknown and is always denied.
//
// # Capabilities
//
// Authorization is expressed as named capabilities registered in a [Registry] and
// granted to roles through a [Policy]. Each role's grants are a [Mask64]; the Owner role
// carries the root bit and therefore holds every registered capability.
//
// # Architecture boundaries
//
// This package is pure in-memory logic with no I/O and no side effects on evaluation.
// Every exported predicate is total over all Role values.
//
// # What this package must NOT do
//
//   - Access the network, the session store, or any transport.
//   - Import examAuth or session.
//   - Change the default policy after package initialization.
package permission
