package permission

import "strings"

// Role is a platform user role.
type Role uint8

const (
	// RoleUnknown is the zero value and the decoding of any unrecognized role.
	RoleUnknown Role = iota
	// RoleStudent takes examinations.
	RoleStudent
	// RoleTeacher authors and grades examinations.
	RoleTeacher
	// RoleAdmin manages non-administrative users.
	RoleAdmin
	// RoleOwner owns the platform.
	RoleOwner
)

var roleNames = [...]string{
	RoleUnknown: "unknown",
	RoleStudent: "student",
	RoleTeacher: "teacher",
	RoleAdmin:   "admin",
	RoleOwner:   "owner",
}

// AllRoles lists every role including RoleUnknown, in declaration order.
var AllRoles = []Role{RoleUnknown, RoleStudent, RoleTeacher, RoleAdmin, RoleOwner}

// String returns the wire name of the role.
func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return roleNames[RoleUnknown]
}

// ParseRole decodes a wire name. Unrecognized names yield RoleUnknown.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent
	case "teacher":
		return RoleTeacher
	case "admin":
		return RoleAdmin
	case "owner":
		return RoleOwner
	default:
		return RoleUnknown
	}
}

// Valid reports whether r is a known role other than RoleUnknown.
func (r Role) Valid() bool {
	return r >= RoleStudent && r <= RoleOwner
}

// MarshalText encodes the role as its wire name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a wire name; it never fails.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}

// IsOwner reports whether r is RoleOwner.
func (r Role) IsOwner() bool { return r == RoleOwner }

// IsAdmin reports whether r is RoleAdmin.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsTeacher reports whether r is RoleTeacher.
func (r Role) IsTeacher() bool { return r == RoleTeacher }

// IsStudent reports whether r is RoleStudent.
func (r Role) IsStudent() bool { return r == RoleStudent }

// Dominates reports whether r is strictly above other in the role order.
// Teacher and Student are incomparable; Unknown is incomparable with every role.
func (r Role) Dominates(other Role) bool {
	if !r.Valid() || !other.Valid() {
		return false
	}
	switch r {
	case RoleOwner:
		return other != RoleOwner
	case RoleAdmin:
		return other == RoleTeacher || other == RoleStudent
	default:
		return false
	}
}
