package permission

import (
	"errors"
	"sync"
)

const (
	// CapManageUsers allows creating and editing platform users.
	CapManageUsers = "users.manage"
	// CapSearchUsers allows searching the user directory.
	CapSearchUsers = "users.search"

	assignCapabilityPrefix = "roles.assign."
)

// AssignCapability returns the capability name that allows assigning target to a user.
func AssignCapability(target Role) string {
	return assignCapabilityPrefix + target.String()
}

// Policy maps roles to capability masks over a frozen Registry.
type Policy struct {
	registry *Registry

	mu     sync.RWMutex
	masks  map[Role]Mask64
	frozen bool
}

// NewPolicy creates an empty Policy over registry. No role holds any capability until
// granted.
func NewPolicy(registry *Registry) *Policy {
	return &Policy{
		registry: registry,
		masks:    make(map[Role]Mask64),
	}
}

// Grant adds the named capabilities to role. RoleUnknown can never be granted anything.
func (p *Policy) Grant(role Role, capabilities ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen {
		return errors.New("policy frozen")
	}
	if !role.Valid() {
		return errors.New("cannot grant capabilities to unknown role")
	}

	mask := p.masks[role]
	for _, name := range capabilities {
		bit, ok := p.registry.Bit(name)
		if !ok {
			return errors.New("capability not registered: " + name)
		}
		mask = mask.With(bit)
	}
	p.masks[role] = mask
	return nil
}

// GrantRoot gives role every registered capability.
func (p *Policy) GrantRoot(role Role) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen {
		return errors.New("policy frozen")
	}
	if !role.Valid() {
		return errors.New("cannot grant capabilities to unknown role")
	}
	p.masks[role] = p.masks[role].With(RootBit)
	return nil
}

// Freeze prevents further grants.
func (p *Policy) Freeze() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frozen = true
}

// Mask returns the capability mask of role. Unknown and ungranted roles get 0.
func (p *Policy) Mask(role Role) Mask64 {
	if p == nil || !role.Valid() {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.masks[role]
}

// Allows reports whether role holds the named capability. Unregistered capabilities are
// denied even to root.
func (p *Policy) Allows(role Role, capability string) bool {
	if p == nil || p.registry == nil {
		return false
	}
	bit, ok := p.registry.Bit(capability)
	if !ok {
		return false
	}
	return p.Mask(role).Has(bit)
}

// CanManageUsers reports whether role may create or edit users.
func (p *Policy) CanManageUsers(role Role) bool {
	return p.Allows(role, CapManageUsers)
}

// CanSearchUsers reports whether role may search users.
func (p *Policy) CanSearchUsers(role Role) bool {
	return p.Allows(role, CapSearchUsers)
}

// CanAssignRole reports whether actor may give target to a user. RoleUnknown is never
// assignable.
func (p *Policy) CanAssignRole(actor, target Role) bool {
	if !target.Valid() {
		return false
	}
	return p.Allows(actor, AssignCapability(target))
}

var defaultPolicy = mustDefaultPolicy()

// DefaultPolicy returns the platform policy: Owner holds everything; Admin manages and
// searches users and may assign Teacher and Student; Teacher, Student and Unknown hold
// nothing.
func DefaultPolicy() *Policy {
	return defaultPolicy
}

func mustDefaultPolicy() *Policy {
	reg := NewRegistry()
	names := []string{CapManageUsers, CapSearchUsers}
	for _, r := range AllRoles {
		if r.Valid() {
			names = append(names, AssignCapability(r))
		}
	}
	for _, name := range names {
		if _, err := reg.Register(name); err != nil {
			panic(err)
		}
	}
	reg.Freeze()

	p := NewPolicy(reg)
	if err := p.GrantRoot(RoleOwner); err != nil {
		panic(err)
	}
	if err := p.Grant(RoleAdmin,
		CapManageUsers,
		CapSearchUsers,
		AssignCapability(RoleTeacher),
		AssignCapability(RoleStudent),
	); err != nil {
		panic(err)
	}
	p.Freeze()
	return p
}

// CanManageUsers reports whether role may manage users under the default policy.
func CanManageUsers(role Role) bool {
	return defaultPolicy.CanManageUsers(role)
}

// CanSearchUsers reports whether role may search users under the default policy.
func CanSearchUsers(role Role) bool {
	return defaultPolicy.CanSearchUsers(role)
}

// CanAssignRole reports whether actor may assign target under the default policy.
func CanAssignRole(actor, target Role) bool {
	return defaultPolicy.CanAssignRole(actor, target)
}

// CanEditUserField reports whether a user field may be changed through an edit request.
// The identifier and the role are immutable once a user exists.
func CanEditUserField(field string) bool {
	return field != "user_id" && field != "role"
}
