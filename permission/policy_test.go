package permission

import "testing"

func TestCanAssignRoleIsTotal(t *testing.T) {
	allowed := map[Role]map[Role]bool{
		RoleOwner: {RoleStudent: true, RoleTeacher: true, RoleAdmin: true, RoleOwner: true},
		RoleAdmin: {RoleStudent: true, RoleTeacher: true},
	}

	for _, actor := range append(AllRoles, Role(200)) {
		for _, target := range append(AllRoles, Role(200)) {
			want := allowed[actor][target]
			got := CanAssignRole(actor, target)
			if got != want {
				t.Fatalf("CanAssignRole(%s, %s) = %v, want %v", actor, target, got, want)
			}
			if again := CanAssignRole(actor, target); again != got {
				t.Fatalf("CanAssignRole(%s, %s) not deterministic", actor, target)
			}
		}
	}
}

func TestUserCapabilities(t *testing.T) {
	for _, r := range AllRoles {
		want := r == RoleOwner || r == RoleAdmin
		if got := CanManageUsers(r); got != want {
			t.Fatalf("CanManageUsers(%s) = %v, want %v", r, got, want)
		}
		if got := CanSearchUsers(r); got != want {
			t.Fatalf("CanSearchUsers(%s) = %v, want %v", r, got, want)
		}
	}
}

func TestCanEditUserField(t *testing.T) {
	for field, want := range map[string]bool{
		"user_id":   false,
		"role":      false,
		"full_name": true,
		"email":     true,
		"":          true,
	} {
		if got := CanEditUserField(field); got != want {
			t.Fatalf("CanEditUserField(%q) = %v, want %v", field, got, want)
		}
	}
}

func TestDefaultPolicyIsFrozen(t *testing.T) {
	if err := DefaultPolicy().Grant(RoleTeacher, CapManageUsers); err == nil {
		t.Fatal("expected grant on frozen default policy to fail")
	}
	if CanManageUsers(RoleTeacher) {
		t.Fatal("teacher gained user management")
	}
}

func TestPolicyRejectsUnknownRoleAndCapability(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Register("exams.grade"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	reg.Freeze()

	p := NewPolicy(reg)
	if err := p.Grant(RoleUnknown, "exams.grade"); err == nil {
		t.Fatal("expected grant to unknown role to fail")
	}
	if err := p.Grant(RoleTeacher, "exams.publish"); err == nil {
		t.Fatal("expected unregistered capability to fail")
	}
	if err := p.Grant(RoleTeacher, "exams.grade"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if !p.Allows(RoleTeacher, "exams.grade") {
		t.Fatal("teacher should be allowed to grade")
	}
	if p.Allows(RoleStudent, "exams.grade") {
		t.Fatal("student should not be allowed to grade")
	}
	if err := p.GrantRoot(RoleOwner); err != nil {
		t.Fatalf("grant root failed: %v", err)
	}
	if p.Allows(RoleOwner, "exams.publish") {
		t.Fatal("root must not cover unregistered capabilities")
	}

	var nilPolicy *Policy
	if nilPolicy.Allows(RoleOwner, "exams.grade") {
		t.Fatal("nil policy must deny")
	}
}
