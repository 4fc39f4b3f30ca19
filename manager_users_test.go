package examAuth

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/examAuth/permission"
)

func createStub() *stubTransport {
	return &stubTransport{
		create: func(_ context.Context, _ string, req CreateUserRequest) (*CreateUserResult, error) {
			return &CreateUserResult{UserID: req.UserID, FullName: req.FullName, Role: req.Role}, nil
		},
	}
}

func TestCreateUserPolicy(t *testing.T) {
	cases := []struct {
		name    string
		actor   permission.Role
		target  permission.Role
		allowed bool
	}{
		{"admin creates owner", permission.RoleAdmin, permission.RoleOwner, false},
		{"admin creates admin", permission.RoleAdmin, permission.RoleAdmin, false},
		{"admin creates teacher", permission.RoleAdmin, permission.RoleTeacher, true},
		{"admin creates student", permission.RoleAdmin, permission.RoleStudent, true},
		{"owner creates owner", permission.RoleOwner, permission.RoleOwner, true},
		{"owner creates admin", permission.RoleOwner, permission.RoleAdmin, true},
		{"teacher creates student", permission.RoleTeacher, permission.RoleStudent, false},
		{"student creates student", permission.RoleStudent, permission.RoleStudent, false},
		{"unknown role after restore", permission.RoleUnknown, permission.RoleStudent, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := createStub()
			m, _ := authenticatedManager(t, tr, tc.actor)

			res, err := m.CreateUser(context.Background(), CreateUserRequest{UserID: "new", Password: "pw", Role: tc.target})
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if res.Role != tc.target {
					t.Fatalf("unexpected result %+v", res)
				}
				if tr.Calls("create") != 1 {
					t.Fatalf("expected one remote call, got %d", tr.Calls("create"))
				}
				return
			}
			if !errors.Is(err, ErrPermissionDenied) {
				t.Fatalf("expected ErrPermissionDenied, got %v", err)
			}
			if tr.totalCalls() != 0 {
				t.Fatalf("denied request reached the transport (%d calls)", tr.totalCalls())
			}
		})
	}
}

func TestCreateUserDefaultsToStudent(t *testing.T) {
	tr := createStub()
	m, _ := authenticatedManager(t, tr, permission.RoleAdmin)

	res, err := m.CreateUser(context.Background(), CreateUserRequest{UserID: "new", Password: "pw"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if res.Role != permission.RoleStudent || tr.lastCreate.Role != permission.RoleStudent {
		t.Fatalf("expected student default, got result %s sent %s", res.Role, tr.lastCreate.Role)
	}
}

func TestCreateUserDeniedCountsMetric(t *testing.T) {
	m, _ := authenticatedManager(t, createStub(), permission.RoleAdmin)
	_, _ = m.CreateUser(context.Background(), CreateUserRequest{UserID: "x", Role: permission.RoleOwner})
	if got := m.MetricsSnapshot().Counters[MetricPermissionDenied]; got != 1 {
		t.Fatalf("expected permission denied metric 1, got %d", got)
	}
}

func TestUserOperationsRequireSession(t *testing.T) {
	tr := createStub()
	m := buildTestManager(t, tr, nil)
	ctx := context.Background()

	if _, err := m.CreateUser(ctx, CreateUserRequest{UserID: "x"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("CreateUser: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := m.SearchUser(ctx, SearchUserRequest{Query: "a"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("SearchUser: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := m.EditUser(ctx, EditUserRequest{UserID: "x"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("EditUser: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := m.GetUserInfo(ctx, "x"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("GetUserInfo: expected ErrNotAuthenticated, got %v", err)
	}
	if tr.totalCalls() != 0 {
		t.Fatalf("expected no transport calls, got %d", tr.totalCalls())
	}
}

func TestUserOperationsPassThrough(t *testing.T) {
	tr := &stubTransport{
		search: func(_ context.Context, tok string, req SearchUserRequest) (*SearchUserResult, error) {
			if tok != "A1" {
				t.Errorf("unexpected token %q", tok)
			}
			return &SearchUserResult{Users: []UserInfo{{UserID: "bob"}}}, nil
		},
		edit: func(_ context.Context, _ string, req EditUserRequest) (*EditUserResult, error) {
			return &EditUserResult{UserID: req.UserID, FullName: req.FullName}, nil
		},
		info: func(_ context.Context, _ string, id string) (*UserInfo, error) {
			return &UserInfo{UserID: id, Role: permission.RoleTeacher}, nil
		},
	}
	m, _ := authenticatedManager(t, tr, permission.RoleTeacher)
	ctx := context.Background()

	found, err := m.SearchUser(ctx, SearchUserRequest{Query: "bo"})
	if err != nil || len(found.Users) != 1 {
		t.Fatalf("SearchUser: %+v, %v", found, err)
	}
	edited, err := m.EditUser(ctx, EditUserRequest{UserID: "bob", FullName: "Bob B"})
	if err != nil || edited.FullName != "Bob B" {
		t.Fatalf("EditUser: %+v, %v", edited, err)
	}
	info, err := m.GetUserInfo(ctx, "bob")
	if err != nil || info.UserID != "bob" {
		t.Fatalf("GetUserInfo: %+v, %v", info, err)
	}
}

func TestUserOperationsDoNotRefresh(t *testing.T) {
	tr := &stubTransport{
		search: func(context.Context, string, SearchUserRequest) (*SearchUserResult, error) {
			return nil, &RemoteError{Op: "search user", Code: CodeInvalidJWT}
		},
		info: func(context.Context, string, string) (*UserInfo, error) {
			return nil, &RemoteError{Op: "get user info", Code: CodePermissionDenied}
		},
	}
	m, _ := authenticatedManager(t, tr, permission.RoleAdmin)

	if _, err := m.SearchUser(context.Background(), SearchUserRequest{}); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if _, err := m.GetUserInfo(context.Background(), "bob"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if tr.Calls("reauth") != 0 {
		t.Fatal("user operations must not refresh")
	}
}

func TestUserOperationsEmptyResult(t *testing.T) {
	tr := &stubTransport{
		edit: func(context.Context, string, EditUserRequest) (*EditUserResult, error) { return nil, nil },
	}
	m, _ := authenticatedManager(t, tr, permission.RoleAdmin)
	if _, err := m.EditUser(context.Background(), EditUserRequest{UserID: "bob"}); !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("expected ErrProtocolViolation, got %v", err)
	}
}

func TestManagerPolicyAccessors(t *testing.T) {
	m, _ := authenticatedManager(t, &stubTransport{}, permission.RoleAdmin)
	if !m.CanManageUsers() || !m.CanSearchUsers() {
		t.Fatal("admin manages and searches users")
	}
	if m.CanAssignRole(permission.RoleAdmin) || !m.CanAssignRole(permission.RoleTeacher) {
		t.Fatal("admin assigns only teacher and student")
	}
}
