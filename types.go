package examAuth

import (
	"context"
	"time"

	"github.com/MrEthical07/examAuth/permission"
	"github.com/MrEthical07/examAuth/session"
)

// Transport is the remote platform as seen by the session manager.
//
// Implementations report coded platform failures as *RemoteError and must
// honour ctx for cancellation. A nil result with a nil error is treated as a
// protocol violation by the manager.
type Transport interface {
	GenerateCaptcha(ctx context.Context, correlationID string) (*CaptchaChallenge, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	GetProfile(ctx context.Context, accessToken string) (*UserProfile, error)
	ReAuth(ctx context.Context, accessToken string) (*session.Pair, error)
	CreateUser(ctx context.Context, accessToken string, req CreateUserRequest) (*CreateUserResult, error)
	SearchUser(ctx context.Context, accessToken string, req SearchUserRequest) (*SearchUserResult, error)
	EditUser(ctx context.Context, accessToken string, req EditUserRequest) (*EditUserResult, error)
	GetUserInfo(ctx context.Context, accessToken string, userID string) (*UserInfo, error)
}

// BaseURLSetter is implemented by transports whose target address can be
// swapped after construction. The manager pushes the resolved base path into
// such transports on Build and on ReresolveBasePath.
type BaseURLSetter interface {
	SetBaseURL(baseURL string)
}

// State is the externally visible session state.
type State uint8

const (
	// StateAnonymous means no token pair is held.
	StateAnonymous State = iota
	// StateAuthenticated means a complete token pair is held. The tokens are
	// not validated locally.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// CaptchaChallenge is a captcha issued by the platform. Image is base64.
type CaptchaChallenge struct {
	ID    string `json:"captcha_id"`
	Image string `json:"captcha"`
}

// LoginRequest carries the credentials and captcha answer for a login.
// An empty CaptchaID falls back to the last issued captcha and an empty
// ClientRID to the manager's correlation id.
type LoginRequest struct {
	UserID        string `json:"user_id"`
	Password      string `json:"password"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
	ClientRID     string `json:"client_rid"`
}

// LoginResult is the platform's answer to a successful login.
type LoginResult struct {
	UserID       string          `json:"user_id"`
	FullName     string          `json:"full_name"`
	Role         permission.Role `json:"role"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Expiration   int64           `json:"expiration,omitempty"`
}

// Pair returns the token pair carried by the result.
func (r *LoginResult) Pair() session.Pair {
	return session.Pair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

// UserProfile is the current user's profile as returned by the platform.
type UserProfile struct {
	UserID          string          `json:"user_id"`
	FullName        string          `json:"full_name"`
	Email           string          `json:"email,omitempty"`
	Role            permission.Role `json:"role"`
	PrimaryLanguage string          `json:"primary_language,omitempty"`
	CreatedAt       time.Time       `json:"created_at,omitempty"`
}

// CreateUserRequest describes a user to create. A zero Role means the
// platform default, Student.
type CreateUserRequest struct {
	UserID          string          `json:"user_id"`
	FullName        string          `json:"full_name"`
	Email           string          `json:"email"`
	Password        string          `json:"password"`
	Role            permission.Role `json:"role"`
	UserAddress     string          `json:"user_address,omitempty"`
	PhoneNumber     string          `json:"phone_number,omitempty"`
	PrimaryLanguage string          `json:"primary_language,omitempty"`
}

// CreateUserResult is the created user.
type CreateUserResult struct {
	UserID   string          `json:"user_id"`
	FullName string          `json:"full_name"`
	Email    string          `json:"email"`
	Role     permission.Role `json:"role"`
}

// SearchUserRequest is a paged user search.
type SearchUserRequest struct {
	Query  string `json:"query"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// SearchUserResult holds one page of matching users.
type SearchUserResult struct {
	Users []UserInfo `json:"users"`
}

// EditUserRequest updates the editable fields of a user. UserID selects the
// user and is never changed; see permission.CanEditUserField.
type EditUserRequest struct {
	UserID          string `json:"user_id"`
	FullName        string `json:"full_name,omitempty"`
	Email           string `json:"email,omitempty"`
	UserAddress     string `json:"user_address,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	PrimaryLanguage string `json:"primary_language,omitempty"`
}

// EditUserResult is the user after the edit.
type EditUserResult struct {
	UserID          string          `json:"user_id"`
	FullName        string          `json:"full_name"`
	Email           string          `json:"email"`
	Role            permission.Role `json:"role"`
	UserAddress     string          `json:"user_address,omitempty"`
	PhoneNumber     string          `json:"phone_number,omitempty"`
	PrimaryLanguage string          `json:"primary_language,omitempty"`
}

// UserInfo is another user's public record.
type UserInfo struct {
	UserID          string          `json:"user_id"`
	FullName        string          `json:"full_name"`
	Email           string          `json:"email"`
	Role            permission.Role `json:"role"`
	UserAddress     string          `json:"user_address,omitempty"`
	PhoneNumber     string          `json:"phone_number,omitempty"`
	PrimaryLanguage string          `json:"primary_language,omitempty"`
	CreatedAt       time.Time       `json:"created_at,omitempty"`
	IsBanned        bool            `json:"is_banned,omitempty"`
}

// SessionSnapshot is a point-in-time copy of the in-memory session.
// Role and Profile are derived from the last login or profile fetch and may
// lag behind the tokens.
type SessionSnapshot struct {
	AccessToken  string
	RefreshToken string
	Role         permission.Role
	Profile      *UserProfile
	State        State
}
