package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/examAuth/permission"
)

// ErrMalformed is returned when a token cannot be decoded as a JWT.
var ErrMalformed = errors.New("malformed token")

// AccessClaims is the claim set of a platform access token.
type AccessClaims struct {
	UserID string          `json:"uid"`
	Role   permission.Role `json:"role"`
	jwt.RegisteredClaims
}

// Info is the informational view of an access token.
type Info struct {
	UserID    string
	Role      permission.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's expiry is set and not after now.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !i.ExpiresAt.After(now)
}

// Inspect decodes raw without verifying its signature.
func Inspect(raw string) (Info, error) {
	if raw == "" {
		return Info{}, ErrMalformed
	}
	var claims AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return infoFromClaims(&claims), nil
}

func infoFromClaims(c *AccessClaims) Info {
	info := Info{
		UserID: c.UserID,
		Role:   c.Role,
	}
	if info.UserID == "" {
		info.UserID = c.Subject
	}
	if c.IssuedAt != nil {
		info.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		info.ExpiresAt = c.ExpiresAt.Time
	}
	return info
}
