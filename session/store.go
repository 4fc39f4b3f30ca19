package session

import (
	"context"
	"errors"
)

const (
	// KeyAccessToken is the fixed record name of the access token.
	KeyAccessToken = "ExamSphere_accessToken"
	// KeyRefreshToken is the fixed record name of the refresh token.
	KeyRefreshToken = "ExamSphere_refreshToken"
)

// ErrStoreUnavailable wraps backend failures of a Store.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Pair is an access/refresh token pair. Empty strings mean absent.
type Pair struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Complete reports whether both tokens are present.
func (p Pair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Empty reports whether both tokens are absent.
func (p Pair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Store persists a single token pair.
type Store interface {
	// Save durably writes both tokens, replacing any previous pair.
	Save(ctx context.Context, pair Pair) error
	// Load returns the last saved pair, or a zero Pair if none is stored.
	Load(ctx context.Context) (Pair, error)
	// Clear removes both tokens. Clearing an empty store succeeds.
	Clear(ctx context.Context) error
}
