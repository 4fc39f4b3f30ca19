package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	examAuth "github.com/MrEthical07/examAuth"
	"github.com/MrEthical07/examAuth/session"
)

const (
	// DefaultTimeout bounds a single remote call when no http.Client is supplied.
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries the per-call request id.
	RequestIDHeader = "X-Request-ID"

	apiPrefix        = "/api/v1/"
	maxResponseBytes = 4 << 20
)

// Envelope is the response wrapper used by every endpoint.
type Envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *EnvelopeError  `json:"error,omitempty"`
}

// EnvelopeError is the error member of a failed Envelope.
type EnvelopeError struct {
	Code    examAuth.ErrorCode `json:"code"`
	Message string             `json:"message"`
}

// Client talks to the platform over HTTP. The base URL can be swapped at any
// time with SetBaseURL; calls already in flight keep the old one.
type Client struct {
	mu      sync.RWMutex
	baseURL string

	http      *http.Client
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
}

var (
	_ examAuth.Transport     = (*Client)(nil)
	_ examAuth.BaseURLSetter = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. WithTimeout is ignored
// when this is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   DefaultTimeout,
		userAgent: "examauth",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// SetBaseURL points subsequent calls at baseURL.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.mu.Unlock()
}

// BaseURL returns the current base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) GenerateCaptcha(ctx context.Context, correlationID string) (*examAuth.CaptchaChallenge, error) {
	var out examAuth.CaptchaChallenge
	q := url.Values{"client_rid": []string{correlationID}}
	if err := c.do(ctx, "generate captcha", http.MethodGet, "captcha/generate", q, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req examAuth.LoginRequest) (*examAuth.LoginResult, error) {
	var out examAuth.LoginResult
	if err := c.do(ctx, "login", http.MethodPost, "user/login", nil, "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProfile(ctx context.Context, accessToken string) (*examAuth.UserProfile, error) {
	var out examAuth.UserProfile
	if err := c.do(ctx, "get profile", http.MethodGet, "user/me", nil, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReAuth renews the session identified by the (possibly expired) access token.
func (c *Client) ReAuth(ctx context.Context, accessToken string) (*session.Pair, error) {
	var out session.Pair
	if err := c.do(ctx, "reauth", http.MethodPost, "user/reAuth", nil, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, accessToken string, req examAuth.CreateUserRequest) (*examAuth.CreateUserResult, error) {
	var out examAuth.CreateUserResult
	if err := c.do(ctx, "create user", http.MethodPost, "user/create", nil, accessToken, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchUser(ctx context.Context, accessToken string, req examAuth.SearchUserRequest) (*examAuth.SearchUserResult, error) {
	var out examAuth.SearchUserResult
	if err := c.do(ctx, "search user", http.MethodPost, "user/search", nil, accessToken, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EditUser(ctx context.Context, accessToken string, req examAuth.EditUserRequest) (*examAuth.EditUserResult, error) {
	var out examAuth.EditUserResult
	if err := c.do(ctx, "edit user", http.MethodPost, "user/edit", nil, accessToken, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUserInfo(ctx context.Context, accessToken string, userID string) (*examAuth.UserInfo, error) {
	var out examAuth.UserInfo
	q := url.Values{"user_id": []string{userID}}
	if err := c.do(ctx, "get user info", http.MethodGet, "user/info", q, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, accessToken string, body, out any) error {
	endpoint := c.BaseURL() + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &examAuth.RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	requestID, ok := examAuth.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set(RequestIDHeader, requestID)
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("remote call failed", zap.String("op", op), zap.String("request_id", requestID), zap.Error(err))
		return &examAuth.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &examAuth.RemoteError{Op: op, Status: resp.StatusCode, Err: err}
	}
	c.logger.Debug("remote call",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &examAuth.RemoteError{Op: op, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("%s: %w: %v", op, examAuth.ErrProtocolViolation, err)
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		rerr := &examAuth.RemoteError{Op: op, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if env.Error != nil {
			rerr.Code = env.Error.Code
			rerr.Message = env.Error.Message
		}
		return rerr
	}

	if len(env.Result) == 0 || string(env.Result) == "null" {
		return fmt.Errorf("%s: %w: empty result", op, examAuth.ErrProtocolViolation)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, examAuth.ErrProtocolViolation, err)
	}
	return nil
}
