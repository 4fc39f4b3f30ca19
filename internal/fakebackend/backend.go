package fakebackend

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	examAuth "github.com/MrEthical07/examAuth"
	"github.com/MrEthical07/examAuth/permission"
	"github.com/MrEthical07/examAuth/token"
)

// Endpoint names accepted by Calls and FailNext.
const (
	EndpointCaptcha = "captcha"
	EndpointLogin   = "login"
	EndpointMe      = "me"
	EndpointReAuth  = "reAuth"
	EndpointCreate  = "create"
	EndpointSearch  = "search"
	EndpointEdit    = "edit"
	EndpointInfo    = "info"
)

const defaultAccessTTL = 15 * time.Minute

// Options configures a Backend.
type Options struct {
	// Secret signs access tokens. Empty uses a fixed test secret.
	Secret []byte
	// AccessTTL is the access token lifetime. Zero means 15 minutes.
	AccessTTL time.Duration
	// Now is the base clock; Advance moves the backend ahead of it.
	Now    func() time.Time
	Logger *zap.Logger
}

type userRecord struct {
	info     examAuth.UserInfo
	password string
}

type captchaRecord struct {
	answer    string
	clientRID string
}

type sessionRecord struct {
	userID       string
	refreshToken string
}

// Backend is the fake platform. It is safe for concurrent use.
type Backend struct {
	app    *fiber.App
	signer *token.Signer
	logger *zap.Logger
	now    func() time.Time

	offset atomic.Int64

	mu       sync.Mutex
	users    map[string]*userRecord
	captchas map[string]captchaRecord
	sessions map[string]sessionRecord
	calls    map[string]int
	faults   map[string][]examAuth.ErrorCode
	delay    map[string]time.Duration
}

// New builds a Backend with no users.
func New(opts Options) (*Backend, error) {
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("fakebackend-test-secret-0123456789")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = defaultAccessTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	b := &Backend{
		logger:   opts.Logger,
		now:      opts.Now,
		users:    map[string]*userRecord{},
		captchas: map[string]captchaRecord{},
		sessions: map[string]sessionRecord{},
		calls:    map[string]int{},
		faults:   map[string][]examAuth.ErrorCode{},
		delay:    map[string]time.Duration{},
	}

	signer, err := token.NewSigner(opts.Secret, opts.AccessTTL,
		token.WithIssuer("examsphere-fake"),
		token.WithClock(b.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("fakebackend: %w", err)
	}
	b.signer = signer

	b.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          b.errorHandler,
	})
	b.routes()
	return b, nil
}

// App returns the fiber application, for serving on a real listener.
func (b *Backend) App() *fiber.App {
	return b.app
}

// RoundTripper routes requests into the app without a network listener.
func (b *Backend) RoundTripper() http.RoundTripper {
	return roundTripper{app: b.app}
}

// HTTPClient returns an http.Client bound to RoundTripper.
func (b *Backend) HTTPClient() *http.Client {
	return &http.Client{Transport: b.RoundTripper()}
}

type roundTripper struct {
	app *fiber.App
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	return rt.app.Test(req, -1)
}

func (b *Backend) clock() time.Time {
	return b.now().Add(time.Duration(b.offset.Load()))
}

// Advance moves the backend clock forward, e.g. past the access token TTL.
func (b *Backend) Advance(d time.Duration) {
	b.offset.Add(int64(d))
}

// AddUser registers a user that can log in with password.
func (b *Backend) AddUser(userID, password, fullName, email string, role permission.Role) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[userID] = &userRecord{
		password: password,
		info: examAuth.UserInfo{
			UserID:    userID,
			FullName:  fullName,
			Email:     email,
			Role:      role,
			CreatedAt: b.clock().UTC().Truncate(time.Second),
		},
	}
}

// User returns a registered user's record.
func (b *Backend) User(userID string) (examAuth.UserInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[userID]
	if !ok {
		return examAuth.UserInfo{}, false
	}
	return u.info, true
}

// CaptchaAnswer reveals the answer of a live challenge.
func (b *Backend) CaptchaAnswer(captchaID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.captchas[captchaID]
	return rec.answer, ok
}

// Calls returns how many requests reached endpoint.
func (b *Backend) Calls(endpoint string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[endpoint]
}

// FailNext makes the next request to endpoint fail with code.
func (b *Backend) FailNext(endpoint string, code examAuth.ErrorCode) {
	b.mu.Lock()
	b.faults[endpoint] = append(b.faults[endpoint], code)
	b.mu.Unlock()
}

// SetDelay delays every request to endpoint by d.
func (b *Backend) SetDelay(endpoint string, d time.Duration) {
	b.mu.Lock()
	b.delay[endpoint] = d
	b.mu.Unlock()
}

// ActiveSessions returns the number of live sessions.
func (b *Backend) ActiveSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func newCaptchaAnswer() string {
	return fmt.Sprintf("%04d", rand.IntN(10000))
}

func captchaImage(answer string) string {
	return base64.StdEncoding.EncodeToString([]byte("captcha:" + answer))
}
