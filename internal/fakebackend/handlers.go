package fakebackend

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	examAuth "github.com/MrEthical07/examAuth"
	"github.com/MrEthical07/examAuth/permission"
	"github.com/MrEthical07/examAuth/session"
	"github.com/MrEthical07/examAuth/token"
)

const (
	principalKey       = "fake_principal"
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func (b *Backend) routes() {
	api := b.app.Group("/api/v1")

	api.Get("/captcha/generate", b.track(EndpointCaptcha), b.generateCaptcha)
	api.Post("/user/login", b.track(EndpointLogin), b.login)
	api.Post("/user/reAuth", b.track(EndpointReAuth), b.reAuth)

	api.Get("/user/me", b.track(EndpointMe), b.requireAuth, b.me)
	api.Post("/user/create", b.track(EndpointCreate), b.requireAuth, b.createUser)
	api.Post("/user/search", b.track(EndpointSearch), b.requireAuth, b.searchUser)
	api.Post("/user/edit", b.track(EndpointEdit), b.requireAuth, b.editUser)
	api.Get("/user/info", b.track(EndpointInfo), b.requireAuth, b.userInfo)
}

// track counts the request and applies injected delays and faults.
func (b *Backend) track(endpoint string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b.mu.Lock()
		b.calls[endpoint]++
		delay := b.delay[endpoint]
		var fault examAuth.ErrorCode
		injected := false
		if queued := b.faults[endpoint]; len(queued) > 0 {
			fault, injected = queued[0], true
			b.faults[endpoint] = queued[1:]
		}
		b.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if injected {
			return newAPIError(fault, statusForCode(fault), "injected failure")
		}
		return c.Next()
	}
}

func statusForCode(code examAuth.ErrorCode) int {
	switch code {
	case examAuth.CodeMalformedJWT, examAuth.CodeInvalidJWT, examAuth.CodeExpiredJWT,
		examAuth.CodeInvalidRefreshToken, examAuth.CodeInvalidUsernamePass, examAuth.CodeInvalidAuth:
		return http.StatusUnauthorized
	case examAuth.CodePermissionDenied:
		return http.StatusForbidden
	case examAuth.CodeUserNotFound:
		return http.StatusNotFound
	case examAuth.CodeUserAlreadyExists:
		return http.StatusConflict
	case examAuth.CodeInternalServerError, examAuth.CodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (b *Backend) requireAuth(c *fiber.Ctx) error {
	raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return errUnauthorized(examAuth.CodeMalformedJWT, "missing authorization header")
	}

	claims, err := b.signer.Verify(raw)
	switch {
	case errors.Is(err, token.ErrExpired):
		return errUnauthorized(examAuth.CodeInvalidJWT, "access token expired")
	case err != nil:
		return errUnauthorized(examAuth.CodeMalformedJWT, "invalid access token")
	}

	b.mu.Lock()
	rec, live := b.sessions[claims.ID]
	var user *userRecord
	if live {
		user = b.users[rec.userID]
	}
	var principal examAuth.UserInfo
	if user != nil {
		principal = user.info
	}
	b.mu.Unlock()

	if user == nil {
		return errUnauthorized(examAuth.CodeInvalidJWT, "session revoked")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func principalFrom(c *fiber.Ctx) examAuth.UserInfo {
	p, _ := c.Locals(principalKey).(examAuth.UserInfo)
	return p
}

func (b *Backend) issueSession(info examAuth.UserInfo) (session.Pair, time.Time, error) {
	jti := uuid.NewString()
	access, exp, err := b.signer.Issue(info.UserID, info.Role, jti)
	if err != nil {
		return session.Pair{}, time.Time{}, err
	}
	pair := session.Pair{AccessToken: access, RefreshToken: uuid.NewString()}

	b.mu.Lock()
	b.sessions[jti] = sessionRecord{userID: info.UserID, refreshToken: pair.RefreshToken}
	b.mu.Unlock()

	return pair, exp, nil
}

func (b *Backend) generateCaptcha(c *fiber.Ctx) error {
	rid := c.Query("client_rid")
	if rid == "" {
		return newAPIError(examAuth.CodeBodyRequired, http.StatusBadRequest, "client_rid required")
	}

	id := uuid.NewString()
	answer := newCaptchaAnswer()

	b.mu.Lock()
	b.captchas[id] = captchaRecord{answer: answer, clientRID: rid}
	b.mu.Unlock()

	return respond(c, examAuth.CaptchaChallenge{ID: id, Image: captchaImage(answer)})
}

func (b *Backend) login(c *fiber.Ctx) error {
	var req examAuth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody()
	}

	b.mu.Lock()
	challenge, found := b.captchas[req.CaptchaID]
	delete(b.captchas, req.CaptchaID)
	user := b.users[req.UserID]
	var info examAuth.UserInfo
	var password string
	if user != nil {
		info, password = user.info, user.password
	}
	b.mu.Unlock()

	if !found || challenge.answer != req.CaptchaAnswer || challenge.clientRID != req.ClientRID {
		return newAPIError(examAuth.CodeInvalidCaptcha, http.StatusBadRequest, "invalid captcha")
	}
	if user == nil || password != req.Password {
		return newAPIError(examAuth.CodeInvalidUsernamePass, http.StatusUnauthorized, "invalid username or password")
	}

	pair, exp, err := b.issueSession(info)
	if err != nil {
		return err
	}

	return respond(c, examAuth.LoginResult{
		UserID:       info.UserID,
		FullName:     info.FullName,
		Role:         info.Role,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Expiration:   exp.Unix(),
	})
}

// reAuth accepts an expired access token as long as its session is live,
// and rotates both tokens.
func (b *Backend) reAuth(c *fiber.Ctx) error {
	raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return errUnauthorized(examAuth.CodeInvalidAuth, "missing authorization header")
	}
	claims, err := b.signer.Verify(raw)
	if err != nil && !errors.Is(err, token.ErrExpired) {
		return errUnauthorized(examAuth.CodeInvalidAuth, "invalid access token")
	}

	b.mu.Lock()
	rec, live := b.sessions[claims.ID]
	delete(b.sessions, claims.ID)
	var info examAuth.UserInfo
	user := b.users[rec.userID]
	if user != nil {
		info = user.info
	}
	b.mu.Unlock()

	if !live || user == nil {
		return errUnauthorized(examAuth.CodeInvalidRefreshToken, "session not found")
	}

	pair, _, err := b.issueSession(info)
	if err != nil {
		return err
	}
	return respond(c, pair)
}

func (b *Backend) me(c *fiber.Ctx) error {
	p := principalFrom(c)
	return respond(c, examAuth.UserProfile{
		UserID:          p.UserID,
		FullName:        p.FullName,
		Email:           p.Email,
		Role:            p.Role,
		PrimaryLanguage: p.PrimaryLanguage,
		CreatedAt:       p.CreatedAt,
	})
}

func (b *Backend) createUser(c *fiber.Ctx) error {
	actor := principalFrom(c)

	var req examAuth.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody()
	}
	if req.UserID == "" || req.Password == "" {
		return newAPIError(examAuth.CodeBodyRequired, http.StatusBadRequest, "user_id and password required")
	}
	if req.Role == permission.RoleUnknown {
		req.Role = permission.RoleStudent
	}
	if !permission.CanAssignRole(actor.Role, req.Role) {
		return errForbidden()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[req.UserID]; exists {
		return newAPIError(examAuth.CodeUserAlreadyExists, http.StatusConflict, "user already exists")
	}
	b.users[req.UserID] = &userRecord{
		password: req.Password,
		info: examAuth.UserInfo{
			UserID:          req.UserID,
			FullName:        req.FullName,
			Email:           req.Email,
			Role:            req.Role,
			UserAddress:     req.UserAddress,
			PhoneNumber:     req.PhoneNumber,
			PrimaryLanguage: req.PrimaryLanguage,
			CreatedAt:       b.clock().UTC().Truncate(time.Second),
		},
	}

	return respond(c, examAuth.CreateUserResult{
		UserID:   req.UserID,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
	})
}

func (b *Backend) searchUser(c *fiber.Ctx) error {
	actor := principalFrom(c)
	if !permission.CanSearchUsers(actor.Role) {
		return errForbidden()
	}

	var req examAuth.SearchUserRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody()
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	query := strings.ToLower(strings.TrimSpace(req.Query))

	b.mu.Lock()
	matches := make([]examAuth.UserInfo, 0, len(b.users))
	for _, u := range b.users {
		if query == "" ||
			strings.Contains(strings.ToLower(u.info.UserID), query) ||
			strings.Contains(strings.ToLower(u.info.FullName), query) ||
			strings.Contains(strings.ToLower(u.info.Email), query) {
			matches = append(matches, u.info)
		}
	}
	b.mu.Unlock()

	slices.SortFunc(matches, func(x, y examAuth.UserInfo) int {
		return strings.Compare(x.UserID, y.UserID)
	})

	offset := min(max(req.Offset, 0), len(matches))
	end := min(offset+limit, len(matches))
	return respond(c, examAuth.SearchUserResult{Users: matches[offset:end]})
}

func (b *Backend) editUser(c *fiber.Ctx) error {
	actor := principalFrom(c)

	var req examAuth.EditUserRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody()
	}
	if req.UserID == "" {
		return newAPIError(examAuth.CodeBodyRequired, http.StatusBadRequest, "user_id required")
	}
	if req.UserID != actor.UserID && !permission.CanManageUsers(actor.Role) {
		return errForbidden()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[req.UserID]
	if !ok {
		return newAPIError(examAuth.CodeUserNotFound, http.StatusNotFound, "user not found")
	}
	if req.FullName != "" {
		u.info.FullName = req.FullName
	}
	if req.Email != "" {
		u.info.Email = req.Email
	}
	if req.UserAddress != "" {
		u.info.UserAddress = req.UserAddress
	}
	if req.PhoneNumber != "" {
		u.info.PhoneNumber = req.PhoneNumber
	}
	if req.PrimaryLanguage != "" {
		u.info.PrimaryLanguage = req.PrimaryLanguage
	}

	return respond(c, examAuth.EditUserResult{
		UserID:          u.info.UserID,
		FullName:        u.info.FullName,
		Email:           u.info.Email,
		Role:            u.info.Role,
		UserAddress:     u.info.UserAddress,
		PhoneNumber:     u.info.PhoneNumber,
		PrimaryLanguage: u.info.PrimaryLanguage,
	})
}

func (b *Backend) userInfo(c *fiber.Ctx) error {
	id := c.Query("user_id")
	if id == "" {
		return newAPIError(examAuth.CodeBodyRequired, http.StatusBadRequest, "user_id required")
	}

	b.mu.Lock()
	u, ok := b.users[id]
	var info examAuth.UserInfo
	if ok {
		info = u.info
	}
	b.mu.Unlock()

	if !ok {
		return newAPIError(examAuth.CodeUserNotFound, http.StatusNotFound, "user not found")
	}
	return respond(c, info)
}
