package examAuth

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a session and none is held.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPermissionDenied is returned when the local access policy or the platform refuses an operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidCaptcha is returned when the platform rejects the captcha answer.
	ErrInvalidCaptcha = errors.New("invalid captcha")
	// ErrInvalidCredentials is returned when the platform rejects the user id or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenExpired is returned when the platform rejects the access token.
	ErrTokenExpired = errors.New("access token expired")
	// ErrRefreshFailed is returned when the session could not be renewed.
	ErrRefreshFailed = errors.New("session refresh failed")
	// ErrChallengeUnavailable is returned when a captcha request yields no usable challenge.
	ErrChallengeUnavailable = errors.New("captcha challenge unavailable")
	// ErrUnknown classifies every other remote failure.
	ErrUnknown = errors.New("unknown remote failure")
	// ErrProtocolViolation is returned when the transport reports success with an unusable payload.
	ErrProtocolViolation = errors.New("transport protocol violation")
	// ErrManagerNotReady is returned by Builder.Build when a required collaborator is missing.
	ErrManagerNotReady = errors.New("session manager not ready")
	// ErrConfigInvalid is returned by Config.Validate.
	ErrConfigInvalid = errors.New("invalid config")
)

// ErrorCode is the numeric error code carried by the platform's response envelope.
type ErrorCode int

// CodeUnknown marks a failure that carried no platform code (network errors,
// non-envelope responses).
const CodeUnknown ErrorCode = 0

const (
	CodeMalformedJWT ErrorCode = 2100 + iota
	CodeInvalidJWT
	CodeExpiredJWT
	CodeInvalidRefreshToken
	CodeInvalidCaptcha
	CodeInvalidUsernamePass
	CodeInvalidAuth
	CodeBodyRequired
	CodeInvalidBodyJSON
	CodeUserNotFound
	CodePermissionDenied
	CodeUserAlreadyExists
	CodeInternalServerError
)

// Sentinel returns the sentinel error the code is classified as.
func (c ErrorCode) Sentinel() error {
	switch c {
	case CodeInvalidJWT, CodeExpiredJWT:
		return ErrTokenExpired
	case CodeInvalidCaptcha:
		return ErrInvalidCaptcha
	case CodeInvalidUsernamePass:
		return ErrInvalidCredentials
	case CodePermissionDenied:
		return ErrPermissionDenied
	case CodeInvalidRefreshToken, CodeInvalidAuth:
		return ErrRefreshFailed
	default:
		return ErrUnknown
	}
}

// RemoteError is a failure reported by (or while reaching) the remote platform.
//
// errors.Is matches a RemoteError against the sentinel its Code classifies as,
// so callers can branch on ErrTokenExpired, ErrInvalidCaptcha and friends
// without inspecting codes. Err holds the underlying cause for transport
// failures and is reachable through errors.Unwrap.
type RemoteError struct {
	Op      string
	Code    ErrorCode
	Message string
	Status  int
	Err     error

	// Class, when set, replaces the classification derived from Code.
	Class error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code == CodeUnknown {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s: code %d: %s", e.Op, int(e.Code), msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel this error's code maps to.
func (e *RemoteError) Is(target error) bool {
	if e.Class != nil {
		return target == e.Class
	}
	return target == e.Code.Sentinel()
}

var classifiedErrors = []error{
	ErrNotAuthenticated,
	ErrPermissionDenied,
	ErrInvalidCaptcha,
	ErrInvalidCredentials,
	ErrTokenExpired,
	ErrRefreshFailed,
	ErrChallengeUnavailable,
	ErrUnknown,
	ErrProtocolViolation,
}

// classifyRemote leaves classified errors as they are and tags everything else
// as ErrUnknown while keeping the cause in the chain.
func classifyRemote(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range classifiedErrors {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &RemoteError{Op: op, Code: CodeUnknown, Err: err}
}

// narrowRemote keeps err when it matches one of allowed and reclassifies it as
// ErrUnknown otherwise. Code, message and status survive the reclassification.
func narrowRemote(op string, err error, allowed ...error) error {
	for _, a := range allowed {
		if errors.Is(err, a) {
			return err
		}
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		out := *remote
		out.Class = ErrUnknown
		return &out
	}
	return &RemoteError{Op: op, Message: err.Error(), Class: ErrUnknown}
}
