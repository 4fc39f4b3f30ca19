package fakebackend

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	examAuth "github.com/MrEthical07/examAuth"
	"github.com/MrEthical07/examAuth/transport/httpapi"
)

// apiError is a coded failure rendered into the error envelope.
type apiError struct {
	Code    examAuth.ErrorCode
	Message string
	Status  int
}

func (e *apiError) Error() string {
	return e.Message
}

func newAPIError(code examAuth.ErrorCode, status int, message string) error {
	return &apiError{Code: code, Message: message, Status: status}
}

func errUnauthorized(code examAuth.ErrorCode, message string) error {
	return newAPIError(code, http.StatusUnauthorized, message)
}

func errForbidden() error {
	return newAPIError(examAuth.CodePermissionDenied, http.StatusForbidden, "permission denied")
}

func errBadBody() error {
	return newAPIError(examAuth.CodeInvalidBodyJSON, http.StatusBadRequest, "invalid body")
}

func toAPIError(err error) *apiError {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &apiError{Code: examAuth.CodeUnknown, Message: fiberErr.Message, Status: fiberErr.Code}
	}
	return &apiError{Code: examAuth.CodeInternalServerError, Message: "internal server error", Status: http.StatusInternalServerError}
}

func (b *Backend) errorHandler(c *fiber.Ctx, err error) error {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		b.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(apiErr.Status).JSON(httpapi.Envelope{
		Success: false,
		Error:   &httpapi.EnvelopeError{Code: apiErr.Code, Message: apiErr.Message},
	})
}

func respond(c *fiber.Ctx, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(httpapi.Envelope{Success: true, Result: data})
}
