package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sellerpanel/account-service/internal/core/domain"
)

const statusFailed = "FAILED"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Status  string                  `json:"status"`
	Error   string                  `json:"error"`
	Details []domain.FieldViolation `json:"details,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders {"status":"FAILED","error":"<message>","details":[...]}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	fail := func(msg string) errorResponse {
		return errorResponse{Status: statusFailed, Error: msg}
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fail(fmt.Sprintf("%v", he.Message))
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Status: statusFailed, Error: ve.Error(), Details: ve.Violations}
	}

	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, fail("email is already taken")
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict, fail("username is already taken")
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, fail("account already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, fail("invalid credentials")
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, fail("authentication required")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, fail("access forbidden")
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, fail("account not found")
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, fail("internal server error")
}
