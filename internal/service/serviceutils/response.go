// Package serviceutils holds the JSON envelope every handler answers with.
package serviceutils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
)

// Response is the envelope: {success, message, data} or {success, message, error}.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ResponseSuccess writes a success envelope.
func ResponseSuccess(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// ResponseError writes a failure envelope with an explicit status. Server errors are logged.
func ResponseError(c echo.Context, status int, message string, err error) error {
	resp := Response{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorLog(c.Request().Context(), "%s: %v", message, err)
		// internals stay in the log
		resp.Error = http.StatusText(status)
	}
	return c.JSON(status, resp)
}

// Fail maps err onto its HTTP status and writes the failure envelope.
func Fail(c echo.Context, message string, err error) error {
	return ResponseError(c, StatusFor(err), message, err)
}

var statusTable = []struct {
	err    error
	status int
}{
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrAccountDeactivated, http.StatusForbidden},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrFormNotReachable, http.StatusForbidden},
	{domain.ErrDocumentLocked, http.StatusForbidden},
	{domain.ErrEmployeeNotFound, http.StatusNotFound},
	{domain.ErrFormNotFound, http.StatusNotFound},
	{domain.ErrDocumentNotFound, http.StatusNotFound},
	{domain.ErrEmailAlreadyExists, http.StatusConflict},
	{domain.ErrInvalidFormTransition, http.StatusConflict},
	{domain.ErrInvalidStageTransition, http.StatusConflict},
	{domain.ErrSignatureTooLarge, http.StatusRequestEntityTooLarge},
	{domain.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge},
	{domain.ErrInvalidEmail, http.StatusBadRequest},
	{domain.ErrInvalidPhone, http.StatusBadRequest},
	{domain.ErrInvalidPincode, http.StatusBadRequest},
	{domain.ErrInvalidDate, http.StatusBadRequest},
	{domain.ErrInvalidName, http.StatusBadRequest},
	{domain.ErrInvalidRole, http.StatusBadRequest},
	{domain.ErrInvalidStage, http.StatusBadRequest},
	{domain.ErrInvalidAccountStatus, http.StatusBadRequest},
	{domain.ErrInvalidHR, http.StatusBadRequest},
	{domain.ErrUnknownForm, http.StatusBadRequest},
	{domain.ErrInvalidFormStatus, http.StatusBadRequest},
	{domain.ErrRejectionReasonTooShort, http.StatusBadRequest},
	{domain.ErrUnknownDocumentType, http.StatusBadRequest},
	{domain.ErrWeakPassword, http.StatusBadRequest},
	{ErrBadRequest, http.StatusBadRequest},
}

// ErrBadRequest marks malformed input caught in handlers.
var ErrBadRequest = errors.New("bad request")

// StatusFor classifies err. Unclassified errors are 500.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	for _, row := range statusTable {
		if errors.Is(err, row.err) {
			return row.status
		}
	}
	return http.StatusInternalServerError
}

// HTTPErrorHandler renders errors returned from handlers and middleware with the envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := StatusFor(err)
	message := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = ResponseError(c, status, message, err)
}
