package web

// errors.go turns service errors into JSON responses.
//
// The error flow:
//  1. Handler receives an error from core.Service
//  2. Calls s.respondError(w, r, err)
//  3. statusFor picks the HTTP status from the wrapped sentinel
//  4. core.MapError supplies the operator message and support code
//  5. The technical error is logged with the request ID for correlation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/szamlaconv/internal/core"
	"github.com/JonMunkholm/szamlaconv/internal/logging"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// codeFileTooLarge is the MapError code for oversized uploads.
const codeFileTooLarge = "FILE003"

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), core.MapError(err).Code == codeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrUnknownField), errors.Is(err, core.ErrRowOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNotEditable), errors.Is(err, core.ErrNoData):
		return http.StatusConflict
	case errors.Is(err, core.ErrMissingRequiredValue),
		errors.Is(err, core.ErrMalformedDocument),
		errors.Is(err, core.ErrEncoding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRead):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its operator-facing form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   err.Error(),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
