package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusFor(err))
//  3. Error is mapped via core.MapError to get a user-friendly message
//  4. Technical error + context is logged with the request ID
//  5. User message is written as JSON

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/JonMunkholm/estoque-sync/internal/logging"
	"github.com/JonMunkholm/estoque-sync/internal/source"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"erro"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	log := logger.Warn
	if statusCode >= http.StatusInternalServerError {
		log = logger.Error
	}
	log("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	respondErrorJSON(w, userMsg, detail(err, userMsg), statusCode)
}

// writeError responds with a fixed message, for failures raised by the web
// layer itself.
func writeError(w http.ResponseWriter, status int, code, message string) {
	respondErrorJSON(w, core.UserMessage{Message: message, Code: code}, message, status)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, detail string, statusCode int) {
	if statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Status:  statusFailure,
		Error:   detail,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// detail is the client-facing error text. Validation problems are echoed
// so the caller can fix the body; anything else stays generic.
func detail(err error, msg core.UserMessage) string {
	var ve core.ValidationError
	var ee *core.ExtractionError
	switch {
	case errors.Is(err, errInvalidBody), errors.As(err, &ve), errors.As(err, &ee):
		return err.Error()
	case errors.Is(err, source.ErrUnsupportedFile):
		return err.Error()
	}
	return msg.Message
}

// statusFor picks the HTTP status for an error returned by the service.
func statusFor(err error) int {
	var ve core.ValidationError
	var ee *core.ExtractionError
	switch {
	case errors.Is(err, errInvalidBody), errors.As(err, &ve), errors.As(err, &ee):
		return http.StatusUnprocessableEntity
	case errors.Is(err, source.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrRemoteDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
