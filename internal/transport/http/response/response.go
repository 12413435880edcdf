// Package response writes the JSON envelopes shared by all handlers.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
)

const (
	MessageInternal     = "internal error"
	MessageNotFound     = "Not found"
	MessageForbidden    = "Forbidden"
	MessageConflict     = "The cart was changed by another request, please try again"
	MessageInvalidInput = "Invalid request"
)

// Failure is the body of every unsuccessful API response.
type Failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error sending response", "error", err)
	}
}

// OK writes {success: true, message} merged with the fields of payload.
// payload must encode to a JSON object or be nil.
func OK(w http.ResponseWriter, message string, payload any) {
	body := map[string]any{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			Error(w, err)
			return
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			Error(w, err)
			return
		}
	}
	body["success"] = true
	if message != "" {
		body["message"] = message
	}

	JSON(w, http.StatusOK, body)
}

// Fail writes a failure envelope.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Failure{Success: false, Message: message})
}

// BadRequest reports a body or query that could not be decoded. Like other
// caller mistakes it is answered with a 200 failure envelope.
func BadRequest(w http.ResponseWriter, err error) {
	slog.Debug("Error decoding request", "error", err)
	Fail(w, http.StatusOK, MessageInvalidInput)
}

// Error maps err onto a status and a caller-safe message.
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrStaleReference):
		Fail(w, http.StatusOK, errs.Message(err, MessageInvalidInput))
	case errors.Is(err, errs.ErrUnauthenticated):
		Fail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		Fail(w, http.StatusForbidden, MessageForbidden)
	case errors.Is(err, errs.ErrNotFound):
		Fail(w, http.StatusNotFound, MessageNotFound)
	case errors.Is(err, errs.ErrConcurrentModification):
		Fail(w, http.StatusConflict, MessageConflict)
	case errors.Is(err, errs.ErrUpstream):
		slog.Error("Upstream provider failed", "error", err)
		Fail(w, http.StatusInternalServerError, errs.Message(err, MessageInternal))
	default:
		slog.Error("Error handling request", "error", err)
		Fail(w, http.StatusInternalServerError, MessageInternal)
	}
}
