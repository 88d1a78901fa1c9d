package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"famspend/internal/chat"
	"famspend/internal/core"
	"famspend/internal/log"
)

const maxBodyBytes = 1 << 20

// errorEnvelope is the body of every non-2xx response.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Success: false, Code: code, Message: message})
}

// writeError maps err onto a status and the user-facing text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldErrorType, code, log.FieldError, err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldErrorType, code, log.FieldError, err)
	}
	writeErrorCode(w, status, code, message)
}

func classify(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, chat.ErrTurnInProgress):
		return http.StatusConflict, "turn_in_progress", err.Error()
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, "invalid_request", "message is required"
	case errors.Is(err, chat.ErrSessionNotFound), errors.Is(err, chat.ErrSessionClosed):
		return http.StatusNotFound, "not_found", chat.ErrSessionNotFound.Error()
	case errors.Is(err, chat.ErrSessionOwner):
		return http.StatusForbidden, "forbidden", err.Error()
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrMissingOwner),
		errors.Is(err, core.ErrMissingDate),
		errors.Is(err, core.ErrUnknownCategory):
		return http.StatusBadRequest, "invalid_request", err.Error()
	}

	text, code := chat.ErrorReply(err)
	switch code {
	case chat.CodeExtraction:
		return http.StatusUnprocessableEntity, code, text
	case chat.CodeNetwork:
		return http.StatusBadGateway, code, text
	case chat.CodeAuthExpired:
		return http.StatusUnauthorized, code, text
	case chat.CodeBackend:
		return http.StatusBadGateway, code, text
	default:
		return http.StatusInternalServerError, code, text
	}
}

// decodeJSON reads a size-capped JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
