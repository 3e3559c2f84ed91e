package common

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
)

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger *log.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Printf("JSON エンコードに失敗: %v", err)
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse is the body of a successful mutation without a resource.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidCredentials, apperr.KindAlreadyVoted:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError は err を種別に応じたステータスで返す。500 の原因はログと Sentry にだけ残す。
func WriteError(logger *log.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err, "Server error")
	}
	status := StatusFor(appErr.Kind)

	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Printf("%s %s の処理に失敗: %v", r.Method, r.URL.Path, err)
		}
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
	}

	WriteJSON(logger, w, status, ErrorResponse{Message: appErr.Message, Error: appErr.Detail})
}
