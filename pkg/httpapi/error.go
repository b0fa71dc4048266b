package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/opdesk-io/opdesk/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteServiceError maps a coded service error onto an HTTP response.
// Unrecognized errors become an opaque 500 so internals never leak.
func WriteServiceError(w http.ResponseWriter, err error) error {
	var base *serrors.Base
	if errors.As(err, &base) {
		return WriteError(w, StatusFor(base.Code), base.Code, base.Message, nil)
	}
	return WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
}

func StatusFor(code string) int {
	switch {
	case code == "NOT_FOUND":
		return http.StatusNotFound
	case code == "UNAUTHORIZED":
		return http.StatusUnauthorized
	case code == "FORBIDDEN":
		return http.StatusForbidden
	case strings.HasPrefix(code, "CONFLICT"):
		return http.StatusConflict
	case strings.HasPrefix(code, "VALIDATION"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
