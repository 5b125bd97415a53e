package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/DhruvilJayani/coursecompass/internal/service/auth"
)

// Stable machine readable error codes.
const (
	codeUnprocessable    = "UNPROCESSABLE_ENTITY"
	codeFieldsRequired   = "ALL_FIELDS_REQUIRED"
	codeUserExists       = "USER_ALREADY_EXISTS"
	codeUserNotFound     = "USER_NOT_FOUND"
	codeInvalidCreds     = "INVALID_CREDENTIALS"
	codeUnauthorized     = "UNAUTHORIZED"
	codeInternal         = "INTERNAL_EXCEPTION"
	codeRateLimited      = "RATE_LIMITED"
	codeChatUnavailable  = "CHAT_UNAVAILABLE"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

type errorBody struct {
	Message    string   `json:"message"`
	ErrorCode  string   `json:"errorCode"`
	StatusCode int      `json:"statusCode"`
	Fields     []string `json:"fields,omitempty"`
}

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error body carrying message, code and status.
func writeError(w http.ResponseWriter, status int, code, msg string, fields ...string) {
	writeJSON(w, status, errorBody{Message: msg, ErrorCode: code, StatusCode: status, Fields: fields})
}

// writeAuthError maps an auth service failure to its fixed status and code.
func writeAuthError(w http.ResponseWriter, err error) {
	authErr, ok := auth.AsError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternal, auth.MsgInternal)
		return
	}
	status, code := authErrorStatus(authErr)
	writeError(w, status, code, authErr.Message, authErr.Fields...)
}

func authErrorStatus(err *auth.Error) (int, string) {
	switch err.Kind {
	case auth.KindValidation:
		if err.Missing {
			return http.StatusBadRequest, codeFieldsRequired
		}
		return http.StatusUnprocessableEntity, codeUnprocessable
	case auth.KindConflict:
		return http.StatusBadRequest, codeUserExists
	case auth.KindNotFound:
		return http.StatusNotFound, codeUserNotFound
	case auth.KindInvalidCredentials:
		return http.StatusBadRequest, codeInvalidCreds
	case auth.KindInvalidToken:
		return http.StatusUnauthorized, codeUnauthorized
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
