package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the payload under "error" in failed responses.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data writes v wrapped in a {"data": ...} envelope.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// JSONError writes an {"error": ...} envelope.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]ErrorBody{"error": {Code: code, Message: message, Details: details}})
}

// WriteError renders err, hiding causes that are not AppErrors.
func WriteError(w http.ResponseWriter, err error) *AppError {
	appErr := AsAppError(err)
	JSONError(w, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
	return appErr
}
