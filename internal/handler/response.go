package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"github.com/efreitasn/dex/internal/domain"
)

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error response with the given status code,
// error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes the request body as JSON into v.
// It validates that the Content-Type header is application/json and
// returns an error for missing/incorrect content type or malformed JSON.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	return nil
}

// statusByCode maps error codes from domain.Code to HTTP status codes.
var statusByCode = map[string]int{
	"validation_error":         http.StatusBadRequest,
	"unknown_token":            http.StatusNotFound,
	"duplicate_token":          http.StatusConflict,
	"quote_token_forbidden":    http.StatusUnprocessableEntity,
	"insufficient_balance":     http.StatusConflict,
	"insufficient_quote":       http.StatusConflict,
	"insufficient_base":        http.StatusConflict,
	"amount_overflow":          http.StatusUnprocessableEntity,
	"token_transfer_failed":    http.StatusConflict,
	"token_contract_not_found": http.StatusNotFound,
	"order_not_found":          http.StatusNotFound,
	"webhook_not_found":        http.StatusNotFound,
}

// writeDomainError maps a service error to its status code and writes the
// error body. Engine messages are passed through verbatim.
func writeDomainError(w http.ResponseWriter, err error) {
	code := domain.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	WriteError(w, status, code, err.Error())
}

// formatTime renders t in UTC with second precision.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// optionalDec renders an optional amount as a decimal string.
func optionalDec(v *uint256.Int) *string {
	if v == nil {
		return nil
	}
	s := v.Dec()
	return &s
}
