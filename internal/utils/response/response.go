// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a user, a list, a message).
// Error responses always look like:
//
//	{ "status": "error", "error": "field name is required" }
//
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Message is the body of responses that only confirm an action.
type Message struct {
	Message string `json:"message"`
}

const StatusError = "error"

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ErrorMessage is GeneralError for a fixed client-facing message.
func ErrorMessage(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts a slice of validator.FieldError values into
// a single human-readable Response.
//
// Example output:
//
//	{ "status": "error", "error": "field name is required, field gender must be one of [male female]" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "oneof":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be one of [%s]", e.Field(), e.Param()))
		case "gte":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at least %s", e.Field(), e.Param()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}
