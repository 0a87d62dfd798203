package handler

// RESPONSE HELPERS:
// Every response from the API is the same JSON envelope:
//
//	{"success": true,  "data": {...}, "statusCode": 200, "count": 42}
//	{"success": false, "error": "card not found with id abc", "statusCode": 404}
//	{"success": false, "error": "title: title is required", "statusCode": 400,
//	 "errors": [{"field": "title", "message": "title is required"}]}
//
// The services already return that envelope (service.Result), so most
// handlers just call writeResult. writeError covers the failures that happen
// before a service is reached: unreadable bodies and malformed query strings.
//
// The HTTP status line always mirrors "statusCode".

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/tenxdev/internal/apperror"
	"github.com/sakif/tenxdev/internal/service"
)

// MaxBodyBytes caps every request body. A bulk create of MaxBulkSize cards
// fits comfortably.
const MaxBodyBytes = 4 << 20

// envelope is implemented by every service.Result instantiation.
type envelope interface {
	Status() int
}

// ErrorResponse is the envelope for failures raised in the handler itself.
type ErrorResponse struct {
	Success    bool                  `json:"success"`
	Error      string                `json:"error"`
	StatusCode int                   `json:"statusCode"`
	Errors     []apperror.FieldError `json:"errors,omitempty"`
}

// writeJSON sends data with the given status.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body is written; once Encode
// writes, any header change is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// The status is already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeResult sends a service envelope with its own status code.
func writeResult(w http.ResponseWriter, res envelope) {
	writeJSON(w, res.Status(), res)
}

// writeError maps err to an envelope the same way the services do.
// Only apperror kinds keep their message; anything else is a bare 500.
func writeError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	resp := ErrorResponse{StatusCode: service.StatusFor(kind)}

	var appErr *apperror.AppError
	switch {
	case kind == apperror.KindInternal:
		slog.Error("unhandled handler error", slog.String("error", err.Error()))
		resp.Error = "internal server error"
	case errors.As(err, &appErr):
		resp.Error = appErr.Message
		resp.Errors = appErr.Fields
	default:
		resp.Error = err.Error()
	}
	writeJSON(w, resp.StatusCode, resp)
}

// readBody reads the whole request body, bounded by MaxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apperror.ValidationFailed("body", fmt.Sprintf("request body must be at most %d bytes", tooBig.Limit))
		}
		return nil, apperror.ValidationFailed("body", "request body could not be read")
	}
	return body, nil
}

// decodeJSON decodes the request body into v. Numbers are kept as
// json.Number when v holds interface values.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := unmarshalNumbers(body, v); err != nil {
		return apperror.ValidationFailed("body", "request body must be valid JSON of the expected shape")
	}
	return nil
}

func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// queryInt parses an optional integer query parameter. Absent is (nil, nil).
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return &n, nil
}
