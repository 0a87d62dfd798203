// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// RESULT ENVELOPES:
// Every public service operation returns a Result[T] instead of (T, error).
// Expected failures (validation, not found, duplicate) are ordinary results with
// Success=false and a StatusCode, so no error value ever crosses into the
// handler layer. The handler writes the envelope as-is and mirrors StatusCode
// in the HTTP status line.
//
// Services receive repository interfaces, never a concrete store. Tests pass
// hand-written in-memory mocks (see mocks_test.go).
package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/tenxdev/internal/apperror"
)

// Result is the uniform envelope every service operation returns.
//
// Data uses omitzero rather than omitempty so a successful empty listing is
// still sent as "data": [].
type Result[T any] struct {
	Success    bool                  `json:"success"`
	Data       T                     `json:"data,omitzero"`
	Error      string                `json:"error,omitempty"`
	StatusCode int                   `json:"statusCode"`
	Count      *int                  `json:"count,omitempty"`
	Errors     []apperror.FieldError `json:"errors,omitempty"`
}

// Status implements the handler's envelope interface.
func (r Result[T]) Status() int {
	return r.StatusCode
}

// Deleted is the payload of a successful delete.
type Deleted struct {
	IDs   []string `json:"ids"`
	Count int      `json:"deleted"`
}

const internalErrorMessage = "internal server error"

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data, StatusCode: http.StatusOK}
}

func created[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data, StatusCode: http.StatusCreated}
}

func okCount[T any](data T, count int) Result[T] {
	r := ok(data)
	r.Count = &count
	return r
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k apperror.Kind) int {
	switch k {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// failure converts err into a failed Result.
//
// Kinds the caller can act on keep their message (and field errors). Anything
// else is logged with op and reported as a bare "internal server error" so no
// driver or SQL detail leaks to the client.
func failure[T any](logger *slog.Logger, op string, err error) Result[T] {
	kind := apperror.KindOf(err)
	r := Result[T]{StatusCode: StatusFor(kind)}

	if kind == apperror.KindInternal {
		logger.Error(op+" failed", slog.String("error", err.Error()))
		r.Error = internalErrorMessage
		return r
	}

	r.Error = err.Error()
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		r.Error = appErr.Message
	}
	if kind == apperror.KindValidation {
		r.Errors = apperror.FieldsOf(err)
	}
	return r
}
