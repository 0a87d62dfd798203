package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// Each case is one struct in a slice; the assertion logic is written once and
// t.Run gives every case its own name in the output.

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("card", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Invalid wraps ErrValidation",
			err:       Invalid([]FieldError{{Field: "screens", Message: "required"}}),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "AlreadyExists wraps ErrConflict",
			err:       AlreadyExists("item already saved"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("token required"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("card", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindInternal},
		{"plain error", errors.New("boom"), KindInternal},
		{"not found", NotFound("card", "x"), KindNotFound},
		{"wrapped not found", fmt.Errorf("sqlstore: %w", NotFound("card", "x")), KindNotFound},
		{"validation", ValidationFailed("title", "required"), KindValidation},
		{"conflict", Conflict("saved item", "x"), KindConflict},
		{"forbidden", Forbidden("admin only"), KindForbidden},
		{"unauthorized", Unauthorized("no token"), KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("card", "abc123"),
			wantMessage: "card not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Conflict message includes resource and id",
			err:         Conflict("card", "abc123"),
			wantMessage: "card conflict with id abc123",
		},
		{
			name: "Invalid summarises the first violation",
			err: Invalid([]FieldError{
				{Field: "title", Message: "title is required"},
				{Field: "screens", Message: "at least one screen is required"},
			}),
			wantMessage: "title: title is required (and 1 more)",
		},
		{
			name:        "Invalid with no fields",
			err:         Invalid(nil),
			wantMessage: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("card", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("screens[0].name", "screen name must be a string")

	if err.Field != "screens[0].name" {
		t.Errorf("Field = %q, want %q", err.Field, "screens[0].name")
	}
	if len(err.Fields) != 1 {
		t.Fatalf("len(Fields) = %d, want 1", len(err.Fields))
	}
}

func TestFieldsOf(t *testing.T) {
	fields := []FieldError{{Field: "title", Message: "required"}}
	wrapped := fmt.Errorf("creating card: %w", Invalid(fields))

	got := FieldsOf(wrapped)
	if len(got) != 1 || got[0].Field != "title" {
		t.Errorf("FieldsOf() = %+v, want %+v", got, fields)
	}

	if FieldsOf(errors.New("plain")) != nil {
		t.Error("FieldsOf() on a plain error should be nil")
	}
}

func TestPrefix(t *testing.T) {
	got := Prefix("[3]", []FieldError{
		{Field: "title", Message: "required"},
		{Field: "screens[0].blocks[1].order", Message: "must be a number"},
	})

	want := []string{"[3].title", "[3].screens[0].blocks[1].order"}
	for i, w := range want {
		if got[i].Field != w {
			t.Errorf("Prefix()[%d].Field = %q, want %q", i, got[i].Field, w)
		}
	}
}
