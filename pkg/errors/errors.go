package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Details []FieldError `json:"details,omitempty"`
	Err     error        `json:"-"`
}

// FieldError names one rejected request field and the rule it broke.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message,omitempty"`
}

var translator = newTranslator()

func newTranslator() ut.Translator {
	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	return trans
}

// Translator returns the English translator validation messages are rendered with.
func Translator() ut.Translator {
	return translator
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned sentinels still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Internal wraps err as an internal error with the given message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Validation wraps err as a validation error with the given message. Field
// failures reported by go-playground/validator are listed in Details.
func Validation(err error, message string) *Error {
	wrapped := Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		wrapped.Details = make([]FieldError, 0, len(fields))
		for _, fe := range fields {
			wrapped.Details = append(wrapped.Details, FieldError{
				Field:   fieldPath(fe.Namespace()),
				Rule:    fe.Tag(),
				Message: fieldMessage(fe),
			})
		}
	}
	return wrapped
}

// fieldMessage renders fe with the registered translation, or nothing when the
// validator that produced it has none.
func fieldMessage(fe validator.FieldError) string {
	msg := fe.Translate(translator)
	if msg == fe.Error() {
		return ""
	}
	return msg
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, found := strings.Cut(namespace, "."); found {
		return rest
	}
	return namespace
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrArchived           = New("SEMESTER_ARCHIVED", http.StatusPreconditionFailed, "semester is archived")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrPayloadTooLarge    = New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "payload too large")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
