// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies an error for transport.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindDuplicateKey
	KindNotFound
	KindForbidden
	KindInvalidCredentials
	KindUnauthorized
	KindInvalidToken
	KindTokenExpired
	KindBusinessRule
)

var kindNames = map[Kind]string{
	KindServer:             "ServerError",
	KindValidation:         "ValidationError",
	KindDuplicateKey:       "DuplicateKey",
	KindNotFound:           "NotFound",
	KindForbidden:          "Forbidden",
	KindInvalidCredentials: "InvalidCredentials",
	KindUnauthorized:       "Unauthorized",
	KindInvalidToken:       "InvalidToken",
	KindTokenExpired:       "TokenExpired",
	KindBusinessRule:       "BusinessRule",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "ServerError"
}

// Status maps the kind to an HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindDuplicateKey, KindBusinessRule:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidCredentials, KindUnauthorized, KindInvalidToken, KindTokenExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so sentinels
// declared with New can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err without exposing it as the message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func BusinessRule(message string) *Error { return New(KindBusinessRule, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

// Invalid is a single-message validation error with no field list.
func Invalid(message string) *Error { return New(KindValidation, message) }

// Validation builds a validation error from a list of field failures.
func Validation(fields ...FieldError) *Error {
	msg := "Validation failed"
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Duplicate reports a unique-constraint violation on field.
func Duplicate(field string) *Error {
	return New(KindDuplicateKey, capitalize(field)+" already exists")
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindServer when it is unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindServer
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Value"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
