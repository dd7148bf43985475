// Package validation decodes request bodies and checks them against
// declarative `validate` tags, producing field-level apperr errors.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/quillpost/core/internal/pkg/apperr"
)

// Normalizer is implemented by DTOs that trim or default their fields
// before validation.
type Normalizer interface {
	Normalize()
}

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.SetTagName("validate")
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validate = v
	})
	return validate
}

// BindJSON decodes the request body into dst and validates it. An empty body
// is treated as an empty object so required-field messages still apply.
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return decodeError(err)
	}
	return Struct(dst)
}

// Struct normalizes v when it knows how, then validates it.
func Struct(v interface{}) error {
	if n, ok := v.(Normalizer); ok {
		n.Normalize()
	}
	err := engine().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fe.Field(),
			Message: message(v, fe),
		})
	}
	return apperr.Validation(fields...)
}

func message(v interface{}, fe validator.FieldError) string {
	label := labelOf(v, fe)
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot be more than %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s cannot have more than %s items", label, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must have at least %s items", label, fe.Param())
	case "email":
		return "Please include a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

// labelOf reads the `label` tag of the failing field, falling back to the
// capitalized JSON name.
func labelOf(v interface{}, fe validator.FieldError) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if label := f.Tag.Get("label"); label != "" {
				return label
			}
		}
	}
	return capitalize(fe.Field())
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if i := strings.LastIndex(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return apperr.Validation(apperr.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be %s", capitalize(field), describe(typeErr.Type)),
		})
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperr.Invalid("Malformed JSON body")
	}
	return apperr.Invalid(err.Error())
}

func describe(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Bool:
		return "a boolean"
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int64, reflect.Float64:
		return "a number"
	default:
		return "an object"
	}
}

func capitalize(s string) string {
	if s == "" {
		return "Value"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
