package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report JSON field names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ErrBodyTooLarge is returned by DecodeJSON when the body exceeds the size limit.
var ErrBodyTooLarge = errors.New("request body too large")

// ErrTrailingData is returned by DecodeJSON when the body holds more than one JSON value.
var ErrTrailingData = errors.New("unexpected data after JSON value")

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"-"`
	Message string `json:"message"`
}

// ValidateStruct runs the `validate` tags of s and returns one entry per failure.
func ValidateStruct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Message: err.Error()}}
	}

	var fieldErrors []FieldError
	for _, fe := range validationErrors {
		field := fe.Field()
		tag := fe.Tag()

		var message string
		switch tag {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		fieldErrors = append(fieldErrors, FieldError{
			Field:   field,
			Tag:     tag,
			Message: message,
		})
	}

	return fieldErrors
}

// TypeError is returned by DecodeJSON when a field has the wrong JSON type.
type TypeError struct {
	Field string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("field %q has the wrong type", e.Field)
}

// DecodeJSON decodes a single JSON value from the request body into v.
// Oversized bodies yield ErrBodyTooLarge, type mismatches yield *TypeError
// and anything after the value other than whitespace yields ErrTrailingData.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return classifyDecodeError(err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return ErrBodyTooLarge
		}
		return ErrTrailingData
	}
	return nil
}

func classifyDecodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return ErrBodyTooLarge
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &TypeError{Field: typeErr.Field}
	}
	return err
}
