// Package formerror turns service errors into field level messages a form can display.
package formerror

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ValidationError carries one or more field errors from the create service.
type ValidationError struct {
	Errors []models.FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	first := e.Errors[0]
	if first.Field == "" {
		return first.Message
	}
	return fmt.Sprintf("%s: %s", first.Field, first.Message)
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Errors: []models.FieldError{{Field: field, Message: message}}}
}

// FromValidator converts go-playground validation errors, or returns nil.
func FromValidator(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := &ValidationError{Errors: make([]models.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, models.FieldError{
			Field:   fieldPath(fe),
			Message: describe(fe),
		})
	}
	return out
}

type Translator struct {
	fallback string
}

func NewTranslator(fallback string) *Translator {
	if fallback == "" {
		fallback = "request failed"
	}
	return &Translator{fallback: fallback}
}

// Translate never returns an empty slice.
func (t *Translator) Translate(err error) []models.FieldError {
	if err == nil {
		return []models.FieldError{{Message: t.fallback}}
	}

	var verr *ValidationError
	if errors.As(err, &verr) && len(verr.Errors) > 0 {
		return verr.Errors
	}
	if verr := FromValidator(err); verr != nil && len(verr.Errors) > 0 {
		return verr.Errors
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return []models.FieldError{{Message: "the request timed out, please try again"}}
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown && st.Message() != "" {
		return []models.FieldError{{Message: st.Message()}}
	}
	return []models.FieldError{{Message: t.fallback}}
}

// fieldPath drops the struct name prefix: "ProductPayload.tags[0]" -> "tags[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url", "urls":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
