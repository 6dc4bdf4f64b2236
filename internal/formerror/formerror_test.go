package formerror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestTranslate(t *testing.T) {
	tr := NewTranslator("Could not recommend the product")

	tests := []struct {
		name string
		err  error
		want []models.FieldError
	}{
		{
			name: "validation error keeps every field",
			err: &ValidationError{Errors: []models.FieldError{
				{Field: "name", Message: "name is taken"},
				{Field: "website", Message: "website must be a valid URL"},
			}},
			want: []models.FieldError{
				{Field: "name", Message: "name is taken"},
				{Field: "website", Message: "website must be a valid URL"},
			},
		},
		{
			name: "wrapped validation error",
			err:  fmt.Errorf("create product: %w", Invalid("name", "name is taken")),
			want: []models.FieldError{{Field: "name", Message: "name is taken"}},
		},
		{
			name: "grpc status message",
			err:  status.Error(codes.PermissionDenied, "you cannot recommend products"),
			want: []models.FieldError{{Message: "you cannot recommend products"}},
		},
		{
			name: "timeout",
			err:  fmt.Errorf("post: %w", context.DeadlineExceeded),
			want: []models.FieldError{{Message: "the request timed out, please try again"}},
		},
		{
			name: "unknown error falls back",
			err:  errors.New("connection reset by peer"),
			want: []models.FieldError{{Message: "Could not recommend the product"}},
		},
		{
			name: "nil error falls back",
			err:  nil,
			want: []models.FieldError{{Message: "Could not recommend the product"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Translate(tt.err))
		})
	}
}

func TestFromValidator(t *testing.T) {
	payload := models.ProductPayload{
		Website: "not-a-url",
		Role:    "founder",
	}

	verr := FromValidator(validate.New().Validate(payload))
	require.NotNil(t, verr)

	assert.Equal(t, []models.FieldError{
		{Field: "name", Message: "name is required"},
		{Field: "website", Message: "website must be a valid URL"},
		{Field: "role", Message: "role must be one of: maker, hunter"},
	}, verr.Errors)
	assert.Equal(t, "name: name is required", verr.Error())
}

func TestFromValidatorIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FromValidator(errors.New("boom")))
}
