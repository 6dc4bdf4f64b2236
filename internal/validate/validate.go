// Package validate holds the struct validator shared by the HTTP layer and the use cases.
package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var commonTags = []string{
	"json",
	"param",
	"query",
	"header",
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// report json names so field errors line up with the request payload
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range commonTags {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})

	validate.RegisterValidation("urls", func(fl validator.FieldLevel) bool {
		slice, ok := fl.Field().Interface().([]string)
		if !ok {
			return false
		}
		for _, s := range slice {
			if err := validate.Var(s, "url"); err != nil {
				return false
			}
		}
		return true
	})

	return &Validator{validate: validate}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}
