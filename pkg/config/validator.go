package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("source_location", validateSourceLocation)
}

// validateSourceLocation accepts filesystem paths and s3://bucket/key URLs.
func validateSourceLocation(fl validator.FieldLevel) bool {
	location := strings.TrimSpace(fl.Field().String())
	if location == "" {
		return false
	}
	if !strings.HasPrefix(location, "s3://") {
		return true
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
	return ok && bucket != "" && key != "" && !strings.HasSuffix(key, "/")
}
