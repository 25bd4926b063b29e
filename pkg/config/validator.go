package config

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// toolNamePattern matches tool identifiers such as "search" or "web_fetch-v2".
var toolNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,63}$`)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("tool_name", validateToolName)
}

func validateToolName(fl validator.FieldLevel) bool {
	return toolNamePattern.MatchString(fl.Field().String())
}
