package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	return s != "" && len(s) <= 320 && validate.Var(s, "email") == nil
}

func validRedirect(s string) bool {
	return validate.Var(s, "http_url") == nil
}
