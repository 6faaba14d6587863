// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("notblank", validateNotBlank)
		_ = v.RegisterValidation("trip_status", validateTripStatus)
	}
}

// validateNotBlank rejects strings that are empty after trimming whitespace.
// `required` alone accepts strings like "   ".
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateTripStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "upcoming", "active", "deactive":
		return true
	}
	return false
}
