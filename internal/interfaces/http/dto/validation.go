package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs custom binding validators on gin's validator
// engine. Call once at startup before the first request is bound.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("percent", validatePercent)
}

// validatePercent accepts integer completion percentages in 0-100
func validatePercent(fl validator.FieldLevel) bool {
	value := fl.Field().Int()
	return value >= 0 && value <= 100
}
