// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var lastFourRegex = regexp.MustCompile(`^[0-9]{4}$`)

// validBrands contains the card brands the form UI offers.
var validBrands = map[string]bool{
	"visa":       true,
	"mastercard": true,
	"amex":       true,
	"discover":   true,
	"other":      true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("category_kind", validateCategoryKind)
		_ = v.RegisterValidation("card_brand", validateCardBrand)
		_ = v.RegisterValidation("last_four", validateLastFour)
		_ = v.RegisterValidation("day_of_month", validateDayOfMonth)
	}
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateCategoryKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateCardBrand(fl validator.FieldLevel) bool {
	return validBrands[fl.Field().String()]
}

func validateLastFour(fl validator.FieldLevel) bool {
	return lastFourRegex.MatchString(fl.Field().String())
}

func validateDayOfMonth(fl validator.FieldLevel) bool {
	day := fl.Field().Int()
	return day >= 1 && day <= 31
}
