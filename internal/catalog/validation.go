package catalog

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

var validate = validator.New()

func validateProduct(p Product) error {
	if strings.ContainsAny(p.Name, ",\"") {
		return shared.NewValidationError("name", "must not contain commas or quotes")
	}
	if err := validate.Struct(p); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return shared.NewValidationError(strings.ToLower(fieldErrs[0].Field()), reasonFor(fieldErrs[0]))
		}
		return shared.NewValidationError("product", err.Error())
	}
	return nil
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "gte":
		return "must not be negative"
	case "gt":
		return "must be positive"
	default:
		return "failed rule " + fe.Tag()
	}
}
