package customers

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

var validate = newValidator()

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 -]*$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// 7 to 15 digits, optional leading +, spaces and dashes as separators.
	must(v.RegisterValidation("phoneformat", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !phonePattern.MatchString(s) {
			return false
		}
		digits := 0
		for _, r := range s {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		return digits >= 7 && digits <= 15
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func validateCustomer(c Customer) error {
	if strings.ContainsAny(c.Name, ",\"") {
		return shared.NewValidationError("name", "must not contain commas or quotes")
	}
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return shared.NewValidationError(strings.ToLower(fieldErrs[0].Field()), reasonFor(fieldErrs[0]))
		}
		return shared.NewValidationError("customer", err.Error())
	}
	return nil
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return "must be REGULAR or VIP"
	case "phoneformat":
		return "must be a phone number of 7 to 15 digits"
	default:
		return "failed rule " + fe.Tag()
	}
}
