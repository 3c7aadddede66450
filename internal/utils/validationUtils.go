package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

// FieldError is one entry of a validation failure's details.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("indianphone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return pincodePattern.MatchString(fl.Field().String())
	})
	return v
}

func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidateStruct runs the struct's validate tags and returns the failing
// fields, or nil when s is valid.
func ValidateStruct(s interface{}) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Please provide a valid email"
	case "indianphone":
		return "Please provide a valid 10-digit Indian phone number"
	case "pincode":
		return "Please provide a valid 6-digit pincode"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "timezone":
		return fe.Field() + " must be an IANA time zone"
	}
	numeric := fe.Kind() == reflect.Int
	switch {
	case fe.Tag() == "min" && numeric:
		return fe.Field() + " must be at least " + fe.Param()
	case fe.Tag() == "max" && numeric:
		return fe.Field() + " cannot exceed " + fe.Param()
	case fe.Tag() == "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters long"
	case fe.Tag() == "max":
		return fe.Field() + " cannot exceed " + fe.Param() + " characters"
	}
	return fe.Field() + " is invalid"
}
