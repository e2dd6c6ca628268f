package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/rongwang/property-rental-server/internal/apperrors"
)

var (
	zipCodeRegex    = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z] \d[A-Za-z]\d$`)
	phoneRegex      = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)
	personNameRegex = regexp.MustCompile(`^[A-Za-z]+(?:[ '-][A-Za-z]+)*$`)
)

const minPasswordLength = 8

// NewValidator returns a validator with the domain rules registered. Field
// names in errors follow the json (or form) tag of the struct field.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("zipcode", matchString(zipCodeRegex))
	_ = v.RegisterValidation("phone", matchString(phoneRegex))
	_ = v.RegisterValidation("personname", matchString(personNameRegex))
	_ = v.RegisterValidation("password", strongPassword)
	return v
}

func matchString(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// strongPassword requires a lower-case letter, an upper-case letter, a
// digit and a symbol, with a minimum length.
func strongPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < minPasswordLength {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// Validate runs v on s and converts the outcome into a
// *apperrors.ValidationError.
func Validate(v *validator.Validate, s interface{}) *apperrors.ValidationError {
	out := &apperrors.ValidationError{}
	err := v.Struct(s)
	if err == nil {
		return out
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		out.Add("", err.Error(), "validation_invalid")
		return out
	}
	for _, fe := range errs {
		out.Add(fe.Field(), fieldMessage(fe), "validation_"+fe.Tag())
	}
	return out
}

func fieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", err.Field())
	case "email":
		return fmt.Sprintf("Field '%s' must be a valid email address", err.Field())
	case "min":
		return fmt.Sprintf("Field '%s' must be at least %s in length", err.Field(), err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("Field '%s' must not exceed %s in length", err.Field(), err.Param())
		}
		return fmt.Sprintf("Field '%s' must not exceed %s", err.Field(), err.Param())
	case "gt":
		return fmt.Sprintf("Field '%s' must be greater than %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of [%s]", err.Field(), err.Param())
	case "eqfield":
		return fmt.Sprintf("Field '%s' must match '%s'", err.Field(), err.Param())
	case "datetime":
		return fmt.Sprintf("Field '%s' must be a date in the format %s", err.Field(), err.Param())
	case "zipcode":
		return "Postal code must be in the format A1A 1A1"
	case "phone":
		return "Phone number must be in the format 999-999-9999"
	case "personname":
		return fmt.Sprintf("Field '%s' may only contain letters separated by a single space, apostrophe or hyphen", err.Field())
	case "password":
		return fmt.Sprintf("Password must be at least %d characters and contain an upper-case letter, a lower-case letter, a digit and a symbol", minPasswordLength)
	default:
		return fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", err.Field(), err.Tag())
	}
}
