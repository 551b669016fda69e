// Package validation holds the struct validator shared by the service layer.
package validation

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

const IBANTag = "iban_format"

var ibanPattern = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z\d]{4}\d{7}([A-Z\d]?){0,16}$`)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the process-wide validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		if err := v.RegisterValidation(IBANTag, validateIBAN); err != nil {
			panic(err)
		}
		instance = v
	})
	return instance
}

// IsIBAN reports whether s is shaped like an IBAN. Checksums are not verified.
func IsIBAN(s string) bool {
	return len(s) <= 34 && ibanPattern.MatchString(s)
}

func validateIBAN(fl validator.FieldLevel) bool {
	return IsIBAN(fl.Field().String())
}

func Struct(s any) error {
	return Validator().Struct(s)
}
