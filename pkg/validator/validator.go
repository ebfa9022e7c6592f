package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	// PriceMaxDigits is the total number of digits a price may have.
	PriceMaxDigits = 10
	// PriceDecimalPlaces is the number of digits allowed after the decimal point.
	PriceDecimalPlaces = 2
)

// Validator is a validator that validates the given struct.
type Validator interface {
	// Validate validates the given struct
	Validate(s any) error
}

type DefaultValidator struct {
	v *validator.Validate
}

// NewDefaultValidator creates a new default validator.
// It returns a new DefaultValidator and an error if the validator registration fails.
func NewDefaultValidator() (*DefaultValidator, error) {
	v := validator.New()

	// Report fields by their json name so details match the request payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	// Register custom validators
	if err := v.RegisterValidation("price", validatePrice); err != nil {
		return nil, fmt.Errorf("register price validator: %w", err)
	}

	if err := v.RegisterValidation("notnumeric", validateNotNumeric); err != nil {
		return nil, fmt.Errorf("register notnumeric validator: %w", err)
	}

	if err := v.RegisterValidation("notcommon", validateNotCommon); err != nil {
		return nil, fmt.Errorf("register notcommon validator: %w", err)
	}

	return &DefaultValidator{v: v}, nil
}

func (v DefaultValidator) Validate(s any) error {
	return v.v.Struct(s)
}

func ValidationErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "price":
		return fmt.Sprintf("must be a decimal number with at most %d digits and %d decimal places",
			PriceMaxDigits, PriceDecimalPlaces)
	case "notnumeric":
		return "this password is entirely numeric"
	case "notcommon":
		return "this password is too common"
	default:
		return "is invalid"
	}
}

// ValidPrice reports whether d fits a price column of PriceMaxDigits digits
// with PriceDecimalPlaces decimal places.
func ValidPrice(d decimal.Decimal) bool {
	if !d.Round(PriceDecimalPlaces).Equal(d) {
		return false
	}
	limit := decimal.New(1, PriceMaxDigits-PriceDecimalPlaces)
	return d.Abs().LessThan(limit)
}

func validatePrice(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return ValidPrice(d)
}

func validateNotNumeric(fl validator.FieldLevel) bool {
	return !IsNumeric(fl.Field().String())
}

func validateNotCommon(fl validator.FieldLevel) bool {
	return !IsCommonPassword(fl.Field().String())
}
