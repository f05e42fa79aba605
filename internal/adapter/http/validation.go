package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/holiman/uint256"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Kind    string       `json:"kind,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// uint256 = base-10 integer string that fits in 256 bits
	_ = v.RegisterValidation("uint256", func(fl validator.FieldLevel) bool {
		_, err := parseAmount(fl.Field().String())
		return err == nil
	})
	// nonzero256 = uint256 and strictly positive
	_ = v.RegisterValidation("nonzero256", func(fl validator.FieldLevel) bool {
		n, err := parseAmount(fl.Field().String())
		return err == nil && !n.IsZero()
	})

	return &CustomValidator{v: v}
}

var errBadAmount = errors.New("amount must be a base-10 integer below 2^256")

// parseAmount accepts plain digits only: no sign, no exponent, no separators.
func parseAmount(s string) (*uint256.Int, error) {
	if s == "" || len(s) > 78 {
		return nil, errBadAmount
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, errBadAmount
		}
	}
	n, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errBadAmount
	}
	return n, nil
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "eth_addr":
			out = append(out, FieldError{Field: field, Message: "must be a 0x-prefixed 20-byte hex address"})
		case "uint256":
			out = append(out, FieldError{Field: field, Message: "must be a base-10 integer below 2^256"})
		case "nonzero256":
			out = append(out, FieldError{Field: field, Message: "must be a positive base-10 integer below 2^256"})
		case "gte", "min":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte", "max":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		case "gt":
			out = append(out, FieldError{Field: field, Message: "must be greater than " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
