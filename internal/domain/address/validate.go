package address

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

// Violation describes one broken rule.
type Violation struct {
	Field   string
	Rule    string
	Message string
}

// ValidationError lists every rule an address breaks, not just the first.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "invalid address: " + strings.Join(msgs, "; ")
}

// Messages returns the user-facing text of each violation.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return msgs
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

var labels = map[string]string{
	"fullName":       "Full name",
	"mobileNumber":   "Mobile number",
	"pincode":        "Pincode",
	"locality":       "Locality",
	"addressLine1":   "Address",
	"addressLine2":   "Address line 2",
	"city":           "City",
	"state":          "State",
	"landmark":       "Landmark",
	"alternatePhone": "Alternate phone",
	"addressType":    "Address type",
}

var digits = map[string]int{
	"mobileNumber":   10,
	"alternatePhone": 10,
	"pincode":        6,
}

// Validate checks f (after Normalize) and returns a *ValidationError
// enumerating every violation, or nil.
func Validate(f Fields) error {
	err := validate.Struct(f.Normalize())
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validate address")
	}

	ve := &ValidationError{Violations: make([]Violation, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		ve.Violations = append(ve.Violations, Violation{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return ve
}

func message(fe validator.FieldError) string {
	label, ok := labels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "number", "len":
		if n, ok := digits[fe.Field()]; ok {
			return fmt.Sprintf("%s must be exactly %d digits", label, n)
		}
		return fmt.Sprintf("%s must be %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "oneof":
		return label + " must be Home or Work"
	default:
		return label + " is invalid"
	}
}
