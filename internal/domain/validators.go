package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// ValidateStruct runs the struct's `validate` tags and returns a *AppError
// whose Details lists every violated constraint.
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return ErrValidation(err.Error())
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s %s", fe.Field(), validationMessage(fe)))
	}
	return ErrValidation(strings.Join(msgs, "; "))
}

// ValidatePlayerInput normalizes and validates a create/update payload.
func ValidatePlayerInput(in PlayerInput) (PlayerInput, error) {
	in = in.Normalize()
	if err := ValidateStruct(in); err != nil {
		return in, err
	}
	return in, nil
}

// ValidateFeedback normalizes and validates a feedback submission.
func ValidateFeedback(f Feedback) (Feedback, error) {
	f = f.Normalize()
	if err := ValidateStruct(f); err != nil {
		return f, err
	}
	return f, nil
}

// ValidatePaging rejects raw page parameters before they are normalized.
func ValidatePaging(page, pageSize int) error {
	if page < 1 {
		return ErrValidation("page must be greater than or equal to 1")
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return ErrValidation(fmt.Sprintf("pageSize must be between 1 and %d", MaxPageSize))
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
