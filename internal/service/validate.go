package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

// newValidator returns a validator that knows the domain enumerations.
func newValidator() *validator.Validate {
	v := validator.New()

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("inspection_type", func(fl validator.FieldLevel) bool {
		return domain.InspectionType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		return domain.Severity(fl.Field().String()).IsValid()
	})

	return v
}

// validateStruct runs struct-tag validation and converts failures into a
// domain.ValidationError keyed by field path.
func validateStruct(v *validator.Validate, op string, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Internal(err, op, "failed to validate input")
	}

	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		ve.Fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return ve
}

// fieldPath drops the top-level struct name from the namespace,
// e.g. "CompleteInspectionParams.Results[0].Severity" -> "Results[0].Severity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "inspection_type":
		return "must be one of PRE_TRIP POST_TRIP DAILY WEEKLY MONTHLY"
	case "severity":
		return "must be one of LOW MEDIUM HIGH CRITICAL"
	}
	return "is invalid"
}
