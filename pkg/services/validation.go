package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hindsightlog/hindsight/pkg/apperrors"
	"github.com/hindsightlog/hindsight/pkg/models"
)

// validate is the shared validator instance. Field names in violations come
// from json tags so the error list matches the wire format callers use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// category must be a member of the current enumerated set.
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.IsValidCategory(fl.Field().String())
	})

	return v
}

// collectViolations runs struct validation and converts every failure into a
// field violation with a distinct message per violated rule. Returns nil
// when the struct is valid.
func collectViolations(s any) []apperrors.FieldViolation {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []apperrors.FieldViolation{{Field: "request", Message: err.Error()}}
	}

	violations := make([]apperrors.FieldViolation, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		violations = append(violations, apperrors.FieldViolation{
			Field:   fieldErr.Field(),
			Message: violationMessage(fieldErr),
		})
	}
	return violations
}

// violationMessage renders a human-readable message for one failed rule.
func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "category":
		return fmt.Sprintf("must be one of: %s", strings.Join(models.ValidCategories, ", "))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
