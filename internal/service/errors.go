// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation — ошибка валидации входных данных.
var ErrValidation = errors.New("ошибка валидации")

// ValidationError — некорректные входные данные с деталями по полям.
type ValidationError struct {
	// Details — поле → причина.
	Details map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return ErrValidation.Error()
	}
	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Details[f]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Unwrap позволяет сравнивать через errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// newValidationError создаёт ValidationError для одного поля.
func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Details: map[string]string{field: reason}}
}

// fromValidatorErrors преобразует ошибки go-playground/validator.
func fromValidatorErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Details: map[string]string{"body": err.Error()}}
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "обязательное поле"
		case "url":
			details[fe.Field()] = "ожидается URL"
		case "excludes":
			details[fe.Field()] = fmt.Sprintf("не должно содержать %q", fe.Param())
		default:
			details[fe.Field()] = fmt.Sprintf("не выполнено правило %s", fe.Tag())
		}
	}
	return &ValidationError{Details: details}
}
