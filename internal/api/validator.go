package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Artexxx/employee-service/internal/dto"
)

// Violation - нарушение правила для одного поля.
type Violation struct {
	Field   string `json:"field" example:"lastname"`
	Message string `json:"message" example:"must match the lastname pattern"`
}

type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// EmployeeValidator проверяет сотрудника по тегам validate в dto.Employee.
type EmployeeValidator struct {
	v   *validator.Validate
	now func() time.Time
}

func NewEmployeeValidator(now func() time.Time) *EmployeeValidator {
	if now == nil {
		now = time.Now
	}

	ev := &EmployeeValidator{
		v:   validator.New(validator.WithRequiredStructEnabled()),
		now: now,
	}

	ev.v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Date проверяется как time.Time, а не как вложенная структура.
	ev.v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(dto.Date); ok {
			return d.Time()
		}
		return nil
	}, dto.Date{})

	_ = ev.v.RegisterValidation("employeeid", func(fl validator.FieldLevel) bool {
		return dto.ValidID(fl.Field().String())
	})
	_ = ev.v.RegisterValidation("lastname", func(fl validator.FieldLevel) bool {
		return dto.ValidLastname(fl.Field().String())
	})
	_ = ev.v.RegisterValidation("past", ev.past)

	return ev
}

func (ev *EmployeeValidator) past(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}

	return dto.DateOf(t).Before(dto.DateOf(ev.now()))
}

// Validate возвращает *ValidationError со всеми нарушениями или nil.
func (ev *EmployeeValidator) Validate(e dto.Employee) error {
	err := ev.v.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validator.Struct: %w", err)
	}

	out := &ValidationError{Violations: make([]Violation, 0, len(verrs))}
	for _, fe := range verrs {
		out.Violations = append(out.Violations, Violation{
			Field:   fieldPath(fe.Namespace()),
			Message: violationMessage(fe),
		})
	}

	return out
}

// fieldPath убирает имя структуры: Employee.lastname -> lastname.
func fieldPath(namespace string) string {
	if _, field, found := strings.Cut(namespace, "."); found {
		return field
	}

	return namespace
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "email":
		return "must be a well-formed email address"
	case "employeeid":
		return fmt.Sprintf("must match %q", dto.IDPattern)
	case "lastname":
		return fmt.Sprintf("must match %q", dto.LastnamePattern)
	case "past":
		return "must be a date in the past"
	case "unique":
		return "must not contain duplicates"
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}
