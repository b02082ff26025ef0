// Package validation checks request DTOs against their validate tags and
// reports failures as validation DomainErrors.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/workforce-service/internal/domain"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
)

// Validator wraps the go-playground validator with the service's custom tags.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with staffstatus, staffrole, assignmenttype,
// teamtype and territoryop registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	custom := map[string]func(string) bool{
		"staffstatus":    func(s string) bool { return domain.StaffStatus(s).Valid() },
		"staffrole":      func(s string) bool { return domain.StaffRole(s).Valid() },
		"assignmenttype": func(s string) bool { return domain.AssignmentType(s).Valid() },
		"teamtype":       func(s string) bool { return domain.TeamType(s).Valid() },
		"territoryop":    func(s string) bool { return domain.TerritoryOperation(s).Valid() },
	}
	for tag, ok := range custom {
		// Only fails for an empty tag or nil func.
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return ok(fl.Field().String())
		})
	}
	return &Validator{v: v}
}

// Struct validates s. Field failures come back as a validation DomainError
// whose details map each json field name to the failed rule.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid request", map[string]any{"body": err.Error()})
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fieldPath(fe)] = rule(fe)
	}
	return apperrors.NewValidationError("invalid request", details)
}

// Var validates a single value against tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func rule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
