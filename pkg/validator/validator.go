package validator

import (
	"fmt"
	"reflect"
	"regexp"

	"pos-backoffice/pkg/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

// uuid.Parse also accepts braces and urn prefixes; identifiers in paths must
// be the plain hyphenated form.
var canonicalUUID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func init() {
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// Currency fields are validated as floats so numeric tags (gte, lte) apply.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: err.Error()}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Check validates data and reports the first failure as an apperr.ValidationError.
func Check(data interface{}) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	msg := fmt.Sprintf("failed on tag '%s'", first.Tag)
	if first.Value != "" {
		msg = fmt.Sprintf("failed on tag '%s=%s'", first.Tag, first.Value)
	}
	return apperr.Validation(first.FailedField, msg)
}

// ParseID accepts only the canonical hyphenated hexadecimal form.
func ParseID(field, raw string) (uuid.UUID, error) {
	if !canonicalUUID.MatchString(raw) {
		return uuid.Nil, apperr.Validation(field, "invalid identifier format")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation(field, "invalid identifier format")
	}
	return id, nil
}
