// internal/app/system/inputval/inputval.go

// Package inputval validates request input structs using `validate:` tags,
// translating failures into messages that name the field by its `label:` tag
// rather than the Go identifier.
package inputval

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their label tag (fall back to the struct name).
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	return v
}

// Result collects validation error messages in field order.
type Result struct {
	Errors []string
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first error message, or "" when validation passed.
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// Validate checks the struct's `validate:` tags and returns human-readable
// messages for each failure.
func Validate(input any) Result {
	err := validate.Struct(input)
	if err == nil {
		return Result{}
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Result{Errors: []string{"Invalid input."}}
	}

	var res Result
	for _, fe := range verrs {
		res.Errors = append(res.Errors, message(fe))
	}
	return res
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", name)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", name, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid.", name)
	}
}
