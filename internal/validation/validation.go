// Package validation checks decoded request bodies against their `validate` struct tags
// and turns failures into field-level apperr validation errors.
//
// Each field may carry a `label` tag used in generated messages and a `msg` tag that
// replaces every generated message for that field.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
)

// PasswordSpecials is the set of characters that satisfy the special-character rule.
const PasswordSpecials = `!@#$%^&*(),.?":{}|<>`

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator with the custom password rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "has_upper", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsUpper) >= 0
	})
	mustRegister(v, "has_special", func(fl validator.FieldLevel) bool {
		return strings.ContainsAny(fl.Field().String(), PasswordSpecials)
	})
	// whole accepts integral numbers, so 4.0 passes and 4.5 does not.
	mustRegister(v, "whole", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			f := fl.Field().Float()
			return !math.IsInf(f, 0) && f == math.Trunc(f)
		}
		return true
	})
	v.RegisterAlias("password", "min=8,max=16,has_upper,has_special")
	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Struct validates s, which must be a struct or pointer to struct. It returns nil or an
// *apperr.Error of kind Validation listing one message per failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("validation failed", err)
	}

	typ := reflect.TypeOf(s)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fieldPath(fe),
			Message: message(typ, fe),
		})
	}
	return apperr.Validation("Validation failed", fields...)
}

// fieldPath is the dotted JSON path of the failing field, without the root struct name.
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

// lookupField walks the Go field names of fe's namespace down from typ.
func lookupField(typ reflect.Type, fe validator.FieldError) (reflect.StructField, bool) {
	_, path, ok := strings.Cut(fe.StructNamespace(), ".")
	if !ok {
		return typ.FieldByName(fe.StructField())
	}
	var sf reflect.StructField
	for _, name := range strings.Split(path, ".") {
		for typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		if typ.Kind() != reflect.Struct {
			return reflect.StructField{}, false
		}
		if sf, ok = typ.FieldByName(name); !ok {
			return reflect.StructField{}, false
		}
		typ = sf.Type
	}
	return sf, true
}

func message(typ reflect.Type, fe validator.FieldError) string {
	sf, found := lookupField(typ, fe)
	if found {
		if msg := sf.Tag.Get("msg"); msg != "" {
			return msg
		}
	}

	label := fe.Field()
	if found {
		if l := sf.Tag.Get("label"); l != "" {
			label = l
		}
	}

	bounds := tagParams(sf.Tag.Get("validate"))
	if fe.Tag() == "password" {
		bounds["min"], bounds["max"] = "8", "16"
	}

	switch fe.ActualTag() {
	case "required":
		return label + " is required"
	case "email":
		return "Must be a valid email address"
	case "min", "max", "len":
		unit := " characters"
		if fe.Kind() != reflect.String {
			unit = ""
		}
		lo, hasLo := bounds["min"]
		hi, hasHi := bounds["max"]
		switch {
		case hasLo && hasHi:
			return fmt.Sprintf("%s must be between %s and %s%s", label, lo, hi, unit)
		case hasHi:
			return fmt.Sprintf("%s must not exceed %s%s", label, hi, unit)
		default:
			return fmt.Sprintf("%s must be at least %s%s", label, fe.Param(), unit)
		}
	case "has_upper":
		return label + " must contain at least one uppercase letter"
	case "has_special":
		return label + " must contain at least one special character"
	case "whole":
		return label + " must be a whole number"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// tagParams extracts the key=value pairs of a validate tag, e.g. min=2,max=60.
func tagParams(tag string) map[string]string {
	params := make(map[string]string)
	for _, part := range strings.Split(tag, ",") {
		key, value, ok := strings.Cut(part, "=")
		if ok {
			params[key] = value
		}
	}
	return params
}
