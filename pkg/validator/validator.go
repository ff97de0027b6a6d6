package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-desk/internal/model"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
)

var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// Register adds the clinic rules to v:
//
//	mobile     ten digits starting with 6-9
//	notblank   not empty once whitespace is trimmed
//	dosage, when, frequency  empty or one of the medicine vocabularies
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)

	rules := map[string]func(string) bool{
		"mobile":    mobilePattern.MatchString,
		"notblank":  func(s string) bool { return strings.TrimSpace(s) != "" },
		"dosage":    model.IsDosage,
		"when":      model.IsWhen,
		"frequency": model.IsFrequency,
	}
	for tag, ok := range rules {
		ok := ok
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return ok(fl.Field().String())
		}); err != nil {
			return fmt.Errorf("failed to register %s rule: %w", tag, err)
		}
	}
	return nil
}

// New returns a validator with the clinic rules, reading `binding` tags like
// gin does.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterGin installs the clinic rules on gin's default binding engine.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return Register(v)
}

var std = New()

// Struct validates s with the clinic rules and returns the first problem
// as a validation error.
func Struct(s interface{}) error {
	return Translate(std.Struct(s))
}

// Translate turns validator errors into a validation error naming the first
// offending field. Other errors are returned as they are.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return apperrors.NewValidation(fe.Field(), message(fe))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "mobile":
		return "Mobile number must be 10 digits starting with 6, 7, 8 or 9"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	case "dosage", "when", "frequency":
		return fmt.Sprintf("%q is not a valid %s", fe.Value(), field)
	default:
		return field + " is invalid"
	}
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}
