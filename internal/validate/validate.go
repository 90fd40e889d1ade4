// Package validate checks request bodies and query strings before any remote
// call is made. Validation is fail-fast: only the first violated field is
// reported.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// MinYear is the earliest release year accepted by the catalog filters.
const MinYear = 1900

// Error is a single human-readable validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validator wraps a configured go-playground validator and the clock used
// for the current-year bound.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the clock used to resolve the current year.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

var (
	defaultValidator *Validator
	defaultOnce      sync.Once
)

// Default returns the process-wide validator using the wall clock.
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// New builds a Validator. Field names in messages follow the json tags.
func New(opts ...Option) *Validator {
	out := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(out)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("maxyear", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(out.CurrentYear())
	})

	out.v = v
	return out
}

// CurrentYear reports the year according to the validator's clock.
func (v *Validator) CurrentYear() int {
	return v.now().Year()
}

// Struct validates s and returns the first violation as an *Error.
func (v *Validator) Struct(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &Error{Field: "unknown", Message: err.Error()}
	}
	first := fieldErrs[0]
	return &Error{Field: first.Field(), Message: v.translate(first)}
}

var messageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
}

var messageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

func (v *Validator) translate(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if tmpl, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messageWithParam[tag]; ok {
		return fmt.Sprintf(tmpl, field, strings.ReplaceAll(param, " ", ", "))
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "maxyear":
		return fmt.Sprintf("%s must be at most %d", field, v.CurrentYear())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", field, lowerFirst(param))
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
