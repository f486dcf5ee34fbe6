package core

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrPermissionDenied is returned when the acting collaborator may not touch an object.
var ErrPermissionDenied = errors.New("permission denied")

// ErrInUse is returned when a row cannot be deleted while other rows reference it.
var ErrInUse = errors.New("this record is still referenced by other records")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldError reports a single invalid field.
func NewFieldError(field string, err error) error {
	return &ValidationError{Err: err, Fields: []FieldError{{Field: field, Error: err.Error()}}}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		msgs := make([]string, 0, len(err.Fields))
		for _, f := range err.Fields {
			msgs = append(msgs, f.Field+": "+f.Error)
		}
		return strings.Join(msgs, "; ")
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// TranslateError maps validator.ValidationErrors to a *ValidationError with english messages.
// Any other error is returned untouched.
func TranslateError(err error) error {
	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(Translator)})
	}
	return NewValidationError(nil, flds...)
}

// IsValidationError reports whether err is caused by invalid input.
func IsValidationError(err error) bool {
	switch errors.Cause(err).(type) {
	case *ValidationError, validator.ValidationErrors:
		return true
	}
	return false
}
