package core

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrNotFound is matched by every NotFoundError through errors.Is.
var ErrNotFound = errors.New("not found")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports malformed input. Never retried automatically.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

// NewFieldValidationError returns a ValidationError for a single field.
func NewFieldValidationError(field, msg string) error {
	return NewValidationError(nil, FieldError{Field: field, Error: msg})
}

// ValidationErrorFrom converts validator.ValidationErrors into a ValidationError carrying translated messages.
// Any other error is returned untouched.
func ValidationErrorFrom(err error) error {
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		flds = append(flds, FieldError{Field: fe.Field(), Error: fe.Translate(Translator)})
	}
	return NewValidationError(nil, flds...)
}

// Conflict dimensions
const (
	DimensionInstructor = "instructor"
	DimensionRoom       = "room"
)

// Conflict names one resource that is already booked.
type Conflict struct {
	Dimension string // DimensionInstructor | DimensionRoom
	SlotID    string // empty when only the storage constraint reported it
}

// ConflictError reports an overlap with another active slot.
type ConflictError struct {
	Conflicts []Conflict
}

func NewConflictError(conflicts ...Conflict) error {
	return &ConflictError{Conflicts: conflicts}
}

func (err ConflictError) Error() string {
	parts := make([]string, 0, len(err.Conflicts))
	for _, c := range err.Conflicts {
		if c.SlotID != "" {
			parts = append(parts, fmt.Sprintf("%s already booked by slot %s", c.Dimension, c.SlotID))
		} else {
			parts = append(parts, c.Dimension+" already booked")
		}
	}
	return "slot conflict: " + strings.Join(parts, ", ")
}

// Has reports whether the given dimension is part of the conflict.
func (err ConflictError) Has(dimension string) bool {
	for _, c := range err.Conflicts {
		if c.Dimension == dimension {
			return true
		}
	}
	return false
}

// LockedError reports a mutation attempted on a financially committed record.
type LockedError struct {
	Entity string
	ID     string
}

func NewLockedError(entity, id string) error {
	return &LockedError{Entity: entity, ID: id}
}

func (err LockedError) Error() string {
	return fmt.Sprintf("%s %s is locked", err.Entity, err.ID)
}

// PreconditionError reports missing data that blocks an operation until it is fixed.
type PreconditionError struct {
	Msg        string
	Count      int
	SessionIDs []string
}

func (err PreconditionError) Error() string {
	return fmt.Sprintf("%s (%d offending)", err.Msg, err.Count)
}

// NotFoundError reports an unknown id, or a record the caller may not see.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", err.Entity, err.ID)
}

func (err NotFoundError) Is(target error) bool { return target == ErrNotFound }

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsLocked(err error) bool {
	var e *LockedError
	return errors.As(err, &e)
}

func IsPrecondition(err error) bool {
	var e *PreconditionError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
