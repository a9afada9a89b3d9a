package core

import (
	"fmt"

	"github.com/pkg/errors"
)

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

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return fmt.Sprintf("%s: %s", err.Fields[0].Field, err.Fields[0].Error)
	}
	return "validation failed"
}

// NotFoundError reports a missing entity, eg: NotFoundError{"grade", 3}.
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func NewNotFoundError(entity string, id interface{}) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", err.Entity, err.ID)
}

// CapacityExceededError is returned when a specific classroom has no free seat left.
type CapacityExceededError struct {
	ClassroomID int64
	Capacity    int64
	Occupancy   int64
}

func NewCapacityExceededError(classroomID, capacity, occupancy int64) error {
	return &CapacityExceededError{ClassroomID: classroomID, Capacity: capacity, Occupancy: occupancy}
}

func (err CapacityExceededError) Error() string {
	return fmt.Sprintf("classroom %d is full (%d/%d)", err.ClassroomID, err.Occupancy, err.Capacity)
}

// NoCapacityAvailableError is returned when no classroom of a grade has a free seat.
type NoCapacityAvailableError struct {
	GradeID int64
}

func NewNoCapacityAvailableError(gradeID int64) error {
	return &NoCapacityAvailableError{GradeID: gradeID}
}

func (err NoCapacityAvailableError) Error() string {
	return fmt.Sprintf("no classroom with available capacity in grade %d", err.GradeID)
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsCapacityExceeded(err error) bool {
	_, ok := errors.Cause(err).(*CapacityExceededError)
	return ok
}

func IsNoCapacityAvailable(err error) bool {
	_, ok := errors.Cause(err).(*NoCapacityAvailableError)
	return ok
}

// IsInternal reports whether err is not one of the business errors above,
// ie: an infrastructure or programming fault.
func IsInternal(err error) bool {
	if err == nil {
		return false
	}
	return !(IsValidation(err) || IsNotFound(err) || IsCapacityExceeded(err) || IsNoCapacityAvailable(err))
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
