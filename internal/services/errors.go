package services

import (
	"errors"
	"fmt"

	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
	"github.com/guru-digital-pelangi/pelangi-service/internal/validator"
)

// Sentinels matched through errors.Is by the HTTP layer
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrInternal         = errors.New("internal error")
)

// Resource-specific not-found errors
var (
	ErrStudentNotFound     = NewNotFoundError("student", nil)
	ErrClassNotFound       = NewNotFoundError("class", nil)
	ErrSubjectNotFound     = NewNotFoundError("subject", nil)
	ErrAssignmentNotFound  = NewNotFoundError("assignment", nil)
	ErrSubmissionNotFound  = NewNotFoundError("submission", nil)
	ErrChallengeNotFound   = NewNotFoundError("challenge", nil)
	ErrParticipantNotFound = NewNotFoundError("challenge participant", nil)
	ErrBadgeNotFound       = NewNotFoundError("badge", nil)
	ErrLevelNotFound       = NewNotFoundError("level", nil)
	ErrGradeNotFound       = NewNotFoundError("grade", nil)
	ErrAttendanceNotFound  = NewNotFoundError("attendance", nil)
	ErrQuestionNotFound    = NewNotFoundError("question", nil)
	ErrUserNotFound        = NewNotFoundError("user", nil)
)

// ===== VALIDATION =====

type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

func (ve ValidationErrors) Is(target error) bool { return target == ErrValidationFailed }

// FromValidatorErrors converts request validator output into service errors
func FromValidatorErrors(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("request", err.Error(), nil)
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, v := range verrs {
		out = append(out, ValidationError{Field: v.Field, Message: v.Message, Value: v.Value})
	}
	return out
}

// ===== NOT FOUND =====

type NotFoundError struct {
	Resource string      `json:"resource"`
	ID       interface{} `json:"id,omitempty"`
}

func NewNotFoundError(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ===== PERMISSION =====

// PermissionError is the ForbiddenError of the service layer
type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

type ForbiddenError = PermissionError

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{UserID: userID, ResourceID: resourceID, Resource: resource, Action: action, Reason: reason}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s %d: %s", e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool { return target == ErrForbidden }

// ===== CONFLICT =====

type ConflictError struct {
	Resource string `json:"resource"`
	Reason   string `json:"reason"`
}

func NewConflictError(resource, reason string) *ConflictError {
	return &ConflictError{Resource: resource, Reason: reason}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ===== INTERNAL =====

type InternalError struct {
	Op  string
	Err error
}

func NewInternalError(op string, err error) *InternalError {
	return &InternalError{Op: op, Err: err}
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Op + ": internal error"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// ===== HELPERS =====

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool  { return errors.Is(err, ErrForbidden) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidationFailed) }

// notFoundOr maps a repository not-found onto notFound and wraps anything else
func notFoundOr(err error, notFound error, op string) error {
	if repositories.IsNotFoundError(err) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// conflictOr maps a repository duplicate or stale write onto a ConflictError
// and wraps anything else
func conflictOr(err error, resource, reason, op string) error {
	if repositories.IsDuplicateError(err) || repositories.IsStaleError(err) {
		return NewConflictError(resource, reason)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
