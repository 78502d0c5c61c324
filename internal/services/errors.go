package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/assessment-engine/internal/validator"
)

// Error kinds. Every domain error matches exactly one of them with errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

type ValidationErrors = validator.ValidationErrors

// DomainError is a client-facing failure with a stable message.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Is(target error) bool {
	return target == e.Kind
}

func newDomainError(kind error, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

var (
	ErrAssessmentIDRequired   = newDomainError(ErrBadRequest, "Assessment ID is required")
	ErrUserIDsRequired        = newDomainError(ErrBadRequest, "User IDs are required")
	ErrIndexRequired          = newDomainError(ErrBadRequest, "Question index is required")
	ErrAnswerRequired         = newDomainError(ErrBadRequest, "Answer is required")
	ErrInvalidQuestionIndex   = newDomainError(ErrBadRequest, "Invalid question index")
	ErrAssessmentNotFound     = newDomainError(ErrNotFound, "Assessment not found")
	ErrAssessmentNotVisible   = newDomainError(ErrNotFound, "Assessment not found or not visible")
	ErrModuleNotFound         = newDomainError(ErrNotFound, "Module not found in this assessment")
	ErrReportNotFound         = newDomainError(ErrNotFound, "Assessment report not found")
	ErrQuestionNotFound       = newDomainError(ErrNotFound, "Question not found")
	ErrAssignmentNotFound     = newDomainError(ErrNotFound, "Assignment not found")
	ErrNotAssigned            = newDomainError(ErrForbidden, "You are not assigned to this assessment or it is no longer available")
	ErrAssignmentExpired      = newDomainError(ErrForbidden, "Assignment has expired")
	ErrAttemptCompleted       = newDomainError(ErrForbidden, "Assessment has already been completed")
	ErrAttemptAlreadyFinished = newDomainError(ErrConflict, "Assessment has already been finished")
	ErrAssessmentHasAssignees = newDomainError(ErrConflict, "Assessment has assignments and cannot be deleted")
	ErrAdminRequired          = newDomainError(ErrForbidden, "Admin access required")
)

// IDListError reports the offending ids of a bulk request.
type IDListError struct {
	*DomainError
	Field string
	IDs   []string
}

func (e *IDListError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.IDs, ", "))
}

func (e *IDListError) Unwrap() error {
	return e.DomainError
}

func NewInvalidUsersError(ids []string) *IDListError {
	return &IDListError{
		DomainError: newDomainError(ErrNotFound, "Some users were not found"),
		Field:       "invalid_user_ids",
		IDs:         ids,
	}
}

func NewAlreadyAssignedError(ids []string) *IDListError {
	return &IDListError{
		DomainError: newDomainError(ErrConflict, "Some users are already assigned to this assessment"),
		Field:       "already_assigned",
		IDs:         ids,
	}
}

func NewInvalidModulesError(ids []string) *IDListError {
	return &IDListError{
		DomainError: newDomainError(ErrBadRequest, "Some modules do not belong to this assessment"),
		Field:       "invalid_modules",
		IDs:         ids,
	}
}

// RowError locates a failure in an uploaded sheet.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportError collects the row errors of a rejected import.
type ImportError struct {
	Rows []RowError
}

func (e *ImportError) Error() string {
	parts := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		parts[i] = fmt.Sprintf("row %d: %s", r.Row, r.Message)
	}
	return "import failed: " + strings.Join(parts, "; ")
}

func (e *ImportError) Is(target error) bool {
	return target == ErrBadRequest
}

// NewValidationError wraps validator output so it also matches ErrBadRequest.
func NewValidationError(err error) error {
	return fmt.Errorf("%w: %w", ErrBadRequest, validator.ToValidationErrors(err))
}
