package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Authentication
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"

	// Validation
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Invitation misuse
	ErrCodeAlreadyUsed   ErrorCode = "ALREADY_USED"
	ErrCodeAlreadyPaired ErrorCode = "ALREADY_PAIRED"
	ErrCodeSelfInvite    ErrorCode = "SELF_INVITE"

	// Pairing and answers
	ErrCodeNotPaired       ErrorCode = "NOT_PAIRED"
	ErrCodeDuplicateAnswer ErrorCode = "DUPLICATE_ANSWER"

	// Reminder preconditions
	ErrCodeSelfNotReady           ErrorCode = "SELF_NOT_READY"
	ErrCodePartnerAlreadyAnswered ErrorCode = "PARTNER_ALREADY_ANSWERED"
	ErrCodeThrottled              ErrorCode = "THROTTLED"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// ThrottleDetails is attached to THROTTLED errors.
type ThrottleDetails struct {
	RetryAfterSeconds int `json:"retryAfterSeconds"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func Unauthenticated(message string) *AppError {
	return New(ErrCodeUnauthenticated, message)
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func MissingRequired(field string) *AppError {
	return New(ErrCodeMissingRequired, fmt.Sprintf("%s is required", field))
}

func AlreadyUsed() *AppError {
	return New(ErrCodeAlreadyUsed, "Invitation has already been used")
}

func AlreadyPaired() *AppError {
	return New(ErrCodeAlreadyPaired, "User is already paired")
}

func SelfInvite() *AppError {
	return New(ErrCodeSelfInvite, "Cannot accept your own invitation")
}

func NotPaired() *AppError {
	return New(ErrCodeNotPaired, "User has no partner yet")
}

func DuplicateAnswer() *AppError {
	return New(ErrCodeDuplicateAnswer, "Answer already submitted")
}

func SelfNotReady() *AppError {
	return New(ErrCodeSelfNotReady, "Answer the prompt before reminding your partner")
}

func PartnerAlreadyAnswered() *AppError {
	return New(ErrCodePartnerAlreadyAnswered, "Partner has already answered")
}

// Throttled reports a refused reminder; retryAfterSeconds is at least 1.
func Throttled(retryAfterSeconds int) *AppError {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}
	return New(ErrCodeThrottled, "Reminder sent recently").
		WithDetails(ThrottleDetails{RetryAfterSeconds: retryAfterSeconds})
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, fmt.Sprintf("External service error: %s", service), cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// RetryAfter returns the retry hint carried by a THROTTLED error.
func RetryAfter(err error) (int, bool) {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != ErrCodeThrottled {
		return 0, false
	}
	d, ok := appErr.Details.(ThrottleDetails)
	if !ok {
		return 0, false
	}
	return d.RetryAfterSeconds, true
}
