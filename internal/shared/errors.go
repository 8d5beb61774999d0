package shared

import "errors"

var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a request that violates input rules.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition indicates a state change the workflow does not permit.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrInsufficientStock indicates a decrement that would take stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates a delete blocked by dependent records.
	ErrConflict = errors.New("record has dependent data")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an authenticated caller without the required role.
	ErrForbidden = errors.New("forbidden")
)

// UserSafeMessage returns an error message suitable for API consumers.
// Business-rule violations carry enough detail to display; everything else
// collapses to a generic message.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidCredentials):
		return err.Error()
	default:
		return "request could not be processed"
	}
}
