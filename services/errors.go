package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Error taxonomy for the options engine. Callers match with errors.Is.
var (
	// ErrValidation marks a business-rule violation. Recoverable by the
	// caller; the message names what went wrong and, where possible,
	// valid alternatives.
	ErrValidation = errors.New("validation error")

	// ErrIntegrity marks a constraint violation raised by the store,
	// e.g. losing a race on the unique name index. Not retried here.
	ErrIntegrity = errors.New("integrity error")

	// ErrInvalidArgument marks a programmer error such as calling
	// CreateForTenant without a tenant.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidDefaultOption marks a malformed static default-options
	// table, detected at sync time.
	ErrInvalidDefaultOption = errors.New("invalid default option")

	// ErrNoTenantProvided marks a caller that failed to supply the
	// required tenant context.
	ErrNoTenantProvided = errors.New("no tenant provided")
)

// isUniqueViolation reports whether the store rejected a write on a unique
// constraint. gorm translates driver errors where it can; the string checks
// cover drivers opened without translation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "SQLSTATE 23505") || // postgres
		strings.Contains(msg, "Error 1062") // mysql
}
