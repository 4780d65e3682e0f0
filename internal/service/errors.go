package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/agrodesk/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrReportNotFound     = errors.New("report not found")
	ErrNoArea             = errors.New("no area assigned to this account")
	ErrValidation         = errors.New("validation failed")

	// ErrEmailExists is the repository sentinel, re-exported so handlers
	// only depend on this package for error mapping.
	ErrEmailExists = repository.ErrEmailExists
)

// validationError carries a client-facing message and matches
// ErrValidation under errors.Is.
type validationError struct{ msg string }

func (e *validationError) Error() string        { return e.msg }
func (e *validationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}
