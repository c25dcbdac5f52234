package errors

import (
	"errors"
	"fmt"
)

// Common error types for the community-admin client
var (
	// Session errors
	ErrSessionExpired   = errors.New("session expired")
	ErrInvalidSession   = errors.New("invalid session")
	ErrNoSession        = errors.New("no session")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Response normalization errors
	ErrInvalidLoginResponse = errors.New("invalid login response")
	ErrRefreshMissingTokens = errors.New("refresh response missing tokens")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
