package repositories

import (
	"errors"
	"fmt"

	"acl-center/enums"
)

var (
	// ErrPersistenceUnavailable wraps every failure reported by the store itself.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrUnknownRole and ErrUnknownPermission mean a row that should have been
	// seeded is missing.
	ErrUnknownRole       = enums.ErrUnknownRole
	ErrUnknownPermission = enums.ErrUnknownPermission

	ErrUserNotFound = errors.New("user not found")
)

// storeError classifies err for op. Precondition errors pass through untouched.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnknownRole) || errors.Is(err, ErrUnknownPermission) ||
		errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrPersistenceUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistenceUnavailable, err)
}
