package services

import (
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/repositories"
)

// Error taxonomy shared by every service. Handlers map these onto HTTP statuses.
var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConflict               = errors.New("conflict")
)

// mapRepoError translates repository errors into the service taxonomy.
// Errors that are already part of the taxonomy pass through unchanged.
func mapRepoError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidStateTransition), errors.Is(err, ErrConflict):
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repositories.ErrDuplicateKey), errors.Is(err, repositories.ErrVersionConflict):
		return fmt.Errorf("%w: %s: %v", ErrConflict, what, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
