package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("Amount must be a positive number")
	ErrInvalidGoal         = errors.New("Funding goal must be a positive number")
	ErrInvalidFunding      = errors.New("Funding must not be negative")
	ErrProjectNotFound     = errors.New("Project not found")
	ErrInvalidProjectState = errors.New("Project is not accepting donations in its current status")
	ErrUnauthorized        = errors.New("Only administrators can perform this action")
	ErrPersistenceFailure  = errors.New("Project store unavailable")

	ErrInvalidStatus   = errors.New("Invalid project status")
	ErrInvalidCategory = errors.New("Invalid energy category")
	ErrMissingTitle    = errors.New("Project title is required (max 200 characters)")
	ErrNotProjectOwner = errors.New("Only the project owner can edit this project")
	ErrProjectLocked   = errors.New("Project can only be edited while pending")
)

// Persistence wraps a store error so callers can match ErrPersistenceFailure
// with errors.Is while the original cause stays in the chain.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
}

var ledgerErrors = []error{
	ErrInvalidAmount, ErrInvalidGoal, ErrInvalidFunding, ErrProjectNotFound,
	ErrInvalidProjectState, ErrUnauthorized, ErrPersistenceFailure,
	ErrInvalidStatus, ErrInvalidCategory, ErrMissingTitle, ErrNotProjectOwner, ErrProjectLocked,
}

// Classify passes ledger errors through and wraps anything else (driver,
// commit or context errors) as a persistence failure.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, le := range ledgerErrors {
		if errors.Is(err, le) {
			return err
		}
	}
	return Persistence(err)
}
