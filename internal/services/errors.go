package services

import (
	"errors"
	"fmt"

	"slotwise/internal/models"
)

// Sentinel errors returned by the slotting services.
var (
	// ErrLocationNotFound is returned when a location id does not exist.
	ErrLocationNotFound = errors.New("location not found")

	// ErrLocationBusy is returned when another run holds the location.
	ErrLocationBusy = errors.New("location is already being repartitioned")

	// ErrInvalidMove is returned for moves with a non-positive quantity or identical levels.
	ErrInvalidMove = errors.New("invalid move")

	// ErrSameShelfLevel is returned when both levels of a move resolve to the same stored shelf name.
	ErrSameShelfLevel = errors.New("source and destination share a shelf level")

	// ErrInsufficientStock is returned when the source level holds less than the move quantity.
	ErrInsufficientStock = errors.New("insufficient stock on source level")

	// ErrDestinationFull is returned when the move would push the destination past its capacity.
	ErrDestinationFull = errors.New("destination level capacity exceeded")
)

// ConfigurationError reports an invalid level configuration value
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid level configuration: %s %s", e.Field, e.Reason)
}

// MoveError wraps the cause of a failed move
type MoveError struct {
	Move models.Move
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("Failed to move product %s from level %d to level %d", e.Move.ProductID, e.Move.FromLevel, e.Move.ToLevel)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}
