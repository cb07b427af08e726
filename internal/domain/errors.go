package domain

import "errors"

var (
	// ErrNotFound is returned when no puzzles match a requested topic.
	ErrNotFound = errors.New("no puzzles found for topic")

	// ErrProvider is returned when the generation provider fails.
	ErrProvider = errors.New("puzzle generation failed")

	// ErrValidation is returned when puzzle data is missing required fields
	// for its declared type, or a request is malformed.
	ErrValidation = errors.New("validation failed")

	// ErrStorageCorruption marks a persisted archive that could not be parsed.
	// It is recovered locally and never surfaced to the player.
	ErrStorageCorruption = errors.New("stored archive is corrupt")

	// ErrInvalidState is returned when an action is not allowed in the
	// current room phase.
	ErrInvalidState = errors.New("action not allowed in current state")

	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
)
