package game

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation    = errors.New("invalid request")
	ErrPermission    = errors.New("permission denied")
	ErrState         = errors.New("action not allowed in current phase")
	ErrNotFound      = errors.New("not found")
	ErrCapacity      = errors.New("roster full")
	ErrNotReady      = errors.New("not ready")
	ErrAlreadyActive = errors.New("game already active")
)

var (
	ErrHostCannotLeave = fmt.Errorf("%w: host cannot leave", ErrPermission)
	ErrRosterSize      = fmt.Errorf("%w: roster size does not match role catalog", ErrValidation)
	ErrDuplicatePlayer = fmt.Errorf("%w: player already joined", ErrCapacity)
	ErrSessionClosed   = fmt.Errorf("%w: session closed", ErrState)
)
