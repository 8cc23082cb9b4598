package entity

import "errors"

var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUnauthorized = errors.New("unauthorized access")

	// Page errors
	ErrPageNotFound = errors.New("page not found")

	// Block errors
	ErrBlockNotFound    = errors.New("block not found")
	ErrInvalidBlockType = errors.New("invalid block type")
	ErrForbidden        = errors.New("forbidden operation")

	// Crop session errors
	ErrSessionNotFound = errors.New("crop session not found")
	ErrUnknownKind     = errors.New("unknown image kind")
	ErrTargetLocked    = errors.New("image target is being edited in another session")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
