package crop

import (
	"errors"
	"fmt"
)

var (
	ErrPublishInProgress = errors.New("publish already in progress")
	ErrNoImage           = errors.New("no image captured")
	ErrSessionClosed     = errors.New("crop session is closed")
)

// ValidationError rejects a file before any state changes.
type ValidationError struct {
	Reason   string
	TooLarge bool
}

func (e *ValidationError) Error() string {
	return "invalid image: " + e.Reason
}

type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EmptyCropError means the image was dragged entirely out of the frame.
type EmptyCropError struct {
	Offset Point
	Scale  float64
}

func (e *EmptyCropError) Error() string {
	return fmt.Sprintf("crop region is empty at offset (%.1f, %.1f) scale %.3f, reposition the image",
		e.Offset.X, e.Offset.Y, e.Scale)
}

type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload image: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PersistenceError reports an image that reached the host but was not
// attached to its page or block.
type PersistenceError struct {
	URL string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("image uploaded to %s but not attached: %v", e.URL, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

var ErrInvalidEvent = errors.New("invalid editor event")
