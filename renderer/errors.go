package renderer

import "errors"

var (
	// ErrFrameActive is returned by operations that are not allowed between
	// Begin and End.
	ErrFrameActive = errors.New("frame is active")
	// ErrFrameNotActive is returned by operations that need a Begin first.
	ErrFrameNotActive = errors.New("frame is not active")
	// ErrInvalidResolution is returned for non-positive internal sizes.
	ErrInvalidResolution = errors.New("invalid resolution")
)
