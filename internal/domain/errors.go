package domain

import "errors"

var (
	// ErrInvalidInput is returned for client-side mistakes such as an empty array.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRunNotFound is returned for any operation on an unknown run id.
	ErrRunNotFound = errors.New("run not found")

	// ErrTraceGenerationFailed wraps failures of the trace generator.
	ErrTraceGenerationFailed = errors.New("trace generation failed")

	// ErrExplanationUnavailable wraps failures of the explanation collaborator.
	// It never reaches the viewer.
	ErrExplanationUnavailable = errors.New("explanation unavailable")

	// ErrViewerSendFailed is returned when writing to the viewer connection fails.
	ErrViewerSendFailed = errors.New("viewer send failed")
)
