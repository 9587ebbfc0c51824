package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrImageGeneration marks every failure of the rasterization step.
// Match it with errors.Is; the concrete error is an *ImageError.
var ErrImageGeneration = errors.New("image generation error")

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeImageGeneration indicates the SVG could not be rasterized (500)
	ErrorTypeImageGeneration ErrorType = "image_generation_error"
	// ErrorTypeInternal indicates any other unexpected failure (500)
	ErrorTypeInternal ErrorType = "internal_error"
)

// ImageError is the error type surfaced to the HTTP boundary when a
// countdown image cannot be produced.
type ImageError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	// Backend is the rasterizer that failed, for logs only
	Backend string
	// Original error for debugging (not exposed to clients)
	Err error
}

// Error implements the error interface
func (e *ImageError) Error() string {
	if e.Backend != "" {
		if e.Err != nil {
			return fmt.Sprintf("[%s] %s: %s: %v", e.Backend, e.Type, e.Message, e.Err)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Backend, e.Type, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *ImageError) Unwrap() error {
	return e.Err
}

// Is reports image generation errors as ErrImageGeneration.
func (e *ImageError) Is(target error) bool {
	return target == ErrImageGeneration && e.Type == ErrorTypeImageGeneration
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *ImageError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// PublicMessage is the only text clients ever see for this error.
func (e *ImageError) PublicMessage() string {
	switch e.Type {
	case ErrorTypeImageGeneration:
		return "Error generating countdown image"
	default:
		return "An unexpected error occurred"
	}
}

// NewImageGenerationError creates a rasterization failure (500)
func NewImageGenerationError(backend, message string, err error) *ImageError {
	return &ImageError{
		Type:       ErrorTypeImageGeneration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Backend:    backend,
		Err:        err,
	}
}

// NewInternalError creates a generic internal error (500)
func NewInternalError(message string, err error) *ImageError {
	return &ImageError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
