package errors

import "errors"

// This package defines the sentinel errors shared across the application.
// Services return these (usually wrapped with context via fmt.Errorf and %w)
// instead of HTTP status codes, and the API layer maps them with errors.Is().
// This keeps the business logic free of transport concerns.

var (
	// ErrValidation signifies that client input failed validation.
	// Mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound signifies that a requested resource could not be located,
	// e.g. an unknown source key.
	// Mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrUpstream signifies that the completion endpoint rejected a request
	// or returned an unreadable response. Fatal for the current request;
	// never retried.
	// Mapped to a 500 Internal Server Error HTTP status.
	ErrUpstream = errors.New("upstream request failed")

	// ErrInternal signifies an unexpected server-side error. Used to avoid
	// leaking implementation details to the client.
	// Mapped to a 500 Internal Server Error HTTP status.
	ErrInternal = errors.New("internal server error")
)
