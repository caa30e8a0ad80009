package api

import "fmt"

// AuthError means the vendor rejected our credentials (HTTP 401/403).
// It is terminal for the whole integration, not a transient poll failure.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %d", e.Status)
}

// APIError is any other vendor-side failure (429 or >= 400), carrying the
// status and response body for diagnostics.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Status == 429 {
		return "rate limit exceeded"
	}
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// ConnectionError is a transport-level failure before any HTTP status was
// received.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
