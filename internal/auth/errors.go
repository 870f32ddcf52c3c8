package auth

import "fmt"

// AuthError indicates an authentication failure: missing or invalid
// credentials, a missing token, or a failed exchange, refresh, or
// introspection call against the provider.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError indicates a non-success HTTP status from a downstream LinkedIn
// API call made with a valid token.
type APIError struct {
	Status   int
	Resource string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("linkedin api returned status %d for %s", e.Status, e.Resource)
}
