package auth

import (
	"context"
	"log/slog"
)

// Statuser exposes the HTTP status of a downstream API response.
type Statuser interface {
	HTTPStatus() int
}

// Guard is the single choke point between tools and the LinkedIn API. Every
// outbound call obtains its token here, so one error type and one logging
// policy cover all tools uniformly.
type Guard struct {
	manager *Manager
	logger  *slog.Logger
}

// NewGuard creates a Guard over the given Manager.
func NewGuard(m *Manager, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{manager: m, logger: logger}
}

// WithToken obtains the current access token, invokes fn with it, and
// normalizes any non-2xx response status into an APIError carrying the status
// and resource path. A missing token propagates the Manager's AuthError
// unchanged without invoking fn. The token value itself is never logged.
func WithToken[T Statuser](ctx context.Context, g *Guard, resource string, fn func(ctx context.Context, token string) (T, error)) (T, error) {
	var zero T

	token, err := g.manager.AccessToken()
	if err != nil {
		g.logger.WarnContext(ctx, "api call rejected: not authenticated", "resource", resource)
		return zero, err
	}

	res, err := fn(ctx, token)
	if err != nil {
		g.logger.ErrorContext(ctx, "api call failed", "resource", resource, "error", err)
		return zero, err
	}

	if status := res.HTTPStatus(); status < 200 || status > 299 {
		apiErr := &APIError{Status: status, Resource: resource}
		g.logger.ErrorContext(ctx, "api call returned non-success status", "resource", resource, "status", status)
		return zero, apiErr
	}

	g.logger.DebugContext(ctx, "api call succeeded", "resource", resource)
	return res, nil
}
