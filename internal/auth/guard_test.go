package auth

import (
	"context"
	"errors"
	"testing"
)

type stubResponse struct {
	status int
}

func (r *stubResponse) HTTPStatus() int { return r.status }

func TestWithTokenPassesToken(t *testing.T) {
	m := newTestManager(t, &stubProvider{}, WithSeedToken("seed-token"))
	g := NewGuard(m, nil)

	var seen string
	res, err := WithToken(context.Background(), g, "/me", func(ctx context.Context, token string) (*stubResponse, error) {
		seen = token
		return &stubResponse{status: 200}, nil
	})
	if err != nil {
		t.Fatalf("WithToken() failed: %v", err)
	}
	if res == nil || res.status != 200 {
		t.Errorf("WithToken() result = %+v, want status 200", res)
	}
	if seen != "seed-token" {
		t.Errorf("callback received token %q, want %q", seen, "seed-token")
	}
}

func TestWithTokenUnauthenticated(t *testing.T) {
	m := newTestManager(t, &stubProvider{})
	g := NewGuard(m, nil)

	called := false
	_, err := WithToken(context.Background(), g, "/me", func(ctx context.Context, token string) (*stubResponse, error) {
		called = true
		return &stubResponse{status: 200}, nil
	})

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("WithToken() without token: got %v, want AuthError", err)
	}
	if called {
		t.Error("callback invoked despite missing token")
	}
}

func TestWithTokenNonSuccessStatus(t *testing.T) {
	m := newTestManager(t, &stubProvider{}, WithSeedToken("seed-token"))
	g := NewGuard(m, nil)

	_, err := WithToken(context.Background(), g, "/organizations/123", func(ctx context.Context, token string) (*stubResponse, error) {
		return &stubResponse{status: 403}, nil
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("WithToken() with 403 response: got %v, want APIError", err)
	}
	if apiErr.Status != 403 {
		t.Errorf("APIError.Status = %d, want 403", apiErr.Status)
	}
	if apiErr.Resource != "/organizations/123" {
		t.Errorf("APIError.Resource = %q, want %q", apiErr.Resource, "/organizations/123")
	}
}

func TestWithTokenTransportError(t *testing.T) {
	m := newTestManager(t, &stubProvider{}, WithSeedToken("seed-token"))
	g := NewGuard(m, nil)

	transportErr := errors.New("connection refused")
	_, err := WithToken(context.Background(), g, "/me", func(ctx context.Context, token string) (*stubResponse, error) {
		return nil, transportErr
	})
	if !errors.Is(err, transportErr) {
		t.Fatalf("WithToken() transport error = %v, want %v", err, transportErr)
	}
}
