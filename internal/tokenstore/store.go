package tokenstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when the backend holds no token record.
var ErrNotFound = errors.New("no stored token record")

// Record is the persisted token state. RefreshToken and ExpiresAt are empty
// for applications without programmatic refresh access.
type Record struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// Store reads and writes token records to persistent storage.
//
// Refresh-token rotation requires writable storage.
type Store interface {
	// Load returns the stored record. Returns ErrNotFound if the backend
	// holds no record.
	Load(ctx context.Context) (*Record, error)

	// Save persists the record, overwriting any existing one. Returns an
	// error if the backend is read-only or the write fails.
	Save(ctx context.Context, rec *Record) error
}
