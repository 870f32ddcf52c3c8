package tokenstore

import (
	"context"
	"fmt"
	"os"
)

// EnvStore seeds a record from an environment variable holding a pre-issued
// access token. Suitable for deployments where the token is provisioned by
// external secret management; refresh-token rotation cannot be persisted.
type EnvStore struct {
	envKey string
}

// Compile-time check to ensure EnvStore implements Store
var _ Store = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
// Returns error if the variable name is empty or not set in the environment.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	if _, exists := os.LookupEnv(envKey); !exists {
		return nil, fmt.Errorf("environment variable %s not set", envKey)
	}

	return &EnvStore{
		envKey: envKey,
	}, nil
}

// Load returns a record holding the access token from the environment
// variable. Returns ErrNotFound if the variable is empty.
func (e *EnvStore) Load(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token := os.Getenv(e.envKey)
	if token == "" {
		return nil, ErrNotFound
	}
	return &Record{AccessToken: token}, nil
}

// Save is not supported for environment variables (they are read-only).
func (e *EnvStore) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable storage is read-only")
}
