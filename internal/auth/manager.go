package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"linkedinmcp/internal/tokenstore"
)

// Credentials identifies the LinkedIn developer application. Immutable once
// loaded; sourced from configuration at Manager construction.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// tokenState is an immutable snapshot of the current token material. Mutation
// replaces the whole snapshot, so readers never observe a partial update.
type tokenState struct {
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// Manager is the single owner of OAuth token state. It mediates every
// credential-dependent operation: authorization URL construction, code
// exchange, refresh, and introspection.
//
// Snapshots are swapped atomically; the commit mutex is held only across the
// swap and never across a provider call. Concurrent refreshes are collapsed
// into one in-flight token-endpoint call.
type Manager struct {
	creds    Credentials
	provider ProviderClient
	store    tokenstore.Store
	logger   *slog.Logger

	state    atomic.Pointer[tokenState]
	commitMu sync.Mutex
	refresh  singleflight.Group

	lastPersisted atomic.Pointer[string]
	persistMu     sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager) error

// WithSeedToken seeds the manager with a pre-issued access token, making it
// usable without running the authorization flow.
func WithSeedToken(token string) Option {
	return func(m *Manager) error {
		if token != "" {
			m.state.Store(&tokenState{accessToken: token})
		}
		return nil
	}
}

// WithProviderClient substitutes the identity-provider client. Used by tests
// and by deployments pointing at mock providers.
func WithProviderClient(p ProviderClient) Option {
	return func(m *Manager) error {
		m.provider = p
		return nil
	}
}

// WithStore attaches persistent token storage. The store seeds the initial
// snapshot when no seed token was supplied, and receives write-backs when the
// refresh token rotates.
func WithStore(s tokenstore.Store) Option {
	return func(m *Manager) error {
		m.store = s
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) error {
		m.logger = l
		return nil
	}
}

// New creates a Manager. It fails when neither a (client id, client secret)
// pair nor a seed token is available: a manager constructed that way could
// never produce a usable token, so the misconfiguration surfaces at startup
// rather than on first use.
func New(creds Credentials, opts ...Option) (*Manager, error) {
	m := &Manager{
		creds:  creds,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if m.state.Load() == nil && m.store != nil {
		if rec, err := m.store.Load(context.Background()); err == nil {
			m.state.Store(&tokenState{
				accessToken:  rec.AccessToken,
				refreshToken: rec.RefreshToken,
				expiresAt:    rec.ExpiresAt,
			})
			m.rememberPersisted(rec.RefreshToken)
			m.logger.Info("seeded token state from store")
		} else if !errors.Is(err, tokenstore.ErrNotFound) {
			m.logger.Warn("failed to load stored token record", "error", err)
		}
	}

	hasCredentials := creds.ClientID != "" && creds.ClientSecret != ""
	hasSeed := m.state.Load() != nil && m.state.Load().accessToken != ""
	if !hasCredentials && !hasSeed {
		return nil, &AuthError{Reason: "linkedin oauth credentials not found: set a client id and secret, or supply a pre-issued access token"}
	}

	if m.provider == nil {
		m.provider = NewLinkedInProvider(creds)
	}

	return m, nil
}

// AuthorizationURL builds the provider redirect URL for the given scopes.
// An empty state is replaced with a generated value so callers always get
// CSRF protection.
func (m *Manager) AuthorizationURL(scopes []string, state string) (string, error) {
	if len(scopes) == 0 {
		return "", &AuthError{Reason: "failed to generate authorization url", Err: errors.New("at least one scope is required")}
	}
	if state == "" {
		state = uuid.NewString()
	}

	authURL, err := m.provider.AuthCodeURL(scopes, state)
	if err != nil {
		m.logger.Error("failed to generate authorization url", "error", err)
		return "", &AuthError{Reason: "failed to generate authorization url", Err: err}
	}

	m.logger.Info("generated authorization url", "scopes", scopes)
	return authURL, nil
}

// ExchangeCode trades an authorization code for tokens and commits them.
// The provider treats codes as single-use; reuse surfaces as the same
// AuthError as any other exchange failure.
func (m *Manager) ExchangeCode(ctx context.Context, code string) (TokenData, error) {
	td, err := m.provider.ExchangeCode(ctx, code)
	if err != nil {
		m.logger.Error("failed to exchange authorization code", "error", err)
		return TokenData{}, &AuthError{Reason: "failed to exchange authorization code", Err: err}
	}

	// An exchange response without a refresh token means this application
	// has no refresh capability, so any previous refresh token is dropped.
	m.commit(td, "")
	m.logger.Info("exchanged authorization code for access token")
	return td, nil
}

// Refresh trades the stored refresh token for a new access token. It fails
// locally, without a provider call, when no refresh token is present.
// Rotation is optional: when the provider issues no new refresh token, the
// old one remains valid. Concurrent callers share one in-flight provider call.
func (m *Manager) Refresh(ctx context.Context) (TokenData, error) {
	if st := m.state.Load(); st == nil || st.refreshToken == "" {
		return TokenData{}, &AuthError{Reason: "no refresh token available"}
	}

	v, err, _ := m.refresh.Do("refresh", func() (any, error) {
		st := m.state.Load()
		if st == nil || st.refreshToken == "" {
			return TokenData{}, &AuthError{Reason: "no refresh token available"}
		}

		td, err := m.provider.RefreshToken(ctx, st.refreshToken)
		if err != nil {
			m.logger.Error("failed to refresh access token", "error", err)
			return TokenData{}, &AuthError{Reason: "failed to refresh access token", Err: err}
		}

		m.commit(td, st.refreshToken)
		m.logger.Info("refreshed access token", "rotated", td.RefreshToken != "")
		return td, nil
	})
	if err != nil {
		return TokenData{}, err
	}
	return v.(TokenData), nil
}

// AccessToken returns the current access token. Expiry is not checked
// locally: the provider enforces it, and callers detect it through a failed
// downstream call followed by an explicit Refresh.
func (m *Manager) AccessToken() (string, error) {
	st := m.state.Load()
	if st == nil || st.accessToken == "" {
		return "", &AuthError{Reason: "no access token available: complete the oauth flow or supply a pre-issued token"}
	}
	return st.accessToken, nil
}

// Introspect reports the provider-side status of the current access token.
func (m *Manager) Introspect(ctx context.Context) (TokenInfo, error) {
	token, err := m.AccessToken()
	if err != nil {
		return TokenInfo{}, err
	}

	info, err := m.provider.Introspect(ctx, token)
	if err != nil {
		m.logger.Error("failed to introspect token", "error", err)
		return TokenInfo{}, &AuthError{Reason: "failed to introspect token", Err: err}
	}
	return info, nil
}

// IsAuthenticated collapses introspection into a boolean. Both the active
// flag and an "active" status are required; any error, including a missing
// token, degrades to false. This is the one deliberately lossy error path in
// the package.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	info, err := m.Introspect(ctx)
	if err != nil {
		return false
	}
	return info.Active && info.Status == "active"
}

// commit swaps in a new token snapshot. fallbackRefresh is the refresh token
// to keep when the provider issued none: the previous one during a refresh
// (no rotation), empty during an exchange (no refresh capability).
func (m *Manager) commit(td TokenData, fallbackRefresh string) {
	next := &tokenState{
		accessToken:  td.AccessToken,
		refreshToken: td.RefreshToken,
	}
	if next.refreshToken == "" {
		next.refreshToken = fallbackRefresh
	}
	if td.ExpiresIn > 0 {
		next.expiresAt = time.Now().Add(time.Duration(td.ExpiresIn) * time.Second)
	}

	m.commitMu.Lock()
	m.state.Store(next)
	m.commitMu.Unlock()

	m.persist(next)
}

// persist writes the snapshot back to the store when the refresh token
// changed. Persistence failures are logged, never surfaced: the in-memory
// token is still valid, only durability across restarts is lost.
func (m *Manager) persist(st *tokenState) {
	if m.store == nil || st.refreshToken == "" {
		return
	}

	last := ""
	if p := m.lastPersisted.Load(); p != nil {
		last = *p
	}
	if st.refreshToken == last {
		return
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	rec := &tokenstore.Record{
		AccessToken:  st.accessToken,
		RefreshToken: st.refreshToken,
		ExpiresAt:    st.expiresAt,
	}
	if err := m.store.Save(context.Background(), rec); err != nil {
		m.logger.Error("failed to persist token record", "error", err)
		return
	}
	m.rememberPersisted(st.refreshToken)
}

func (m *Manager) rememberPersisted(refreshToken string) {
	m.lastPersisted.Store(&refreshToken)
}
