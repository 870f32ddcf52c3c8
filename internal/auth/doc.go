// Package auth owns the LinkedIn OAuth 2.0 token lifecycle.
//
// The Manager is the single owner of token state: it builds authorization
// URLs, exchanges authorization codes, refreshes access tokens, and
// introspects them. Token state is an immutable snapshot replaced atomically
// on mutation; no lock is ever held across a provider call.
//
// Two error types cover the package's failure modes:
//   - AuthError: missing/invalid credentials, missing token, or a failed
//     exchange, refresh, or introspection
//   - APIError: a non-success HTTP status from a downstream API call made
//     through the Guard with a valid token
//
// Tools never touch the Manager directly for API calls; they go through
// Guard.WithToken, which centralizes token lookup, status normalization, and
// logging.
package auth
