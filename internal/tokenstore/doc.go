// Package tokenstore provides persistent storage for LinkedIn OAuth token
// records outside the process lifetime of the server.
//
// Supports three storage backends with different security and deployment tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Env: Read-only seeding from an environment variable holding a pre-issued access token
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//
// The OAuth manager treats a store as optional: without one, tokens live only
// in process memory. With a writable store, refresh-token rotation survives
// restarts.
package tokenstore
