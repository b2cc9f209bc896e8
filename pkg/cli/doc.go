// Package cli provides the signon command-line interface.
//
// # Overview
//
// This package implements the `signon` tool, which signs an operator in to
// the backend with whichever strategy the configuration selects and keeps
// the resulting session.
//
// # Commands
//
// status: Show the selected strategy and its connection parameters
//
//	signon status
//	signon status --check  # also probe the session backend and redirect store
//
// login: Sign in and start a backend session
//
//	signon login
//	signon login --timeout 2m
//
// With the live strategy, login listens on the redirect URL's host and port,
// prints the identity provider's sign-in URL, and waits until the browser is
// sent back to the callback. With the emulator it asks for an email instead.
// When metrics are enabled the loopback server also serves /metrics; it
// always serves /healthz.
//
// logout: Sign out of the identity provider and end the backend session
//
//	signon logout
//
// # Configuration
//
// Commands read the configuration loaded by pkg/config; see that package for
// the environment variables.
//
// # Related Packages
//
//   - pkg/auth: Strategy selection and the sign-in facade
//   - pkg/identity: Identity provider clients and the redirect callback
//   - pkg/session: Backend session client
package cli
