// Package session is the client side of the backend session API.
//
// After a successful sign-in the identity token is exchanged for a
// server-side session; signing out destroys it again:
//
//	backend, err := session.NewHTTPBackend("https://app.example.com",
//		session.WithMetrics(metrics),
//		session.WithLogger(logger),
//	)
//	err = backend.BeginSession(ctx, user.IDToken)
//	...
//	err = backend.EndSession(ctx)
//
// Non-2xx responses are returned as *BackendError.
package session
