// Package identity provides clients for the identity provider that signon
// signs operators in with.
//
// # Redirect Sign-In
//
// OIDCProvider runs the authorization code flow with PKCE against an OpenID
// Connect issuer. A redirect is started with SignInWithRedirect and its
// outcome is read back with GetRedirectResult once the issuer has sent the
// browser to the callback:
//
//	store := identity.NewMemoryRedirectStore(10 * time.Minute)
//	provider, err := identity.NewOIDCProvider(ctx, identity.OIDCConfig{
//		IssuerURL:   "https://accounts.google.com",
//		ClientID:    clientID,
//		RedirectURL: "http://localhost:8085/auth/callback",
//	}, store, identity.WriterNavigator{W: os.Stderr})
//
//	callback, _ := identity.NewCallbackHandler(store, redirectURL, logger)
//	callback.RegisterRoutes(router)
//
// Redirect state lives in a RedirectStore. MemoryRedirectStore suits a single
// process; RedisRedirectStore lets the callback be served by a different
// process than the one that started the redirect.
//
// # Emulator
//
// EmulatorProvider talks to the local Identity Toolkit emulator's email and
// password endpoints:
//
//	provider := identity.NewEmulatorProvider("localhost:9099", apiKey)
//	cred, err := provider.SignInWithEmailAndPassword(ctx, email, password)
//	if identity.IsUserNotFound(err) {
//		cred, err = provider.CreateUserWithEmailAndPassword(ctx, email, password)
//	}
//
// # Errors
//
// Provider failures are returned as *ProviderError carrying an auth/ code.
// Use ErrorCode or IsUserNotFound to inspect them.
package identity
