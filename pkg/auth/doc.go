// Package auth signs the operator in and out through one of three
// interchangeable strategies.
//
// # Strategies
//
// The strategy is chosen once, from configuration, when the Facade is built:
//
//	auth enabled | emulator | strategy
//	-------------+----------+---------
//	false        | any      | disabled
//	true         | true     | emulated
//	true         | false    | live
//
// Disabled fails every operation with ErrAuthUnavailable. Emulated prompts for
// an email and signs in against the local emulator, creating the account on
// first use. Live sends the operator through the identity provider's redirect
// flow.
//
// # Usage
//
//	facade, err := auth.New(cfg.Auth, auth.Dependencies{
//		Redirect: oidcProvider,
//		Sessions: backend,
//		Logger:   logger,
//		Metrics:  metrics,
//	})
//
//	// Returns when ctx is cancelled, typically once the callback arrives
//	err = facade.SignInWithRedirect(ctx)
//
//	// Exchanges the resulting ID token for a backend session
//	err = facade.HandleRedirectResult(ctx)
//
//	err = facade.SignOut(ctx)
package auth
