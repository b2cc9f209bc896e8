// Package httputil provides the HTTP middleware the callback server runs
// behind.
//
// # Middleware
//
//	router.Use(httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	))
//
// RequestIDMiddleware runs first so the logging middleware can attach the
// request ID to the request-scoped logger.
package httputil
