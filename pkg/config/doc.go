// Package config loads signon configuration from defaults, an optional YAML
// file and environment variables.
//
// # Sources
//
// Values are applied in order, later sources winning:
//
//  1. Default()
//  2. the YAML file named by SIGNON_CONFIG_FILE
//  3. environment variables
//
// # Environment
//
// Strategy selection:
//
//	SIGNON_AUTH_ENABLED="true"
//	SIGNON_AUTH_EMULATOR="false"
//
// Identity provider:
//
//	SIGNON_API_KEY="..."
//	SIGNON_AUTH_DOMAIN="example.firebaseapp.com"
//	SIGNON_PROJECT_ID="example"
//	SIGNON_OIDC_ISSUER_URL="https://accounts.google.com"
//	SIGNON_OIDC_CLIENT_ID="..."
//	SIGNON_OIDC_CLIENT_SECRET="..."
//	SIGNON_OIDC_REDIRECT_URL="http://localhost:8085/auth/callback"
//
// Session backend and redirect state:
//
//	SIGNON_SESSION_URL="https://app.example.com"
//	SIGNON_REDIRECT_STORE="memory"  # memory, redis
//	SIGNON_REDIS_URL="redis://localhost:6379"
//	SIGNON_REDIRECT_TTL="10m"
//
// Observability:
//
//	SIGNON_LOG_LEVEL="info"
//	SIGNON_METRICS_ENABLED="false"
//	SIGNON_OTEL_ENABLED="false"
//	SIGNON_OTEL_ENDPOINT="localhost:4317"
//
// The emulator address is fixed at localhost:9099 and cannot be configured.
package config
