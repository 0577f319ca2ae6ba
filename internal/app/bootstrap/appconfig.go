// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, timeouts); AppConfig is everything specific to MarathonHub:
// the MongoDB connection, the credential signing material, and the
// university OIDC provider registration.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// Credential (JWT) configuration
	JWTSecret string        // HMAC signing secret (must be strong in production)
	JWTIssuer string        // Issuer claim stamped on and required of every token
	TokenTTL  time.Duration // Credential lifetime (default: 24h)

	// University OIDC provider registration
	OIDCIssuerURL    string // Provider issuer URL (discovery runs against it)
	OIDCClientID     string // OAuth2 client ID registered with the provider
	OIDCClientSecret string // OAuth2 client secret

	// BaseURL is this deployment's public origin; the OIDC callback URL
	// is derived from it.
	BaseURL string // e.g., "https://app.marathonhub.org" or "http://localhost:3000"

	// Login flow session tuning
	LoginFlowTTL           time.Duration // How long one login attempt may take (default: 10m)
	LoginFlowSweepInterval time.Duration // Background sweep cadence for expired sessions (default: 5m)

	// HandleEmailSuffix is stripped from the provider's upn claim to
	// derive the directory handle (default: "@uky.edu").
	HandleEmailSuffix string
}
