// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for MarathonHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: MARATHONHUB_MONGO_URI, MARATHONHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "marathonhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Credential (JWT) configuration
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "JWT signing secret (must be strong in production)"},
	{Name: "jwt_issuer", Default: "https://app.marathonhub.org", Desc: "Issuer claim for minted and verified credentials"},
	{Name: "token_ttl", Default: "24h", Desc: "Credential lifetime (e.g., 24h, 12h)"},

	// University OIDC provider registration
	{Name: "oidc_issuer_url", Default: "", Desc: "OIDC provider issuer URL (blank disables OIDC login)"},
	{Name: "oidc_client_id", Default: "", Desc: "OIDC client ID"},
	{Name: "oidc_client_secret", Default: "", Desc: "OIDC client secret"},

	// Base URL for the OIDC callback
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public origin of this deployment"},

	// Login flow session tuning
	{Name: "login_flow_ttl", Default: "10m", Desc: "How long one login attempt may take (e.g., 10m)"},
	{Name: "login_flow_sweep_interval", Default: "5m", Desc: "Background sweep cadence for expired login flow sessions"},

	// Directory handle derivation
	{Name: "handle_email_suffix", Default: "@uky.edu", Desc: "Email suffix stripped from upn to derive the linkblue handle"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, MARATHONHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MARATHONHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),
		TokenTTL:  appValues.Duration("token_ttl", 24*time.Hour),

		OIDCIssuerURL:    appValues.String("oidc_issuer_url"),
		OIDCClientID:     appValues.String("oidc_client_id"),
		OIDCClientSecret: appValues.String("oidc_client_secret"),

		BaseURL: appValues.String("base_url"),

		LoginFlowTTL:           appValues.Duration("login_flow_ttl", 10*time.Minute),
		LoginFlowSweepInterval: appValues.Duration("login_flow_sweep_interval", 5*time.Minute),

		HandleEmailSuffix: appValues.String("handle_email_suffix"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
//
// MarathonHub validates the MongoDB URI format to catch configuration
// errors early, and refuses to start in production with the development
// signing secret: every credential in the system is only as strong as
// that secret.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if appCfg.JWTSecret == "" || appCfg.JWTSecret == "dev-only-change-me-please-0123456789ABCDEF" {
			return fmt.Errorf("jwt_secret must be set to a strong value in production")
		}
		if appCfg.OIDCIssuerURL != "" && appCfg.OIDCClientSecret == "" {
			return fmt.Errorf("oidc_client_secret is required when oidc_issuer_url is set")
		}
	}

	if appCfg.JWTIssuer == "" {
		return fmt.Errorf("jwt_issuer must not be blank")
	}

	return nil
}
