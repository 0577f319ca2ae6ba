// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authoidcfeature "github.com/dalemusser/marathonhub/internal/app/features/authoidc"
	healthfeature "github.com/dalemusser/marathonhub/internal/app/features/health"
	logoutfeature "github.com/dalemusser/marathonhub/internal/app/features/logout"
	userinfofeature "github.com/dalemusser/marathonhub/internal/app/features/userinfo"
	loginflowstore "github.com/dalemusser/marathonhub/internal/app/store/loginflow"
	peoplestore "github.com/dalemusser/marathonhub/internal/app/store/people"
	"github.com/dalemusser/marathonhub/internal/app/system/auth"
	"github.com/dalemusser/marathonhub/internal/app/system/credential"
	"github.com/dalemusser/marathonhub/internal/app/system/identity"
	"github.com/dalemusser/marathonhub/internal/app/system/oidcclient"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. MarathonHub assembles the
// credential codec, the OIDC client, and the stores here, applies the
// token-verifying middleware globally, and mounts the feature routers:
// health, the OIDC login flow, logout, and the user info endpoint.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"

	codec, err := credential.New([]byte(appCfg.JWTSecret), appCfg.JWTIssuer, appCfg.TokenTTL)
	if err != nil {
		logger.Error("credential codec init failed", zap.Error(err))
		return nil, err
	}

	provider := oidcclient.New(
		appCfg.OIDCIssuerURL,
		appCfg.OIDCClientID,
		appCfg.OIDCClientSecret,
		strings.TrimSuffix(appCfg.BaseURL, "/")+"/auth/oidc/callback",
	)

	people := peoplestore.New(deps.MarathonHubMongoDatabase)
	flows := loginflowstore.New(deps.MarathonHubMongoDatabase, appCfg.LoginFlowTTL)
	resolver := identity.New(people, logger)

	r := chi.NewRouter()

	// Global auth middleware: verifies the token cookie or bearer header
	// and loads the credential into context. Requests without a valid
	// token proceed as anonymous; route guards decide what that may see.
	r.Use(auth.Authenticator(codec, secure, logger))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MarathonHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// OIDC login flow: redirect to the provider and the form-post callback
	oidcHandler := &authoidcfeature.Handler{
		Log:           logger,
		Provider:      provider,
		Flows:         flows,
		Resolver:      resolver,
		Codec:         codec,
		HandleSuffix:  appCfg.HandleEmailSuffix,
		SecureCookies: secure,
	}
	r.Mount("/auth/oidc", authoidcfeature.Routes(oidcHandler))

	logoutHandler := logoutfeature.NewHandler(secure, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Who-am-I endpoint consumed by the front end
	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	return r, nil
}
