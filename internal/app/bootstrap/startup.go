// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/dalemusser/marathonhub/internal/app/store/loginflow"
	"github.com/dalemusser/marathonhub/internal/app/system/workers"
)

// loginFlowCleanup is started here and stopped in Shutdown.
var loginFlowCleanup *workers.LoginFlowCleanup

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
//
// MarathonHub starts the background worker that sweeps expired login
// flow sessions; the TTL index removes them eventually, the sweep keeps
// the collection small when the TTL monitor lags.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	flows := loginflow.New(deps.MarathonHubMongoDatabase, appCfg.LoginFlowTTL)
	loginFlowCleanup = workers.NewLoginFlowCleanup(flows, logger, appCfg.LoginFlowSweepInterval)
	loginFlowCleanup.Start()
	return nil
}
