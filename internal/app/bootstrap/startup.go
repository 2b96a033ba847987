// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/clinica/internal/app/resources"
	userstore "github.com/dalemusser/clinica/internal/app/store/users"
	"github.com/dalemusser/clinica/internal/app/system/ratelimit"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/clinica/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

const limiterSweepInterval = 5 * time.Minute

// background holds the in-process state created in Startup and torn down in
// Shutdown.
var background struct {
	loginLimiter *ratelimit.Limiter
	sweeper      *workers.LimiterSweep
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	applyTimeouts(appCfg, logger)
	resources.LoadSharedTemplates()

	actx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := ensureAdmin(actx, userstore.New(deps.MongoDatabase), appCfg.AdminUsername, appCfg.AdminPassword, logger); err != nil {
		logger.Error("admin bootstrap failed", zap.Error(err))
		return err
	}

	background.loginLimiter = ratelimit.New(appCfg.LoginRatePerMinute, appCfg.LoginRateBurst)
	background.sweeper = workers.NewLimiterSweep(background.loginLimiter, logger, limiterSweepInterval)
	background.sweeper.Start()
	return nil
}

func applyTimeouts(appCfg AppConfig, logger *zap.Logger) {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
	})
	cur := timeouts.Current()
	logger.Info("database timeouts",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium))
}
