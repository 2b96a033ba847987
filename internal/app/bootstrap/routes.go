// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	authapifeature "github.com/dalemusser/clinica/internal/app/features/authapi"
	authgooglefeature "github.com/dalemusser/clinica/internal/app/features/authgoogle"
	dashboardfeature "github.com/dalemusser/clinica/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/clinica/internal/app/features/errors"
	healthfeature "github.com/dalemusser/clinica/internal/app/features/health"
	loginfeature "github.com/dalemusser/clinica/internal/app/features/login"
	logoutfeature "github.com/dalemusser/clinica/internal/app/features/logout"
	medicosfeature "github.com/dalemusser/clinica/internal/app/features/medicos"
	pacientesfeature "github.com/dalemusser/clinica/internal/app/features/pacientes"
	pagesfeature "github.com/dalemusser/clinica/internal/app/features/pages"
	registrofeature "github.com/dalemusser/clinica/internal/app/features/registro"
	statusfeature "github.com/dalemusser/clinica/internal/app/features/status"
	turnosfeature "github.com/dalemusser/clinica/internal/app/features/turnos"
	loginstore "github.com/dalemusser/clinica/internal/app/store/logins"
	medicostore "github.com/dalemusser/clinica/internal/app/store/medicos"
	metricsstore "github.com/dalemusser/clinica/internal/app/store/metrics"
	"github.com/dalemusser/clinica/internal/app/store/oauthstate"
	pacientestore "github.com/dalemusser/clinica/internal/app/store/pacientes"
	turnostore "github.com/dalemusser/clinica/internal/app/store/turnos"
	userstore "github.com/dalemusser/clinica/internal/app/store/users"
	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/app/system/metrics"
	"github.com/dalemusser/clinica/internal/app/system/ratelimit"
	"github.com/dalemusser/clinica/internal/app/system/render"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const redisSessionPrefix = "clinica:session:"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := newSessionManager(appCfg, deps, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	limiter := background.loginLimiter
	if limiter == nil {
		limiter = ratelimit.New(appCfg.LoginRatePerMinute, appCfg.LoginRateBurst)
	}

	return newRouter(routerDeps{
		db:       deps,
		sessions: sessionMgr,
		render:   render.Templates{},
		limiter:  limiter,
		google: authgooglefeature.Config{
			ClientID:     appCfg.GoogleClientID,
			ClientSecret: appCfg.GoogleClientSecret,
			RedirectURL:  appCfg.GoogleRedirectURL(),
		},
		database: appCfg.MongoDatabase,
	}, logger), nil
}

// newSessionManager picks the session store named by session_backend.
func newSessionManager(appCfg AppConfig, deps DBDeps, secure bool, logger *zap.Logger) (*auth.SessionManager, error) {
	if appCfg.SessionBackend != backendRedis {
		return auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	}

	opts := auth.CookieOptions(appCfg.SessionDomain, appCfg.SessionMaxAge, secure)
	store := auth.NewRedisStore(deps.Redis, redisSessionPrefix, opts, []byte(appCfg.SessionKey))
	logger.Info("session store initialized",
		zap.String("backend", backendRedis),
		zap.Bool("secure", secure),
		zap.String("domain", appCfg.SessionDomain))
	return auth.NewSessionManagerWithStore(store, appCfg.SessionName, logger), nil
}

// routerDeps is everything newRouter wires. Tests build it directly.
type routerDeps struct {
	db       DBDeps
	sessions *auth.SessionManager
	render   render.Renderer
	limiter  *ratelimit.Limiter
	google   authgooglefeature.Config
	database string

	// profiles overrides the Google profile fetcher when set.
	profiles authgooglefeature.ProfileFetcher
}

func newRouter(d routerDeps, logger *zap.Logger) http.Handler {
	db := d.db.MongoDatabase
	users := userstore.New(db)
	pacientes := pacientestore.New(db)
	medicos := medicostore.New(db)
	turnos := turnostore.New(db)
	logins := loginstore.New(db)
	states := oauthstate.New(db)
	counts := metricsstore.New(db)

	sm := d.sessions
	r := chi.NewRouter()

	errorsHandler := errorsfeature.NewHandler(d.render)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sm.LoadSessionUser)

	// Operational endpoints
	var redisPinger healthfeature.Pinger
	if d.db.Redis != nil {
		rdb := d.db.Redis
		redisPinger = healthfeature.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(d.db.MongoClient, redisPinger, logger)))
	r.Mount("/api/status", statusfeature.Routes(statusfeature.NewHandler(d.database, logger)))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Authentication API
	googleHandler := authgooglefeature.NewHandler(d.google, users, states, logins, sm, logger)
	if d.profiles != nil {
		googleHandler.Profiles = d.profiles
	}
	authHandler := authapifeature.NewHandler(users, pacientes, logins, d.limiter, sm, logger)
	r.Mount("/api/auth", authapifeature.Routes(authHandler, sm, authgooglefeature.Routes(googleHandler)))

	// Entity APIs
	r.Mount("/api/pacientes", pacientesfeature.Routes(pacientesfeature.NewHandler(pacientes, logger), sm))
	r.Mount("/api/medicos", medicosfeature.Routes(medicosfeature.NewHandler(medicos, logger), sm))
	r.Mount("/api/turnos", turnosfeature.Routes(turnosfeature.NewHandler(turnos, pacientes, medicos, logger), sm))

	// Public pages
	r.Mount("/login", loginfeature.Routes(loginfeature.NewHandler(d.render, d.google.Configured(), logger)))
	r.Mount("/registro", registrofeature.Routes(registrofeature.NewHandler(d.render, logger)))
	r.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(sm, logger), sm))

	// Dashboards: Administrativo at "/", medico and paciente under /dashboard
	dashboardHandler := dashboardfeature.NewHandler(pacientes, medicos, turnos, counts, d.render, logger)
	r.Method(http.MethodGet, "/", dashboardfeature.AdminHandler(dashboardHandler, sm))
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sm))

	// Management pages (/pacientes, /medicos, /turnos, /usuarios)
	pagesHandler := pagesfeature.NewHandler(pacientes, medicos, turnos, users, d.render, logger)
	r.Mount("/", pagesfeature.Routes(pagesHandler, sm))

	return r
}
