// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	dashboardfeature "github.com/meeralabs/portal/internal/app/features/dashboard"
	errorsfeature "github.com/meeralabs/portal/internal/app/features/errors"
	healthfeature "github.com/meeralabs/portal/internal/app/features/health"
	homefeature "github.com/meeralabs/portal/internal/app/features/home"
	loginfeature "github.com/meeralabs/portal/internal/app/features/login"
	logoutfeature "github.com/meeralabs/portal/internal/app/features/logout"
	pagesfeature "github.com/meeralabs/portal/internal/app/features/pages"
	"github.com/meeralabs/portal/internal/app/system/auth"
	"github.com/meeralabs/portal/internal/app/system/navigation"
	"github.com/meeralabs/portal/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It boots the template engine, applies session
// middleware, and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	loc, err := time.LoadLocation(appCfg.DisplayTimezone)
	if err != nil {
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)

	// Global auth middleware: loads the SessionUser into context if a token is present.
	r.Use(sessionMgr.LoadSession)

	// Health check and metrics for load balancers and scrapers
	healthHandler := healthfeature.NewHandler(deps.Backend, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", deps.Metrics.Handler())

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.Backend, sessionMgr, errLog, deps.Metrics, logger)
	if appCfg.LoginIPLimit > 0 && appCfg.LoginEmailLimit > 0 {
		loginHandler.Limiter = ratelimit.NewLoginLimiter(appCfg.LoginIPLimit, appCfg.LoginEmailLimit)
	}
	r.Mount(navigation.LoginPath, loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(deps.Backend, sessionMgr, deps.Metrics, logger)
	r.Mount(navigation.LogoutPath, logoutfeature.Routes(logoutHandler, sessionMgr))

	// Dashboard
	dashboardHandler := dashboardfeature.NewHandler(deps.Backend, sessionMgr, deps.Metrics, errLog, dashboardfeature.Waits{
		Identity:     appCfg.IdentityWait,
		Interactions: appCfg.InteractionsWait,
		Fetch:        appCfg.FetchTimeout,
	}, logger)
	dashboardHandler.Location = loc
	r.Mount(navigation.DashboardPath, dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Nav destinations
	pagesHandler := pagesfeature.NewHandler(logger)
	r.Mount(navigation.PerceptionPath, pagesHandler.PerceptionRouter(sessionMgr))
	r.Mount(navigation.LogsPath, pagesHandler.LogsRouter(sessionMgr))
	r.Mount(navigation.MonitorPath, pagesHandler.MonitorRouter(sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	return r, nil
}
