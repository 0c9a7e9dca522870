// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	dashboardfeature "github.com/dalemusser/roomshare/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/roomshare/internal/app/features/errors"
	groupsfeature "github.com/dalemusser/roomshare/internal/app/features/groups"
	healthfeature "github.com/dalemusser/roomshare/internal/app/features/health"
	loginfeature "github.com/dalemusser/roomshare/internal/app/features/login"
	logoutfeature "github.com/dalemusser/roomshare/internal/app/features/logout"
	passwordfeature "github.com/dalemusser/roomshare/internal/app/features/password"
	signupfeature "github.com/dalemusser/roomshare/internal/app/features/signup"
	verifyotpfeature "github.com/dalemusser/roomshare/internal/app/features/verifyotp"
	welcomefeature "github.com/dalemusser/roomshare/internal/app/features/welcome"
	"github.com/dalemusser/roomshare/internal/app/store/audit"
	"github.com/dalemusser/roomshare/internal/app/system/apiclient"
	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/layout"
	"github.com/dalemusser/roomshare/internal/app/system/metrics"
	"github.com/dalemusser/roomshare/internal/app/system/ratelimit"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// RoomShare boots the template engine, builds the shared API client and
// session manager, then mounts the features. Every page route sits behind
// LoadSession, which runs the per-request session bootstrap; health, metrics
// and static assets are mounted outside it so they never touch the backend.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
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

	m := metrics.New()

	var store *audit.Store
	if deps.MongoDatabase != nil {
		store = audit.New(deps.MongoDatabase)
	}
	auditLog := auditlog.New(store, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Group: appCfg.AuditLogGroup,
	})

	sessionMgr.Observe(auditLog, m)
	viewdata.Init(sessionMgr)

	return newRouter(routerDeps{
		SessionMgr:  sessionMgr,
		API:         apiclient.New(appCfg.APIBaseURL, appCfg.APITimeout, m, logger),
		AuditLog:    auditLog,
		Metrics:     m,
		Limiter:     deps.FormLimiter,
		MongoClient: deps.MongoClient,
		MaxUploadMB: appCfg.MaxUploadMB,
		Secure:      secure,
		CSRFKey:     csrfKey(appCfg),
		Log:         logger,
	}), nil
}

// routerDeps is everything the router needs once the process-wide pieces
// are built. Render replaces template rendering on every page when set.
type routerDeps struct {
	SessionMgr  *auth.SessionManager
	API         *apiclient.Client
	AuditLog    *auditlog.Logger
	Metrics     *metrics.Metrics
	Limiter     *ratelimit.FormLimiter
	MongoClient *mongo.Client
	MaxUploadMB int
	Secure      bool
	CSRFKey     []byte
	Render      viewdata.Render
	Log         *zap.Logger
}

func newRouter(d routerDeps) chi.Router {
	render := d.Render
	if render == nil {
		render = viewdata.Templates
	}
	sm, logger := d.SessionMgr, d.Log

	errorsHandler := errorsfeature.NewHandler(logger)
	errorsHandler.Render = render

	r := chi.NewRouter()

	// Unknown paths go home. Set before mounting so subrouters inherit it.
	r.NotFound(errorsHandler.NotFound)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(d.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", d.Metrics.Handler())

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Group(func(pr chi.Router) {
		if !d.Secure {
			pr.Use(markPlaintext)
		}
		pr.Use(csrf.Protect(d.CSRFKey,
			csrf.Secure(d.Secure),
			csrf.Path("/"),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.ErrorHandler(http.HandlerFunc(errorsHandler.CSRFFailure)),
		))
		pr.Use(sm.LoadSession(d.API))

		shell := layout.Shell(render)

		// Public: only reachable while logged out
		loginHandler := loginfeature.NewHandler(sm, d.AuditLog, d.Metrics, d.Limiter, logger)
		loginHandler.Render = render
		pr.Mount("/login", loginfeature.Routes(loginHandler, sm))

		signupHandler := signupfeature.NewHandler(sm, d.AuditLog, d.Metrics, d.Limiter, logger)
		signupHandler.Render = render
		pr.Mount("/signup", signupfeature.Routes(signupHandler, sm))

		otpHandler := verifyotpfeature.NewHandler(sm, d.AuditLog, logger)
		otpHandler.Render = render
		pr.Mount("/verify-otp", verifyotpfeature.Routes(otpHandler, sm))

		passwordHandler := passwordfeature.NewHandler(sm, d.AuditLog, d.Metrics, d.Limiter, logger)
		passwordHandler.Render = render
		pr.Mount("/forgot-password", passwordfeature.ForgotRoutes(passwordHandler, sm))
		pr.Mount("/reset-password", passwordfeature.ResetRoutes(passwordHandler, sm))

		// Unguarded
		logoutHandler := logoutfeature.NewHandler(sm, d.AuditLog, d.Metrics, logger)
		pr.Mount("/logout", logoutfeature.Routes(logoutHandler))

		// Protected, no group required
		welcomeHandler := welcomefeature.NewHandler(logger)
		welcomeHandler.Render = render
		pr.Mount("/welcome", welcomefeature.Routes(welcomeHandler, sm))

		groupsHandler := groupsfeature.NewHandler(sm, d.AuditLog, logger)
		groupsHandler.Render = render
		pr.Mount("/create-group", groupsfeature.CreateRoutes(groupsHandler, sm))

		// Protected, inside the layout shell
		pr.Mount("/group", groupsfeature.Routes(groupsHandler, sm, shell))

		dashboardHandler := dashboardfeature.NewHandler(sm, d.AuditLog, d.MaxUploadMB, logger)
		dashboardHandler.Render = render
		pr.Mount("/", dashboardfeature.Routes(dashboardHandler, sm, shell))
	})

	return r
}

// markPlaintext tells gorilla/csrf the request arrived over plain HTTP,
// which relaxes its HTTPS-only Referer check for local development.
func markPlaintext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

// csrfKey returns the configured key, or one derived from the session key.
func csrfKey(appCfg AppConfig) []byte {
	if appCfg.CSRFKey != "" {
		return []byte(appCfg.CSRFKey)
	}
	sum := blake2b.Sum256([]byte("csrf:" + appCfg.SessionKey))
	return sum[:]
}
