// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	activityfeature "github.com/necros240/campusfeedback/internal/app/features/activity"
	adminfeature "github.com/necros240/campusfeedback/internal/app/features/admin"
	authgooglefeature "github.com/necros240/campusfeedback/internal/app/features/authgoogle"
	clubsfeature "github.com/necros240/campusfeedback/internal/app/features/clubs"
	feedfeature "github.com/necros240/campusfeedback/internal/app/features/feed"
	healthfeature "github.com/necros240/campusfeedback/internal/app/features/health"
	landingfeature "github.com/necros240/campusfeedback/internal/app/features/landing"
	loginfeature "github.com/necros240/campusfeedback/internal/app/features/login"
	masterfeature "github.com/necros240/campusfeedback/internal/app/features/master"
	profilefeature "github.com/necros240/campusfeedback/internal/app/features/profile"
	streamfeature "github.com/necros240/campusfeedback/internal/app/features/stream"
	submitfeature "github.com/necros240/campusfeedback/internal/app/features/submit"
	"github.com/necros240/campusfeedback/internal/app/store/audit"
	"github.com/necros240/campusfeedback/internal/app/store/oauthstate"
	userstore "github.com/necros240/campusfeedback/internal/app/store/users"
	"github.com/necros240/campusfeedback/internal/app/system/auditlog"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/realtime"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"go.uber.org/zap"
)

const serviceVersion = "0.1.0"

// BuildHandler constructs the root HTTP handler for the feedback service.
//
// WAFFLE calls this after configuration, DB connection, schema setup, and
// Startup have completed. It initializes the session store, installs the
// per-request user loader, creates the realtime broker shared by every
// mutating feature, and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user state on every request so role changes bite immediately.
	auth.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	errLog := respond.NewErrorLogger(logger)
	auditLog := auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	broker := realtime.NewBroker()

	r := chi.NewRouter()
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Get("/health", healthHandler.Serve)

	// Public pages
	r.Mount("/", landingfeature.Routes(landingfeature.NewHandler(serviceVersion)))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, errLog, auditLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))
	r.Post("/logout", loginHandler.HandleLogout)

	googleHandler := authgooglefeature.NewHandler(
		deps.MongoDatabase,
		auditLog,
		oauthstate.New(deps.MongoDatabase),
		appCfg.GoogleClientID,
		appCfg.GoogleClientSecret,
		appCfg.BaseURL,
		logger,
	)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Application surfaces
	feedHandler := feedfeature.NewHandler(deps.MongoDatabase, broker, errLog, auditLog, logger)
	r.Mount("/api/feedback", feedfeature.Routes(feedHandler))

	submitHandler := submitfeature.NewHandler(deps.MongoDatabase, broker, errLog, logger)
	r.Mount("/api/submit", submitfeature.Routes(submitHandler))

	activityHandler := activityfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Mount("/api/activity", activityfeature.Routes(activityHandler))

	clubsHandler := clubsfeature.NewHandler(deps.MongoDatabase, broker, errLog, logger)
	r.Mount("/api/clubs", clubsfeature.Routes(clubsHandler))

	adminHandler := adminfeature.NewHandler(deps.MongoDatabase, broker, errLog, auditLog, logger)
	r.Mount("/api/admin", adminfeature.Routes(adminHandler))

	masterHandler := masterfeature.NewHandler(deps.MongoDatabase, broker, errLog, auditLog, logger)
	r.Mount("/api/master", masterfeature.Routes(masterHandler))

	profileHandler := profilefeature.NewHandler(deps.MongoDatabase, broker, errLog, logger)
	r.Mount("/api/profile", profilefeature.Routes(profileHandler))

	// Live collection snapshots
	streamHandler := streamfeature.NewHandler(deps.MongoDatabase, broker, logger)
	r.Mount("/stream", streamfeature.Routes(streamHandler))

	return r, nil
}
