package cmd

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"slices"

	"dharmaverse/config"
	_ "dharmaverse/docs"
	"dharmaverse/handlers"
	"dharmaverse/media"
	"dharmaverse/middleware"
	"dharmaverse/models"
	"dharmaverse/ratelimit"
	"dharmaverse/scheduler"
	"dharmaverse/services"
	"dharmaverse/storage"
	"dharmaverse/utils"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title DharmaVerse API
// @version 1.0
// @description Spiritual media platform: range-aware video streaming, live streams, challenges, library and achievements.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token minted with dharmaverse token. Format: Bearer {token}

type app struct {
	cfg    *config.Config
	issuer *utils.TokenIssuer

	videos       *handlers.VideoHandler
	live         *handlers.LiveStreamHandler
	challenges   *handlers.ChallengeHandler
	purchases    *handlers.PurchaseHandler
	achievements *handlers.AchievementHandler
	admin        *handlers.AdminHandler
	health       *handlers.HealthHandler

	uploadLimiter *ratelimit.Store
	liveLimiter   *ratelimit.Store
	submitLimiter *ratelimit.Store

	scheduler *scheduler.Scheduler
}

// newApp wires services, handlers and background jobs over db.
func newApp(cfg *config.Config, db *sql.DB) *app {
	exec := services.NewSQLExecutor(db)
	moderator := services.NewModerator(cfg.Moderation.Keywords, cfg.Moderation.Categories)

	videoService := services.NewVideoService(exec, moderator)
	streamService := services.NewLiveStreamService(exec, moderator)
	challengeService := services.NewChallengeService(exec)
	purchaseService := services.NewPurchaseService(exec)
	achievementService := services.NewAchievementService(exec)
	activityService := services.NewActivityService(exec)
	dashboard := services.NewDashboardService(videoService, streamService, challengeService, purchaseService, activityService)

	var signer *utils.URLSigner
	if cfg.Stream.SignedLinks {
		signer = utils.NewURLSigner(cfg.SigningSecret())
	}

	responder := media.NewResponder(
		media.WithChunkSize(cfg.Stream.ChunkSize),
		media.WithBandwidth(cfg.Stream.MaxBytesPerSecond),
	)

	newLimiter := func() *ratelimit.Store {
		return ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.IdleTTL)
	}

	a := &app{
		cfg:    cfg,
		issuer: utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		videos: handlers.NewVideoHandler(handlers.VideoHandlerConfig{
			Videos:         videoService,
			Activity:       activityService,
			VideoStore:     storage.NewLocal(cfg.Storage.VideoDir, cfg.Storage.MaxVideoSize, "vid"),
			ThumbnailStore: storage.NewLocal(cfg.Storage.ThumbnailDir, cfg.Storage.MaxThumbnailSize, "thumb"),
			Responder:      responder,
			Signer:         signer,
			LinkTTL:        cfg.Stream.LinkTTL,
			PublicURL:      cfg.Server.PublicURL,
		}),
		live:          handlers.NewLiveStreamHandler(streamService, activityService),
		challenges:    handlers.NewChallengeHandler(challengeService),
		purchases:     handlers.NewPurchaseHandler(purchaseService),
		achievements:  handlers.NewAchievementHandler(achievementService),
		admin:         handlers.NewAdminHandler(activityService, dashboard),
		health:        handlers.NewHealthHandler(exec),
		uploadLimiter: newLimiter(),
		liveLimiter:   newLimiter(),
		submitLimiter: newLimiter(),
	}

	a.scheduler = scheduler.New(cfg.Scheduler.Interval,
		scheduler.ExpireLiveStreams(streamService, activityService, cfg.Scheduler.LiveStreamMaxAge, utils.Now),
		scheduler.SweepRateLimits(a.uploadLimiter, a.liveLimiter, a.submitLimiter),
	)
	return a
}

// routes builds the HTTP handler tree.
func (a *app) routes() http.Handler {
	mux := http.NewServeMux()

	base := []func(http.HandlerFunc) http.HandlerFunc{
		middleware.LoggingMiddleware,
		middleware.Recovery,
		middleware.CORSMiddleware(a.cfg.Server.AllowedOrigins),
	}
	chain := func(h http.HandlerFunc, extra ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
		return middleware.ChainMiddleware(h, append(slices.Clone(base), extra...)...)
	}

	optionalAuth := middleware.OptionalAuth(a.issuer)
	auth := middleware.AuthMiddleware(a.issuer)
	moderators := middleware.RequireRoles(models.RoleModerator, models.RoleAdmin)
	admins := middleware.RequireRoles(models.RoleAdmin)

	// Swagger
	mux.HandleFunc("GET /swagger/", httpSwagger.WrapHandler)

	// Platform
	mux.HandleFunc("GET /{$}", chain(a.health.Home))
	mux.HandleFunc("GET /api/health", chain(a.health.Health))
	mux.HandleFunc("OPTIONS /", chain(func(w http.ResponseWriter, r *http.Request) {}))
	mux.HandleFunc("/", chain(notFound))

	// Auth
	mux.HandleFunc("GET /api/auth/me", chain(handlers.Me, auth))

	// Videos
	mux.HandleFunc("GET /api/videos", chain(a.videos.List, optionalAuth))
	mux.HandleFunc("POST /api/videos/upload", chain(a.videos.Upload, middleware.RateLimit(a.uploadLimiter), optionalAuth))
	mux.HandleFunc("GET /api/videos/stream/{id}", chain(a.videos.Stream))
	mux.HandleFunc("GET /api/videos/thumbnail/{id}", chain(a.videos.Thumbnail))
	mux.HandleFunc("PUT /api/videos/approve/{id}", chain(a.videos.Approve, auth, moderators))
	mux.HandleFunc("DELETE /api/videos/{id}", chain(a.videos.Delete, auth, admins))

	// Live streams
	mux.HandleFunc("GET /api/videos/live", chain(a.live.List))
	mux.HandleFunc("POST /api/videos/live/start", chain(a.live.Start, middleware.RateLimit(a.liveLimiter), optionalAuth))
	mux.HandleFunc("POST /api/videos/live/end/{id}", chain(a.live.End, optionalAuth))
	mux.HandleFunc("PUT /api/videos/live/approve/{id}", chain(a.live.Approve, auth, moderators))

	// Challenges
	mux.HandleFunc("GET /api/challenges", chain(a.challenges.List))
	mux.HandleFunc("GET /api/challenges/{id}", chain(a.challenges.Get))
	mux.HandleFunc("GET /api/challenges/{id}/solution", chain(a.challenges.Solution))
	mux.HandleFunc("POST /api/challenges/submit", chain(a.challenges.Submit, middleware.RateLimit(a.submitLimiter), optionalAuth))

	// Library and achievements
	mux.HandleFunc("GET /api/purchases", chain(a.purchases.List, auth))
	mux.HandleFunc("POST /api/purchases", chain(a.purchases.Create, auth))
	mux.HandleFunc("GET /api/achievements", chain(a.achievements.List, auth))
	mux.HandleFunc("PUT /api/achievements/progress", chain(a.achievements.UpdateProgress, auth))

	// Admin
	mux.HandleFunc("GET /api/admin/activities", chain(a.admin.Activities, auth, admins))
	mux.HandleFunc("GET /api/admin/dashboard/stats", chain(a.admin.DashboardStats, auth, admins))

	return mux
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(models.ErrorResponse("Route not found", nil))
}
