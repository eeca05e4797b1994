package http

import (
	"os"
	"strconv"
	"time"

	"coinflip_arena/internal/http/handlers"
	"coinflip_arena/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires the HTTP surface: health probes, the versioned API,
// the legacy unversioned alias and the websocket event feed.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, h *handlers.Handler, version string, gameRateLimit int, gameRateWindow time.Duration) {
	healthHandler := handlers.NewHealthHandler(db, h, version)

	// read limits from env, with safe defaults
	apiRateLimit := 10
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))
	registerAPIRoutes(v1, h, authRateLimit, authRateWindow, gameRateLimit, gameRateWindow)

	// Legacy /api routes kept for older clients
	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))
	api.GET("/health", healthHandler.Health)
	registerAPIRoutes(api, h, authRateLimit, authRateWindow, gameRateLimit, gameRateWindow)

	// WebSocket event feed
	r.GET("/ws", h.WS())
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, authRateLimit int, authRateWindow time.Duration, gameRateLimit int, gameRateWindow time.Duration) {
	// Auth
	api.POST("/auth", middleware.RedisRateLimit(authRateLimit, authRateWindow), h.Auth)

	// Game rate limiter middleware (per player, not per IP)
	gameRL := middleware.GameRateLimit(gameRateLimit, gameRateWindow)

	// Games
	api.POST("/games", middleware.JWT(), gameRL, h.CreateGame)
	api.GET("/games", h.ListGames)
	api.GET("/games/recent", h.RecentGames)
	api.GET("/games/predict", h.PredictGame)
	api.GET("/games/:addr", h.GetGame)
	api.POST("/games/:addr/join", middleware.JWT(), gameRL, h.Join)
	api.POST("/games/:addr/resolve", middleware.JWT(), gameRL, h.Resolve)

	// Player stats
	api.GET("/me/stats", middleware.JWT(), h.MyStats)

	// Randomness managers
	api.GET("/managers/by-salt/:salt", h.ManagerBySalt)
	api.GET("/managers/:addr", h.GetManager)
	api.POST("/managers/:addr/fund", middleware.JWT(), h.FundManager)
	api.PATCH("/managers/:addr/config", middleware.JWT(), h.UpdateManagerConfig)

	// Oracle callback (shared-key auth, not JWT)
	api.POST("/oracle/fulfill", h.OracleFulfill)
	api.GET("/oracle/pending", h.PendingRequests)

	// Factory configuration and admin
	api.GET("/factory/config", h.FactoryConfig)
	admin := api.Group("/admin")
	admin.Use(middleware.JWT())
	{
		admin.PUT("/vrf-config", h.UpdateVRFConfig)
		admin.PUT("/default-staleness", h.UpdateDefaultStaleness)
		admin.PUT("/game-implementation", h.UpdateGameImplementation)
		admin.PUT("/manager-implementation", h.UpdateManagerImplementation)
	}
}
