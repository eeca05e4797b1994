package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinflip_arena/internal/access"
	"coinflip_arena/internal/config"
	"coinflip_arena/internal/db"
	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/game"
	httpServer "coinflip_arena/internal/http"
	"coinflip_arena/internal/http/handlers"
	"coinflip_arena/internal/http/middleware"
	"coinflip_arena/internal/logger"
	"coinflip_arena/internal/oracle"
	"coinflip_arena/internal/repository"
	"coinflip_arena/internal/service"
	"coinflip_arena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	service.InitJWT()

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	// Arena core: access registry, oracle sim, funding token, factory.
	acl := access.NewRegistry()
	coordinator := oracle.NewSimCoordinator(domain.AddressFromSeed("oracle-coordinator"))
	token := oracle.NewSimToken(domain.AddressFromSeed("funding-token"))

	hub := ws.NewHub()
	factory := game.NewFactory(domain.AddressFromSeed("coinflip-factory"), acl, hub.Broadcast)
	if err := factory.Initialize(
		coordinator,
		token,
		cfg.KeyLane,
		domain.AddressFromSeed("coinflip-game-template-v1"),
		domain.AddressFromSeed("randomness-manager-template-v1"),
		time.Duration(cfg.DefaultMaxStalenessSeconds)*time.Second,
		cfg.AdminAddress,
	); err != nil {
		logger.Fatal("factory init", "error", err)
	}

	gamesRepo := repository.NewGameRepository(dbPool)
	requestsRepo := repository.NewRequestRepository(dbPool)
	arena := service.NewArenaService(factory, coordinator, gamesRepo, requestsRepo)
	h := handlers.NewHandler(arena, gamesRepo, hub, coordinator, token, cfg.OracleCallbackKey)

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, dbPool, h, version,
		cfg.GameRateLimit, time.Duration(cfg.GameRateWindow)*time.Second)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Println("server started on port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown:", err)
	}

	log.Println("server exited")
}
