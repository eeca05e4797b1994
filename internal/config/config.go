package config

import (
	"os"
	"strconv"

	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort           string
	DatabaseURL       string
	JWTSecret         string
	OracleCallbackKey string

	// Arena parameters
	AdminAddress               domain.Address
	KeyLane                    domain.Hash
	DefaultMaxStalenessSeconds int64

	// Redis (rate limiting)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limits
	GameRateLimit  int
	GameRateWindow int
}

// Load reads configuration from the environment (.env honored).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	oracleKey := os.Getenv("ORACLE_CALLBACK_KEY")
	if oracleKey == "" {
		logger.Fatal("ORACLE_CALLBACK_KEY is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	adminAddr := domain.AddressFromSeed("arena-admin")
	if v := os.Getenv("ADMIN_ADDRESS"); v != "" {
		parsed, err := domain.ParseAddress(v)
		if err != nil {
			logger.Fatal("ADMIN_ADDRESS is invalid", "error", err)
		}
		adminAddr = parsed
	}

	keyLane := domain.SaltFromString("default-key-lane")
	if v := os.Getenv("KEY_LANE"); v != "" {
		parsed, err := domain.ParseHash(v)
		if err != nil {
			logger.Fatal("KEY_LANE is invalid", "error", err)
		}
		keyLane = parsed
	}

	defaultStaleness := int64(3600)
	if v := os.Getenv("DEFAULT_MAX_STALENESS_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			defaultStaleness = n
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	gameRateLimit := 60
	if v := os.Getenv("GAME_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			gameRateLimit = n
		}
	}

	gameRateWindow := 60
	if v := os.Getenv("GAME_RATE_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			gameRateWindow = n
		}
	}

	return &Config{
		AppPort:                    port,
		DatabaseURL:                dbURL,
		JWTSecret:                  jwtSecret,
		OracleCallbackKey:          oracleKey,
		AdminAddress:               adminAddr,
		KeyLane:                    keyLane,
		DefaultMaxStalenessSeconds: defaultStaleness,
		RedisAddr:                  os.Getenv("REDIS_ADDR"),
		RedisPassword:              os.Getenv("REDIS_PASSWORD"),
		RedisDB:                    redisDB,
		GameRateLimit:              gameRateLimit,
		GameRateWindow:             gameRateWindow,
	}
}
