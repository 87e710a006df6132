package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	AppName string

	DBDriver    string // postgres | sqlite
	DatabaseURL string

	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	CORSOrigins string

	// RestoreStockOnDelete puts the quantities of a deleted sale back on the shelf.
	RestoreStockOnDelete bool

	SeedAdminEmail    string
	SeedAdminPassword string
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "5000"),
		AppName:              getEnvOrDefault("APP_NAME", "POS Back Office v1.0"),
		DBDriver:             strings.ToLower(getEnvOrDefault("DB_DRIVER", "postgres")),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisChannel:         getEnvOrDefault("REDIS_CHANNEL", "pos:events"),
		CORSOrigins:          getEnvOrDefault("CORS_ORIGINS", "*"),
		RestoreStockOnDelete: getBool("RESTORE_STOCK_ON_DELETE", true),
		SeedAdminEmail:       getEnvOrDefault("SEED_ADMIN_EMAIL", "admin@example.com"),
		SeedAdminPassword:    getEnvOrDefault("SEED_ADMIN_PASSWORD", "admin12345"),
	}

	if db, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0")); err == nil {
		cfg.RedisDB = db
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		switch cfg.DBDriver {
		case "sqlite":
			cfg.DatabaseURL = getEnvOrDefault("SQLITE_PATH", "pos.db")
		default:
			cfg.DatabaseURL = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				getEnvOrDefault("DB_HOST", "localhost"),
				getEnvOrDefault("DB_USER", "postgres"),
				os.Getenv("DB_PASSWORD"),
				getEnvOrDefault("DB_NAME", "pos"),
				getEnvOrDefault("DB_PORT", "5432"),
			)
		}
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		log.Printf("invalid PORT value %q, defaulting to 5000", cfg.Port)
		cfg.Port = "5000"
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s value %q, defaulting to %t", key, v, defaultValue)
		return defaultValue
	}
	return b
}
