package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	CORSOrigins []string // "*" allows any origin
	CORSHeaders []string

	StoreDriver    string // mongo | mysql
	MongoURI       string
	MongoDatabase  string
	MySQLDSN       string
	DBWaitTimeout  time.Duration
	DBPingInterval time.Duration
	DBBudget       time.Duration

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	CloudinaryURL string

	ClerkJWTKey        string // PEM public key for session tokens
	ClerkSecretKey     string
	ClerkWebhookSecret string
	ClerkAPIURL        string

	CasbinModel  string
	CasbinPolicy string

	APIBaseURL     string
	BackfillWorker int
}

// Load reads configuration from the environment, after merging a .env file when present.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env loaded")
	}
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	ms := func(k string, def int) time.Duration { return time.Duration(atoi(k, def)) * time.Millisecond }
	c := Config{
		AppEnv:             env("APP_ENV", "prod"),
		HTTPAddr:           env("HTTP_ADDR", ":3000"),
		MetricsAddr:        env("METRICS_ADDR", ""),
		CORSOrigins:        list("CORS_ORIGINS", "http://localhost:5173"),
		CORSHeaders:        list("CORS_HEADERS", "Authorization,Content-Type"),
		StoreDriver:        env("STORE_DRIVER", "mongo"),
		MongoURI:           env("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:      env("MONGODB_DATABASE", "SmartStayX"),
		MySQLDSN:           env("MYSQL_DSN", "root:root@tcp(localhost:3306)/smartstay?parseTime=true&charset=utf8mb4&loc=UTC"),
		DBWaitTimeout:      ms("DB_WAIT_TIMEOUT_MS", 5000),
		DBPingInterval:     ms("DB_PING_INTERVAL_MS", 500),
		DBBudget:           ms("DB_CONNECT_BUDGET_MS", 10000),
		RedisAddr:          env("REDIS_ADDR", "localhost:6379"),
		RedisPass:          env("REDIS_PASSWORD", ""),
		RedisDB:            atoi("REDIS_DB", 0),
		CacheTTL:           time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		CloudinaryURL:      env("CLOUDINARY_URL", ""),
		ClerkJWTKey:        env("CLERK_JWT_KEY", ""),
		ClerkSecretKey:     env("CLERK_SECRET_KEY", ""),
		ClerkWebhookSecret: env("CLERK_WEBHOOK_SECRET", ""),
		ClerkAPIURL:        env("CLERK_API_URL", "https://api.clerk.com/v1"),
		CasbinModel:        env("CASBIN_MODEL", "configs/rbac_model.conf"),
		CasbinPolicy:       env("CASBIN_POLICY", "configs/policy.csv"),
		APIBaseURL:         env("SMARTSTAY_API_URL", "http://localhost:3000"),
		BackfillWorker:     atoi("BACKFILL_WORKERS", 8),
	}
	if c.ClerkJWTKey == "" {
		log.Warn().Msg("CLERK_JWT_KEY is empty; authenticated routes will reject every request")
	}
	if c.CloudinaryURL == "" {
		log.Warn().Msg("CLOUDINARY_URL is empty; room image uploads will fail")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// list splits a comma-separated variable; blank entries are dropped.
func list(k, def string) []string {
	var out []string
	for _, v := range strings.Split(env(k, def), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
