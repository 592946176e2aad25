package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies RENTBOND_* environment variable overrides, and
// returns the final Config. An empty path skips the file and uses defaults
// plus environment. The returned Config has NOT been validated; the caller
// should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known RENTBOND_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "RENTBOND_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "RENTBOND_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "RENTBOND_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "RENTBOND_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "RENTBOND_SERVER_RATE_LIMIT_WINDOW")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "RENTBOND_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "RENTBOND_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "RENTBOND_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "RENTBOND_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "RENTBOND_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "RENTBOND_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "RENTBOND_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "RENTBOND_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "RENTBOND_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "RENTBOND_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "RENTBOND_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "RENTBOND_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "RENTBOND_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "RENTBOND_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "RENTBOND_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "RENTBOND_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "RENTBOND_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "RENTBOND_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "RENTBOND_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "RENTBOND_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "RENTBOND_S3_REGION")
	setStr(&cfg.S3.Bucket, "RENTBOND_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "RENTBOND_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "RENTBOND_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "RENTBOND_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "RENTBOND_S3_FORCE_PATH_STYLE")

	// ── Chain ──
	setBool(&cfg.Chain.Enabled, "RENTBOND_CHAIN_ENABLED")
	setStr(&cfg.Chain.RPCURL, "RENTBOND_CHAIN_RPC_URL")
	setStr(&cfg.Chain.PointsContract, "RENTBOND_CHAIN_POINTS_CONTRACT")
	setInt64(&cfg.Chain.PointsDecimals, "RENTBOND_CHAIN_POINTS_DECIMALS")
	setStr(&cfg.Chain.FTSORegistry, "RENTBOND_CHAIN_FTSO_REGISTRY")
	setStr(&cfg.Chain.DefaultFXFeedID, "RENTBOND_CHAIN_DEFAULT_FX_FEED_ID")

	// ── Attestation ──
	setBool(&cfg.Attestation.Enforce, "RENTBOND_ATTESTATION_ENFORCE")
	setStr(&cfg.Attestation.ConnectorSecret, "RENTBOND_ATTESTATION_CONNECTOR_SECRET")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "RENTBOND_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "RENTBOND_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "RENTBOND_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "RENTBOND_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "RENTBOND_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
