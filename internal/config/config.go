package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Backend
		Generation
		Redis
		Session
		Tasks
		Log
	}

	HTTP struct {
		Port    int32
		Host    string
		SiteURL string // Public origin of the UI, used for redirects and CORS
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Backend struct {
		URL              string // sqlite://<path> or postgres://...
		AnonKey          string
		JWTSecret        string // Falls back to AnonKey when empty
		AutoConfirm      bool   // Sign-ups are confirmed immediately when true
		AccessTokenTTL   time.Duration
		RefreshTokenTTL  time.Duration
		RecoveryTokenTTL time.Duration
		BcryptCost       int
	}
	Generation struct {
		APIKey string // Reserved for an external generator, unused by the built-in word lists
		Delay  time.Duration
	}
	Redis struct {
		Addr    string // Empty disables the distributed auth-event bus
		Channel string
	}
	Session struct {
		DBPath        string
		Lifetime      time.Duration
		Secret        string // CSRF key; auto-generated if empty
		SecureCookies bool
		CSRFEnabled   bool
		StateMaxIdle  time.Duration // In-memory state idle longer than this is swept
	}
	Tasks struct {
		Enabled            bool
		Workers            int
		ReleaseAfter       time.Duration
		CleanupInterval    time.Duration
		TokenPurgeSchedule string // Cron format: "0 * * * *" = hourly
		SweepSchedule      string // Cron format for the idle state sweep
	}
	Log struct {
		Mode string // dev or prod
	}
)

// JWTSigningKey returns the secret used to sign access tokens.
func (b Backend) JWTSigningKey() string {
	if b.JWTSecret != "" {
		return b.JWTSecret
	}
	return b.AnonKey
}

// NewConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables take precedence over it.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("site_url", DefaultSiteURL)
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	// Backend defaults
	v.SetDefault("backend_url", DefaultBackendURL)
	v.SetDefault("backend_anon_key", "")
	v.SetDefault("backend_jwt_secret", "")
	v.SetDefault("backend_auto_confirm", true)
	v.SetDefault("backend_access_token_ttl", "1h")
	v.SetDefault("backend_refresh_token_ttl", "720h")
	v.SetDefault("backend_recovery_token_ttl", "1h")
	v.SetDefault("backend_bcrypt_cost", 12)

	v.SetDefault("generation_api_key", "")
	v.SetDefault("generation_delay", "2s")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_channel", "auth-events")

	// Browser session defaults
	v.SetDefault("session_db_path", DefaultSessionDBPath)
	v.SetDefault("session_lifetime", "168h")
	v.SetDefault("session_secret", "")
	v.SetDefault("secure_cookies", true)
	v.SetDefault("csrf_enabled", true)
	v.SetDefault("state_max_idle", "30m")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("token_purge_schedule", "0 * * * *")
	v.SetDefault("sweep_schedule", "*/10 * * * *")

	v.SetDefault("log_mode", "dev")

	return &Config{
		HTTP: HTTP{
			Port:    v.GetInt32("PORT"),
			Host:    v.GetString("HOST"),
			SiteURL: v.GetString("SITE_URL"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Backend: Backend{
			URL:              v.GetString("BACKEND_URL"),
			AnonKey:          v.GetString("BACKEND_ANON_KEY"),
			JWTSecret:        v.GetString("BACKEND_JWT_SECRET"),
			AutoConfirm:      v.GetBool("BACKEND_AUTO_CONFIRM"),
			AccessTokenTTL:   v.GetDuration("BACKEND_ACCESS_TOKEN_TTL"),
			RefreshTokenTTL:  v.GetDuration("BACKEND_REFRESH_TOKEN_TTL"),
			RecoveryTokenTTL: v.GetDuration("BACKEND_RECOVERY_TOKEN_TTL"),
			BcryptCost:       v.GetInt("BACKEND_BCRYPT_COST"),
		},
		Generation: Generation{
			APIKey: v.GetString("GENERATION_API_KEY"),
			Delay:  v.GetDuration("GENERATION_DELAY"),
		},
		Redis: Redis{
			Addr:    v.GetString("REDIS_ADDR"),
			Channel: v.GetString("REDIS_CHANNEL"),
		},
		Session: Session{
			DBPath:        v.GetString("SESSION_DB_PATH"),
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			Secret:        v.GetString("SESSION_SECRET"),
			SecureCookies: v.GetBool("SECURE_COOKIES"),
			CSRFEnabled:   v.GetBool("CSRF_ENABLED"),
			StateMaxIdle:  v.GetDuration("STATE_MAX_IDLE"),
		},
		Tasks: Tasks{
			Enabled:            v.GetBool("TASKS_ENABLED"),
			Workers:            v.GetInt("TASK_WORKERS"),
			ReleaseAfter:       v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:    v.GetDuration("TASK_CLEANUP_INTERVAL"),
			TokenPurgeSchedule: v.GetString("TOKEN_PURGE_SCHEDULE"),
			SweepSchedule:      v.GetString("SWEEP_SCHEDULE"),
		},
		Log: Log{
			Mode: v.GetString("LOG_MODE"),
		},
	}
}
