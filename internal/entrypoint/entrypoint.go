package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/questeded/quested/internal/auth"
	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/config"
	"github.com/questeded/quested/internal/database"
	http_controllers "github.com/questeded/quested/internal/http"
	"github.com/questeded/quested/internal/logger"
	"github.com/questeded/quested/internal/scheduler"
	"github.com/questeded/quested/internal/state"
	"github.com/questeded/quested/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, log *logger.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	// SIGKILL can't be caught, so it is not listed
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}

	// Background work stops after in-flight requests have drained
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("Server exiting")
}

// OpenBackend builds the logger and the backend client from cfg. Callers
// own both and must Close the client.
func OpenBackend(ctx context.Context, cfg *config.Config) (*backend.Client, *logger.Logger, error) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	client, err := backend.New(ctx, backend.Options{
		Backend: cfg.Backend,
		Redis:   cfg.Redis,
		Logger:  log,
	})
	if err != nil {
		log.Sync()
		return nil, nil, err
	}
	return client, log, nil
}

// Run wires every component together and serves until interrupted.
func Run(cfg *config.Config, version string) {
	client, log, err := OpenBackend(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize backend: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	defer func() {
		if err := client.Close(); err != nil {
			log.Error("Error closing backend", "error", err)
		}
	}()

	log.Info("Starting Quested", "version", version)

	store := database.NewStore(client, log)
	operations := auth.NewOperations(client.Auth, cfg.HTTP.SiteURL, log)

	registry := state.NewRegistry(state.Deps{
		Auth:            operations,
		Data:            store,
		Log:             log,
		GenerationDelay: cfg.Generation.Delay,
	})
	defer registry.Close()

	sessionManager, err := auth.OpenSessionManager(cfg.Session)
	if err != nil {
		log.Fatal("Failed to initialize session manager", "error", err)
	}
	defer func() {
		if err := sessionManager.Close(); err != nil {
			log.Error("Error closing session manager", "error", err)
		}
	}()

	limiter := auth.NewSignInLimiter(auth.LimitConfig{})
	defer limiter.Stop()

	var csrfSecret []byte
	if cfg.Session.CSRFEnabled {
		var generated bool
		csrfSecret, generated, err = auth.CSRFSecret(cfg.Session.Secret)
		if err != nil {
			log.Fatal("Failed to generate CSRF secret", "error", err)
		}
		if generated {
			log.Warn("Generated CSRF secret (set SESSION_SECRET to persist)")
		}
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(tasks.DBPathFor(cfg.Session.DBPath), tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize task queue", "error", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("Error closing task client", "error", err)
			}
		}()

		taskClient.Register(tasks.NewPurgeExpiredTokensQueue(client.Auth, log))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	maintenance := scheduler.NewMaintenanceScheduler(taskClient, client.Auth, registry, scheduler.Config{
		TokenPurgeSchedule: cfg.Tasks.TokenPurgeSchedule,
		SweepSchedule:      cfg.Tasks.SweepSchedule,
		MaxIdle:            cfg.Session.StateMaxIdle,
	}, log)
	if err := maintenance.Start(context.Background()); err != nil {
		log.Fatal("Failed to start maintenance scheduler", "error", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Registry:       registry,
		Sessions:       sessionManager,
		Backend:        client,
		Limiter:        limiter,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Session.SecureCookies,
		TrustedOrigins: trustedOrigins(cfg.HTTP.SiteURL),
		TokenValidator: operations,
		AllowedOrigins: allowedOrigins(cfg.HTTP.SiteURL),
		Version:        version,
		Log:            log,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		maintenance.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, log, onShutdown)
}

func allowedOrigins(siteURL string) []string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return []string{u.Scheme + "://" + u.Host}
}

// trustedOrigins returns the host[:port] form gorilla/csrf expects.
func trustedOrigins(siteURL string) []string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
