package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/questeded/quested/internal/auth"
	"github.com/questeded/quested/internal/logger"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", auth.CSRFTokenHeader},
			ExposeHeaders:    []string{"Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	health := NewHealthController(cfg.Backend, cfg.Registry, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// CSRF must run before the session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		api.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.TrustedOrigins, cfg.TokenValidator))
	}
	api.Use(cfg.Sessions.SessionLoadSave())
	api.Use(StateMiddleware(cfg.Registry, cfg.Sessions, log))

	api.GET("/csrf", CSRFToken)

	// Auth endpoints
	authController := NewAuthController(cfg.Sessions, cfg.Limiter, log)
	api.POST("/auth/signup", authController.SignUp)
	api.POST("/auth/signin", authController.SignIn)
	api.POST("/auth/guest", authController.Guest)
	api.POST("/auth/signout", authController.SignOut)
	api.GET("/auth/session", authController.Status)
	api.POST("/auth/reset-password", authController.ResetPassword)
	api.POST("/auth/confirm", authController.Confirm)
	api.POST("/auth/recover", authController.Recover)

	signedIn := api.Group("", RequireSignIn())
	signedIn.POST("/auth/update-password", authController.UpdatePassword)
	signedIn.POST("/auth/refresh", authController.Refresh)
	signedIn.POST("/auth/profile/reload", authController.ReloadProfile)

	// Progress endpoints
	progressController := NewProgressController(log)
	signedIn.GET("/progress", progressController.GetProgress)
	signedIn.POST("/progress/reload", progressController.Reload)
	signedIn.POST("/quests/:id/progress", progressController.UpdateQuestProgress)
	signedIn.POST("/badges/:id/earn", progressController.EarnBadge)
	signedIn.POST("/xp", progressController.AwardXP)

	// Avatar endpoints
	avatarController := NewAvatarController(log)
	signedIn.GET("/avatar", avatarController.GetAvatar)
	signedIn.POST("/avatar/items/:id/equip", avatarController.EquipItem)
	signedIn.POST("/avatar/unlocks", avatarController.CheckUnlocks)
	signedIn.POST("/avatar/save", avatarController.Save)

	// Flashcard endpoints
	flashcardsController := NewFlashcardsController(log)
	api.GET("/flashcards/catalog", flashcardsController.Catalog)
	signedIn.GET("/flashcards/sets", flashcardsController.ListSets)
	signedIn.POST("/flashcards/sets", flashcardsController.Generate)
	signedIn.DELETE("/flashcards/sets/:id", flashcardsController.DeleteSet)
	signedIn.GET("/flashcards/current", flashcardsController.GetCurrent)
	signedIn.PUT("/flashcards/current", flashcardsController.SetCurrent)

	return router
}
