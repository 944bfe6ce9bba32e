package server

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/grungysync/backend/internal/config"
	"github.com/grungysync/backend/internal/handler"
	"github.com/grungysync/backend/internal/middleware"
	"github.com/grungysync/backend/internal/repository"
	"github.com/grungysync/backend/internal/service"
	"github.com/grungysync/backend/pkg/storage"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	// Repositories
	userRepo := repository.NewUserRepository(db)
	spaceRepo := repository.NewHobbySpaceRepository(db)
	actionRepo := repository.NewActionRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Media uploads degrade gracefully when cloudinary is not configured.
	mediaStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Printf("Cloudinary not configured, media uploads disabled: %v", err)
		mediaStorage = nil
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := service.NewSearchService(meiliClient)

	// Services
	notificationSvc := service.NewNotificationService(notificationRepo, redisClient)
	streakSvc := service.NewStreakService(streakRepo, notificationSvc)
	badgeSvc := service.NewBadgeService(badgeRepo, actionRepo, streakRepo, notificationSvc)
	rateLimiter := service.NewRateLimitService(redisClient)
	actionSvc := service.NewActionService(db, actionRepo, userRepo, spaceRepo, streakSvc, badgeSvc, searchSvc, mediaStorage, notificationSvc, rateLimiter)
	progressSvc := service.NewProgressService(userRepo, actionRepo, spaceRepo, badgeRepo, streakSvc)
	leaderboardSvc := service.NewLeaderboardService(actionRepo, userRepo, spaceRepo, redisClient)
	spaceSvc := service.NewHobbySpaceService(spaceRepo, searchSvc)
	authSvc := service.NewAuthService(userRepo, mediaStorage, cfg.JWTSecret, cfg.JWTTTL)

	if err := badgeSvc.SeedDefaultBadges(context.Background()); err != nil {
		log.Printf("Failed to seed default badges: %v", err)
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	spaceHandler := handler.NewHobbySpaceHandler(spaceSvc)
	actionHandler := handler.NewActionHandler(actionSvc)
	progressHandler := handler.NewProgressHandler(progressSvc, badgeSvc, streakSvc)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, redisClient)
	searchHandler := handler.NewSearchHandler(searchSvc)

	startBackgroundJobs(cfg, streakSvc, progressSvc, userRepo)

	router := gin.New()
	setupCORS(router, cfg.AllowedOrigins)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Profile routes
		protected.GET("/users/me", authHandler.Me)
		protected.PUT("/users/me", authHandler.UpdateProfile)
		protected.POST("/users/:id/follow", authHandler.Follow)
		protected.DELETE("/users/:id/follow", authHandler.Unfollow)
		protected.GET("/users/:id/actions", actionHandler.ListByUser)

		// Hobby space routes
		protected.POST("/spaces", spaceHandler.Create)
		protected.GET("/spaces", spaceHandler.List)
		protected.GET("/spaces/joined", spaceHandler.ListJoined)
		protected.GET("/spaces/:id", spaceHandler.Get)
		protected.PUT("/spaces/:id", spaceHandler.Update)
		protected.DELETE("/spaces/:id", spaceHandler.Delete)
		protected.POST("/spaces/:id/join", spaceHandler.Join)
		protected.POST("/spaces/:id/leave", spaceHandler.Leave)
		protected.GET("/spaces/:id/actions", actionHandler.ListBySpace)
		protected.GET("/spaces/:id/leaderboard", leaderboardHandler.Space)
		protected.GET("/spaces/:id/analytics", progressHandler.SpaceAnalytics)
		protected.GET("/spaces/:id/streak", progressHandler.GetSpaceStreak)

		// Action routes
		protected.POST("/actions", actionHandler.Submit)
		protected.GET("/actions/feed", actionHandler.Feed)
		protected.GET("/actions/:id", actionHandler.Get)
		protected.DELETE("/actions/:id", actionHandler.Delete)
		protected.POST("/actions/:id/revisions", actionHandler.CreateRevision)
		protected.POST("/actions/:id/feedback", actionHandler.GiveFeedback)
		protected.POST("/actions/:id/reactions", actionHandler.ToggleReaction)

		// Progress routes
		protected.GET("/progress/dashboard", progressHandler.Dashboard)
		protected.GET("/progress/baseline", progressHandler.GetBaseline)
		protected.POST("/progress/baseline/refresh", progressHandler.RefreshBaseline)
		protected.GET("/progress/improvement", progressHandler.ImprovementScore)
		protected.GET("/progress/badges", progressHandler.ListBadges)
		protected.GET("/progress/streaks", progressHandler.ListStreaks)

		// Leaderboard
		protected.GET("/leaderboard", leaderboardHandler.Global)

		// Notification routes
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Search
		protected.GET("/search/actions", searchHandler.SearchActions)
		protected.GET("/search/spaces", searchHandler.SearchSpaces)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// startBackgroundJobs runs the periodic maintenance loops: the daily streak
// sweep, feedback token refills and stale baseline refreshes.
func startBackgroundJobs(cfg *config.Config, streaks service.StreakService, progress service.ProgressService, users repository.UserRepository) {
	go func() {
		ticker := time.NewTicker(cfg.StreakSweepInterval)
		defer ticker.Stop()

		for range ticker.C {
			broken, err := streaks.DailySweep(context.Background(), time.Now())
			if err != nil {
				log.Printf("Streak sweep failed: %v", err)
				continue
			}
			if broken > 0 {
				log.Printf("Streak sweep broke %d expired streaks", broken)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.TokenRefillInterval)
		defer ticker.Stop()

		for range ticker.C {
			refilled, err := users.RefillFeedbackTokens(context.Background(), time.Now())
			if err != nil {
				log.Printf("Feedback token refill failed: %v", err)
				continue
			}
			if refilled > 0 {
				log.Printf("Refilled feedback tokens for %d users", refilled)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.BaselineRefreshInterval)
		defer ticker.Stop()

		for range ticker.C {
			refreshed, err := progress.RefreshStaleBaselines(context.Background())
			if err != nil {
				log.Printf("Baseline refresh failed: %v", err)
				continue
			}
			if refreshed > 0 {
				log.Printf("Refreshed %d stale baselines", refreshed)
			}
		}
	}()
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
