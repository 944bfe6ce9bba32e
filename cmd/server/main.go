package main

import (
	"log"

	"github.com/grungysync/backend/internal/config"
	"github.com/grungysync/backend/internal/model"
	"github.com/grungysync/backend/internal/server"
	"github.com/grungysync/backend/pkg/database"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, redisClient)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.UserSpacePoints{},
		&model.Follow{},
		&model.HobbySpace{},
		&model.SpaceMember{},
		&model.Action{},
		&model.ActionFeedback{},
		&model.ActionReaction{},
		&model.Streak{},
		&model.StreakEntry{},
		&model.Badge{},
		&model.UserBadge{},
		&model.Notification{},
	)
}

// connectRedis returns nil when REDIS_URL is unset or unreachable; live
// notifications, rate limiting and leaderboard caching degrade gracefully.
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("REDIS_URL not set, running without redis")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Invalid REDIS_URL, running without redis: %v", err)
		return nil
	}

	return redis.NewClient(opts)
}
