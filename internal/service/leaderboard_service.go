package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/dto"
	"github.com/grungysync/backend/internal/model"
	"github.com/grungysync/backend/internal/repository"
	"github.com/grungysync/backend/pkg/apperror"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	PeriodAllTime = "all-time"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"

	leaderboardCacheTTL = 5 * time.Minute
)

// LeaderboardService ranks users by awarded points, per hobby space or
// globally. Results are cached in redis; with no redis client every call
// hits the database.
type LeaderboardService interface {
	SpaceLeaderboard(ctx context.Context, spaceID uuid.UUID, limit int) (*dto.LeaderboardResponse, error)
	GlobalLeaderboard(ctx context.Context, period string, limit int) (*dto.LeaderboardResponse, error)
}

type leaderboardService struct {
	actions repository.ActionRepository
	users   repository.UserRepository
	spaces  repository.HobbySpaceRepository
	rdb     *redis.Client
}

func NewLeaderboardService(
	actions repository.ActionRepository,
	users repository.UserRepository,
	spaces repository.HobbySpaceRepository,
	rdb *redis.Client,
) LeaderboardService {
	return &leaderboardService{actions: actions, users: users, spaces: spaces, rdb: rdb}
}

// SpaceLeaderboard ranks members of one space over the trailing 30 days.
func (s *leaderboardService) SpaceLeaderboard(ctx context.Context, spaceID uuid.UUID, limit int) (*dto.LeaderboardResponse, error) {
	if _, err := s.spaces.FindByID(ctx, spaceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("hobby space not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load hobby space: %w", err)
	}

	cacheKey := fmt.Sprintf("leaderboard:space:%s:%d", spaceID, limit)
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	since := time.Now().AddDate(0, 0, -30)
	resp, err := s.build(ctx, PeriodMonthly, &spaceID, &since, limit)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, cacheKey, resp)
	return resp, nil
}

func (s *leaderboardService) GlobalLeaderboard(ctx context.Context, period string, limit int) (*dto.LeaderboardResponse, error) {
	var since *time.Time
	switch period {
	case PeriodWeekly:
		t := time.Now().AddDate(0, 0, -7)
		since = &t
	case PeriodMonthly:
		t := time.Now().AddDate(0, 0, -30)
		since = &t
	case PeriodAllTime, "":
		period = PeriodAllTime
	default:
		return nil, fmt.Errorf("unknown leaderboard period %q: %w", period, apperror.ErrInvalidInput)
	}

	cacheKey := fmt.Sprintf("leaderboard:global:%s:%d", period, limit)
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	resp, err := s.build(ctx, period, nil, since, limit)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, cacheKey, resp)
	return resp, nil
}

func (s *leaderboardService) build(ctx context.Context, period string, spaceID *uuid.UUID, since *time.Time, limit int) (*dto.LeaderboardResponse, error) {
	rows, err := s.actions.TopUsersSince(ctx, spaceID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard users: %w", err)
	}
	byID := make(map[uuid.UUID]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	entries := make([]dto.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		user := byID[row.UserID]
		entries = append(entries, dto.LeaderboardEntry{
			UserID:      row.UserID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			AvatarURL:   user.AvatarURL,
			Position:    i + 1,
			Points:      row.Points,
			Actions:     row.Actions,
			Effort:      row.Effort,
		})
	}

	return &dto.LeaderboardResponse{Period: period, HobbySpaceID: spaceID, Entries: entries}, nil
}

func (s *leaderboardService) fromCache(ctx context.Context, key string) *dto.LeaderboardResponse {
	if s.rdb == nil {
		return nil
	}

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Failed to read leaderboard cache %s: %v", key, err)
		}
		return nil
	}

	var resp dto.LeaderboardResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Printf("Failed to decode leaderboard cache %s: %v", key, err)
		return nil
	}
	return &resp
}

func (s *leaderboardService) toCache(ctx context.Context, key string, resp *dto.LeaderboardResponse) {
	if s.rdb == nil {
		return
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, leaderboardCacheTTL).Err(); err != nil {
		log.Printf("Failed to write leaderboard cache %s: %v", key, err)
	}
}
