package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/dto"
	"github.com/grungysync/backend/internal/model"
	"github.com/grungysync/backend/internal/repository"
	"github.com/grungysync/backend/pkg/apperror"
	"gorm.io/gorm"
)

// BaselineWindowDays is the trailing window the personal baseline is
// computed over.
const BaselineWindowDays = 90

// ProgressService serves the self-improvement surface: personal baselines,
// the progress dashboard, per-space analytics and the improvement score.
type ProgressService interface {
	// RefreshBaseline recomputes the user's activity frequency and average
	// effort from the trailing window. A user with no actions in the window
	// keeps their previous baseline.
	RefreshBaseline(ctx context.Context, userID uuid.UUID) (*dto.BaselineResponse, error)

	GetBaseline(ctx context.Context, userID uuid.UUID) (*dto.BaselineResponse, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*dto.ProgressDashboard, error)
	SpaceAnalytics(ctx context.Context, userID, spaceID uuid.UUID) (*dto.SpaceAnalytics, error)
	ImprovementScore(ctx context.Context, userID uuid.UUID) (*dto.ImprovementScore, error)

	// RefreshStaleBaselines is the background-job entry point: recomputes
	// every baseline older than its user's update interval.
	RefreshStaleBaselines(ctx context.Context) (int, error)
}

type progressService struct {
	users   repository.UserRepository
	actions repository.ActionRepository
	spaces  repository.HobbySpaceRepository
	badges  repository.BadgeRepository
	streaks StreakService
}

func NewProgressService(
	users repository.UserRepository,
	actions repository.ActionRepository,
	spaces repository.HobbySpaceRepository,
	badges repository.BadgeRepository,
	streaks StreakService,
) ProgressService {
	return &progressService{
		users:   users,
		actions: actions,
		spaces:  spaces,
		badges:  badges,
		streaks: streaks,
	}
}

func (s *progressService) RefreshBaseline(ctx context.Context, userID uuid.UUID) (*dto.BaselineResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	since := now.AddDate(0, 0, -BaselineWindowDays)
	actions, err := s.actions.ListByUserSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent actions: %w", err)
	}

	if len(actions) == 0 {
		// No activity in the window: keep the previous baseline untouched.
		return baselineResponse(user), nil
	}

	avgFrequency, avgEffort := computeBaseline(actions)
	if err := s.users.SaveBaseline(ctx, userID, avgFrequency, avgEffort, now); err != nil {
		return nil, fmt.Errorf("failed to save baseline: %w", err)
	}

	user.AvgActivityFrequency = avgFrequency
	user.AvgEffortLevel = avgEffort
	user.LastBaselineUpdate = &now
	return baselineResponse(user), nil
}

// computeBaseline derives actions-per-week and mean effort from the
// trailing-window actions.
func computeBaseline(actions []model.Action) (avgFrequency, avgEffort float64) {
	totalEffort := 0
	for _, a := range actions {
		totalEffort += a.EffortScore
	}

	avgFrequency = float64(len(actions)) / BaselineWindowDays * 7
	avgEffort = float64(totalEffort) / float64(len(actions))
	return avgFrequency, avgEffort
}

func (s *progressService) GetBaseline(ctx context.Context, userID uuid.UUID) (*dto.BaselineResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return baselineResponse(user), nil
}

func (s *progressService) Dashboard(ctx context.Context, userID uuid.UUID) (*dto.ProgressDashboard, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalActions, err := s.actions.CountAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}

	totalEffort, err := s.actions.SumEffortByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum effort: %w", err)
	}

	memberSpaceIDs, err := s.spaces.ListMemberSpaceIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member spaces: %w", err)
	}

	badgeCount, err := s.badges.CountAwards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count badges: %w", err)
	}

	badges, err := s.badges.ListAwards(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}

	streaks, err := s.streaks.GetUserStreaks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}

	avgEffort := 0.0
	if totalActions > 0 {
		avgEffort = float64(totalEffort) / float64(totalActions)
	}

	return &dto.ProgressDashboard{
		Analytics: dto.ProgressAnalytics{
			TotalPoints:            user.TotalPoints,
			TotalActions:           totalActions,
			ActiveHobbySpaces:      int64(len(memberSpaceIDs)),
			AverageEffortPerAction: avgEffort,
			Baseline:               *baselineResponse(user),
			BadgeCount:             badgeCount,
		},
		Badges:  badges,
		Streaks: streaks,
	}, nil
}

func (s *progressService) SpaceAnalytics(ctx context.Context, userID, spaceID uuid.UUID) (*dto.SpaceAnalytics, error) {
	if _, err := s.spaces.FindByID(ctx, spaceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("hobby space not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load hobby space: %w", err)
	}

	totals, err := s.actions.UserSpaceTotals(ctx, userID, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate actions: %w", err)
	}

	byType, err := s.actions.ActionsByType(ctx, userID, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate action types: %w", err)
	}
	typeCounts := make(map[string]int64, len(byType))
	for _, row := range byType {
		typeCounts[row.ActionType] = row.Count
	}

	streak, err := s.streaks.GetStreakForSpace(ctx, userID, spaceID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	sid := spaceID
	badges, err := s.badges.ListAwards(ctx, userID, &sid)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}

	avgEffort := 0.0
	if totals.Actions > 0 {
		avgEffort = float64(totals.Effort) / float64(totals.Actions)
	}

	return &dto.SpaceAnalytics{
		HobbySpaceID:  spaceID,
		TotalActions:  totals.Actions,
		TotalEffort:   totals.Effort,
		AverageEffort: avgEffort,
		TotalPoints:   totals.Points,
		ActionsByType: typeCounts,
		Streak:        streak,
		Badges:        badges,
	}, nil
}

// ImprovementScore compares recent effort against the personal baseline and
// against the first half of the trailing window.
func (s *progressService) ImprovementScore(ctx context.Context, userID uuid.UUID) (*dto.ImprovementScore, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -BaselineWindowDays)
	actions, err := s.actions.ListByUserSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent actions: %w", err)
	}

	score := &dto.ImprovementScore{
		TotalActionsAnalyzed: len(actions),
		Baseline:             user.AvgEffortLevel,
	}
	if len(actions) == 0 {
		return score, nil
	}

	above := 0
	totalEffort := 0
	for _, a := range actions {
		totalEffort += a.EffortScore
		if user.AvgEffortLevel > 0 && float64(a.EffortScore) > user.AvgEffortLevel {
			above++
		}
	}
	score.ActionsAboveBaseline = above
	if user.AvgEffortLevel > 0 {
		score.ImprovementPercentage = float64(above) / float64(len(actions)) * 100
	}

	// Effort trend: second half of the window vs the first. Actions arrive
	// ordered oldest first.
	half := len(actions) / 2
	if half > 0 {
		olderTotal, recentTotal := 0, 0
		for _, a := range actions[:half] {
			olderTotal += a.EffortScore
		}
		for _, a := range actions[half:] {
			recentTotal += a.EffortScore
		}
		score.OlderAvgEffort = float64(olderTotal) / float64(half)
		score.RecentAvgEffort = float64(recentTotal) / float64(len(actions)-half)
		if score.OlderAvgEffort > 0 {
			score.EffortTrend = (score.RecentAvgEffort - score.OlderAvgEffort) / score.OlderAvgEffort * 100
		}
	} else {
		score.RecentAvgEffort = float64(totalEffort) / float64(len(actions))
	}

	return score, nil
}

func (s *progressService) RefreshStaleBaselines(ctx context.Context) (int, error) {
	users, err := s.users.ListBaselineStale(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale baselines: %w", err)
	}

	refreshed := 0
	for _, user := range users {
		if _, err := s.RefreshBaseline(ctx, user.ID); err != nil {
			log.Printf("Failed to refresh baseline for user %s: %v", user.ID, err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *progressService) loadUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func baselineResponse(user *model.User) *dto.BaselineResponse {
	resp := &dto.BaselineResponse{
		AvgActivityFrequency: user.AvgActivityFrequency,
		AvgEffortLevel:       user.AvgEffortLevel,
		UpdateFrequencyDays:  user.BaselineUpdateDays,
	}
	if user.LastBaselineUpdate != nil {
		resp.LastBaselineUpdate = user.LastBaselineUpdate.Format(time.RFC3339)
	}
	return resp
}
