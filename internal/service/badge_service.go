package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
	"github.com/grungysync/backend/internal/repository"
	"gorm.io/gorm"
)

// BadgeService evaluates badge criteria against a user's accumulated stats
// in a hobby space and awards whatever newly qualifies. Evaluation is
// idempotent: the (user, badge, space) award lookup prevents double grants.
type BadgeService interface {
	EvaluateBadges(ctx context.Context, userID, spaceID uuid.UUID) ([]model.UserBadge, error)
	GetUserBadges(ctx context.Context, userID uuid.UUID, spaceID *uuid.UUID) ([]model.UserBadge, error)
	SeedDefaultBadges(ctx context.Context) error
}

// badgeStats is the snapshot EvaluateBadges judges criteria against.
type badgeStats struct {
	CurrentStreak    int
	TotalActions     int64
	FeedbackReceived int64
	RevisionCount    int64
	ReflectionPosts  int64
	FirstActionAt    *time.Time
}

type badgeService struct {
	badges   repository.BadgeRepository
	actions  repository.ActionRepository
	streaks  repository.StreakRepository
	notifier NotificationService
}

func NewBadgeService(
	badges repository.BadgeRepository,
	actions repository.ActionRepository,
	streaks repository.StreakRepository,
	notifier NotificationService,
) BadgeService {
	return &badgeService{
		badges:   badges,
		actions:  actions,
		streaks:  streaks,
		notifier: notifier,
	}
}

func (s *badgeService) EvaluateBadges(ctx context.Context, userID, spaceID uuid.UUID) ([]model.UserBadge, error) {
	templates, err := s.badges.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list badge templates: %w", err)
	}
	if len(templates) == 0 {
		return nil, nil
	}

	stats, err := s.collectStats(ctx, userID, spaceID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var awarded []model.UserBadge
	for _, template := range templates {
		has, err := s.badges.HasAward(ctx, userID, template.ID, spaceID)
		if err != nil {
			return awarded, fmt.Errorf("failed to check existing award: %w", err)
		}
		if has {
			continue
		}

		if !badgeQualifies(template, stats, now) {
			continue
		}

		award := model.UserBadge{
			UserID:       userID,
			BadgeID:      template.ID,
			HobbySpaceID: spaceID,
		}
		if err := s.badges.CreateAward(ctx, &award); err != nil {
			return awarded, fmt.Errorf("failed to award badge %q: %w", template.Name, err)
		}
		award.Badge = template
		awarded = append(awarded, award)

		if s.notifier != nil {
			notification := &model.Notification{
				UserID:   userID,
				ActorID:  userID,
				EntityID: template.ID,
				Type:     model.NotificationBadgeAwarded,
				Message:  fmt.Sprintf("%s You earned the %q badge!", template.Icon, template.Name),
			}
			if err := s.notifier.CreateNotification(ctx, notification); err != nil {
				log.Printf("Failed to notify user %s of badge %q: %v", userID, template.Name, err)
			}
		}
	}

	return awarded, nil
}

func (s *badgeService) collectStats(ctx context.Context, userID, spaceID uuid.UUID) (badgeStats, error) {
	var stats badgeStats

	streak, err := s.streaks.FindByUserSpace(ctx, userID, spaceID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return stats, fmt.Errorf("failed to load streak: %w", err)
	}
	if streak != nil {
		stats.CurrentStreak = streak.CurrentStreak
	}

	if stats.TotalActions, err = s.actions.CountByUserSpace(ctx, userID, spaceID); err != nil {
		return stats, fmt.Errorf("failed to count actions: %w", err)
	}
	if stats.FeedbackReceived, err = s.actions.CountFeedbackReceived(ctx, userID, spaceID); err != nil {
		return stats, fmt.Errorf("failed to count feedback: %w", err)
	}
	if stats.RevisionCount, err = s.actions.CountRevisions(ctx, userID, spaceID); err != nil {
		return stats, fmt.Errorf("failed to count revisions: %w", err)
	}
	if stats.ReflectionPosts, err = s.actions.CountByType(ctx, userID, spaceID, model.ActionTypeReflect); err != nil {
		return stats, fmt.Errorf("failed to count reflections: %w", err)
	}
	if stats.FirstActionAt, err = s.actions.FirstActionAt(ctx, userID, spaceID); err != nil {
		return stats, fmt.Errorf("failed to find first action: %w", err)
	}

	return stats, nil
}

// badgeQualifies is the criteria rule table. Unknown criteria types never
// qualify.
func badgeQualifies(badge model.Badge, stats badgeStats, now time.Time) bool {
	value := badge.CriteriaValue

	switch badge.CriteriaType {
	case model.CriteriaStreak:
		return stats.CurrentStreak >= value
	case model.CriteriaTotalActions:
		return stats.TotalActions >= int64(value)
	case model.CriteriaFeedbackReceived:
		return stats.FeedbackReceived >= int64(value)
	case model.CriteriaRevisionCount:
		return stats.RevisionCount >= int64(value)
	case model.CriteriaReflectionPosts:
		return stats.ReflectionPosts >= int64(value)
	case model.CriteriaTimeBased:
		if stats.FirstActionAt == nil {
			return false
		}
		return daysBetween(*stats.FirstActionAt, now) >= value
	default:
		return false
	}
}

func (s *badgeService) GetUserBadges(ctx context.Context, userID uuid.UUID, spaceID *uuid.UUID) ([]model.UserBadge, error) {
	return s.badges.ListAwards(ctx, userID, spaceID)
}

// SeedDefaultBadges inserts the stock badge templates, skipping any that
// already exist.
func (s *badgeService) SeedDefaultBadges(ctx context.Context) error {
	defaults := []model.Badge{
		{
			Name:          "Consistent Creator",
			Description:   "Maintained a 7-day streak in this space",
			Icon:          "🔥",
			Category:      "consistency",
			CriteriaType:  model.CriteriaStreak,
			CriteriaValue: 7,
		},
		{
			Name:          "Learning Loop",
			Description:   "Posted 5 reflection posts in this space",
			Icon:          "🎓",
			Category:      "learning",
			CriteriaType:  model.CriteriaReflectionPosts,
			CriteriaValue: 5,
		},
		{
			Name:          "Iterative Improver",
			Description:   "Created 3 revisions of previous work",
			Icon:          "🔄",
			Category:      "growth",
			CriteriaType:  model.CriteriaRevisionCount,
			CriteriaValue: 3,
		},
		{
			Name:          "Community Contributor",
			Description:   "Received feedback on 5 posts",
			Icon:          "🤝",
			Category:      "effort",
			CriteriaType:  model.CriteriaFeedbackReceived,
			CriteriaValue: 5,
		},
		{
			Name:          "Monthly Commitment",
			Description:   "Active for 30+ days in this space",
			Icon:          "📅",
			Category:      "milestone",
			CriteriaType:  model.CriteriaTimeBased,
			CriteriaValue: 30,
		},
	}

	for _, badge := range defaults {
		_, err := s.badges.FindTemplateByName(ctx, badge.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up badge %q: %w", badge.Name, err)
		}

		if err := s.badges.CreateTemplate(ctx, &badge); err != nil {
			return fmt.Errorf("failed to seed badge %q: %w", badge.Name, err)
		}
	}

	return nil
}
