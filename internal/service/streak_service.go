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
	"github.com/grungysync/backend/pkg/apperror"
	"gorm.io/gorm"
)

// StreakService maintains the per-(user, hobby space) streak state machine:
// rolling-window activity, grace periods and the daily sweep that breaks
// stale streaks.
type StreakService interface {
	// RecordAction advances the streak for a new action at time now. The
	// streak record is created lazily from the space config on the first
	// action. Returns the updated streak and whether this update broke it.
	RecordAction(ctx context.Context, userID, spaceID uuid.UUID, actionID *uuid.UUID, cfg model.ActionConfig, now time.Time) (*model.Streak, bool, error)

	GetUserStreaks(ctx context.Context, userID uuid.UUID) ([]model.Streak, error)
	GetStreakForSpace(ctx context.Context, userID, spaceID uuid.UUID) (*model.Streak, error)

	// DailySweep force-breaks every active streak whose grace allowance is
	// exhausted and whose last action is more than a day old. Idempotent;
	// must run at least once per day.
	DailySweep(ctx context.Context, now time.Time) (int, error)

	WithTx(tx *gorm.DB) StreakService
}

type streakService struct {
	repo     repository.StreakRepository
	notifier NotificationService
}

func NewStreakService(repo repository.StreakRepository, notifier NotificationService) StreakService {
	return &streakService{repo: repo, notifier: notifier}
}

func (s *streakService) WithTx(tx *gorm.DB) StreakService {
	return &streakService{repo: s.repo.WithTx(tx), notifier: s.notifier}
}

func (s *streakService) RecordAction(ctx context.Context, userID, spaceID uuid.UUID, actionID *uuid.UUID, cfg model.ActionConfig, now time.Time) (*model.Streak, bool, error) {
	streak, err := s.repo.FindByUserSpace(ctx, userID, spaceID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("failed to load streak: %w", err)
		}

		streak = &model.Streak{
			UserID:                  userID,
			HobbySpaceID:            spaceID,
			StreakStartDate:         &now,
			IsActive:                true,
			MaxGraceAllowance:       model.DefaultMaxGraceAllowance,
			ActionWindow:            cfg.ConsistencyWindow,
			RequiredActionsInWindow: cfg.RequiredActionsPerWindow,
		}
		if err := s.repo.Create(ctx, streak); err != nil {
			return nil, false, fmt.Errorf("failed to create streak: %w", err)
		}
	}

	entry := model.StreakEntry{StreakID: streak.ID, ActionID: actionID, Date: now}
	cutoff, broke := advanceStreak(streak, entry, now)

	if err := s.repo.Save(ctx, streak); err != nil {
		return nil, false, fmt.Errorf("failed to save streak: %w", err)
	}
	if err := s.repo.AddEntry(ctx, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to record streak entry: %w", err)
	}
	if err := s.repo.PruneEntriesBefore(ctx, streak.ID, cutoff); err != nil {
		return nil, false, fmt.Errorf("failed to prune streak window: %w", err)
	}

	return streak, broke, nil
}

func (s *streakService) GetUserStreaks(ctx context.Context, userID uuid.UUID) ([]model.Streak, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *streakService) GetStreakForSpace(ctx context.Context, userID, spaceID uuid.UUID) (*model.Streak, error) {
	streak, err := s.repo.FindByUserSpace(ctx, userID, spaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return streak, nil
}

func (s *streakService) DailySweep(ctx context.Context, now time.Time) (int, error) {
	streaks, err := s.repo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active streaks: %w", err)
	}

	broken := 0
	for i := range streaks {
		streak := &streaks[i]
		if !shouldForceBreak(streak, now) {
			continue
		}

		breakStreak(streak, now)
		if err := s.repo.Save(ctx, streak); err != nil {
			log.Printf("Failed to force-break streak %s: %v", streak.ID, err)
			continue
		}
		broken++

		if s.notifier != nil {
			notification := &model.Notification{
				UserID:   streak.UserID,
				ActorID:  streak.UserID,
				EntityID: streak.HobbySpaceID,
				Type:     model.NotificationStreakBroken,
				Message:  "Your streak has ended. Log a new action to start again!",
			}
			if err := s.notifier.CreateNotification(ctx, notification); err != nil {
				log.Printf("Failed to notify user %s of broken streak: %v", streak.UserID, err)
			}
		}
	}

	return broken, nil
}

// advanceStreak applies one action at time now to the in-memory streak and
// returns the window prune cutoff plus whether the streak broke. The gap
// check runs against the last action date recorded before this update; the
// first-ever action skips it.
func advanceStreak(streak *model.Streak, entry model.StreakEntry, now time.Time) (cutoff time.Time, broke bool) {
	previousLast := streak.LastActionDate

	streak.Entries = append(streak.Entries, entry)

	cutoff = now.AddDate(0, 0, -streak.ActionWindow)
	kept := streak.Entries[:0]
	for _, e := range streak.Entries {
		if !e.Date.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	streak.Entries = kept

	if previousLast != nil && daysBetween(*previousLast, now) > 1 {
		if streak.GraceUsedCount < streak.MaxGraceAllowance {
			streak.GraceUsedCount++
		} else {
			breakStreak(streak, now)
			return cutoff, true
		}
	}

	if len(streak.Entries) >= streak.RequiredActionsInWindow {
		if !streak.IsActive {
			// Restart after a break
			streak.IsActive = true
			streak.StreakStartDate = &now
			streak.GraceUsedCount = 0
		}
		streak.CurrentStreak++
		streak.LongestStreak = max(streak.LongestStreak, streak.CurrentStreak)
	}

	streak.LastActionDate = &now
	return cutoff, false
}

func breakStreak(streak *model.Streak, now time.Time) {
	streak.IsActive = false
	streak.BreakDate = &now
	streak.CurrentStreak = 0
	streak.GraceUsedCount = 0
}

// shouldForceBreak reports whether the sweep must break an active streak:
// more than one day without an action and no grace left.
func shouldForceBreak(streak *model.Streak, now time.Time) bool {
	if !streak.IsActive || streak.LastActionDate == nil {
		return false
	}
	return daysBetween(*streak.LastActionDate, now) > 1 &&
		streak.GraceUsedCount >= streak.MaxGraceAllowance
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
