package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
	"github.com/grungysync/backend/internal/repository"
	"gorm.io/gorm"
)

// In-memory repository fakes for exercising service flows without a
// database. WithTx returns the fake itself; passTx stands in for the real
// transaction runner.

func passTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeActionRepo struct {
	actions map[uuid.UUID]*model.Action

	totalActions     int64
	feedbackReceived int64
	revisionCount    int64
	reflectionPosts  int64
	firstActionAt    *time.Time

	feedbacks []*model.ActionFeedback
}

func newFakeActionRepo() *fakeActionRepo {
	return &fakeActionRepo{actions: make(map[uuid.UUID]*model.Action)}
}

func (r *fakeActionRepo) WithTx(_ *gorm.DB) repository.ActionRepository { return r }

func (r *fakeActionRepo) Create(_ context.Context, action *model.Action) error {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	r.actions[action.ID] = action
	return nil
}

func (r *fakeActionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Action, error) {
	action, ok := r.actions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return action, nil
}

func (r *fakeActionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.actions, id)
	return nil
}

func (r *fakeActionRepo) ListBySpace(_ context.Context, _ uuid.UUID, _, _ int) ([]model.Action, int64, error) {
	return nil, 0, nil
}

func (r *fakeActionRepo) ListByUser(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ bool, _, _ int) ([]model.Action, error) {
	return nil, nil
}

func (r *fakeActionRepo) ListFeed(_ context.Context, _, _ []uuid.UUID, _, _ int) ([]model.Action, int64, error) {
	return nil, 0, nil
}

func (r *fakeActionRepo) ListByUserSince(_ context.Context, _ uuid.UUID, _ time.Time) ([]model.Action, error) {
	return nil, nil
}

func (r *fakeActionRepo) SumPointsSince(_ context.Context, userID, spaceID uuid.UUID, since time.Time) (int, error) {
	sum := 0
	for _, a := range r.actions {
		if a.UserID == userID && a.HobbySpaceID == spaceID && !a.CreatedAt.Before(since) {
			sum += a.PointsAwarded
		}
	}
	return sum, nil
}

func (r *fakeActionRepo) CountByUserSpace(_ context.Context, _, _ uuid.UUID) (int64, error) {
	return r.totalActions, nil
}

func (r *fakeActionRepo) CountRevisions(_ context.Context, _, _ uuid.UUID) (int64, error) {
	return r.revisionCount, nil
}

func (r *fakeActionRepo) CountByType(_ context.Context, _, _ uuid.UUID, _ string) (int64, error) {
	return r.reflectionPosts, nil
}

func (r *fakeActionRepo) CountFeedbackReceived(_ context.Context, _, _ uuid.UUID) (int64, error) {
	return r.feedbackReceived, nil
}

func (r *fakeActionRepo) FirstActionAt(_ context.Context, _, _ uuid.UUID) (*time.Time, error) {
	return r.firstActionAt, nil
}

func (r *fakeActionRepo) CountAllByUser(_ context.Context, _ uuid.UUID) (int64, error) {
	return r.totalActions, nil
}

func (r *fakeActionRepo) SumEffortByUser(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (r *fakeActionRepo) ActionsByType(_ context.Context, _, _ uuid.UUID) ([]repository.TypeCount, error) {
	return nil, nil
}

func (r *fakeActionRepo) UserSpaceTotals(_ context.Context, _, _ uuid.UUID) (repository.UserTotals, error) {
	return repository.UserTotals{}, nil
}

func (r *fakeActionRepo) SpaceTotalsSince(_ context.Context, _ uuid.UUID, _ time.Time) (map[uuid.UUID]repository.UserTotals, error) {
	return nil, nil
}

func (r *fakeActionRepo) TopUsersSince(_ context.Context, _ *uuid.UUID, _ *time.Time, _ int) ([]repository.UserTotalsRow, error) {
	return nil, nil
}

func (r *fakeActionRepo) AddFeedback(_ context.Context, feedback *model.ActionFeedback) error {
	r.feedbacks = append(r.feedbacks, feedback)
	return nil
}

func (r *fakeActionRepo) ToggleReaction(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return false, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User

	// pointDeltas records every AddPoints call as (spaceID, delta).
	pointDeltas []pointDelta
}

type pointDelta struct {
	UserID  uuid.UUID
	SpaceID uuid.UUID
	Delta   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) WithTx(_ *gorm.DB) repository.UserRepository { return r }

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, _ []uuid.UUID) ([]model.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, _ string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) UpdateFields(_ context.Context, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

func (r *fakeUserRepo) AddPoints(_ context.Context, userID, hobbySpaceID uuid.UUID, delta int) error {
	r.pointDeltas = append(r.pointDeltas, pointDelta{UserID: userID, SpaceID: hobbySpaceID, Delta: delta})
	if user, ok := r.users[userID]; ok {
		user.TotalPoints += delta
	}
	return nil
}

func (r *fakeUserRepo) SpacePoints(_ context.Context, _, _ uuid.UUID) (int, error) {
	return 0, nil
}

func (r *fakeUserRepo) SaveBaseline(_ context.Context, _ uuid.UUID, _, _ float64, _ time.Time) error {
	return nil
}

func (r *fakeUserRepo) ListBaselineStale(_ context.Context) ([]model.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) ConsumeFeedbackToken(_ context.Context, userID uuid.UUID) (bool, error) {
	user, ok := r.users[userID]
	if !ok || user.FeedbackTokens <= 0 {
		return false, nil
	}
	user.FeedbackTokens--
	return true, nil
}

func (r *fakeUserRepo) RefillFeedbackTokens(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeUserRepo) Follow(_ context.Context, _, _ uuid.UUID) error   { return nil }
func (r *fakeUserRepo) Unfollow(_ context.Context, _, _ uuid.UUID) error { return nil }

func (r *fakeUserRepo) ListFollowingIDs(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeBadgeRepo struct {
	templates []model.Badge
	awards    []model.UserBadge
}

func (r *fakeBadgeRepo) CreateTemplate(_ context.Context, badge *model.Badge) error {
	if badge.ID == uuid.Nil {
		badge.ID = uuid.New()
	}
	r.templates = append(r.templates, *badge)
	return nil
}

func (r *fakeBadgeRepo) FindTemplateByName(_ context.Context, name string) (*model.Badge, error) {
	for i := range r.templates {
		if r.templates[i].Name == name {
			return &r.templates[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBadgeRepo) ListTemplates(_ context.Context) ([]model.Badge, error) {
	return r.templates, nil
}

func (r *fakeBadgeRepo) CreateAward(_ context.Context, award *model.UserBadge) error {
	if award.ID == uuid.Nil {
		award.ID = uuid.New()
	}
	r.awards = append(r.awards, *award)
	return nil
}

func (r *fakeBadgeRepo) HasAward(_ context.Context, userID, badgeID, spaceID uuid.UUID) (bool, error) {
	for _, a := range r.awards {
		if a.UserID == userID && a.BadgeID == badgeID && a.HobbySpaceID == spaceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBadgeRepo) ListAwards(_ context.Context, _ uuid.UUID, _ *uuid.UUID) ([]model.UserBadge, error) {
	return r.awards, nil
}

func (r *fakeBadgeRepo) CountAwards(_ context.Context, _ uuid.UUID) (int64, error) {
	return int64(len(r.awards)), nil
}

type fakeStreakRepo struct {
	streaks map[string]*model.Streak
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: make(map[string]*model.Streak)}
}

func streakKey(userID, spaceID uuid.UUID) string {
	return userID.String() + "|" + spaceID.String()
}

func (r *fakeStreakRepo) WithTx(_ *gorm.DB) repository.StreakRepository { return r }

func (r *fakeStreakRepo) FindByUserSpace(_ context.Context, userID, spaceID uuid.UUID) (*model.Streak, error) {
	streak, ok := r.streaks[streakKey(userID, spaceID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return streak, nil
}

func (r *fakeStreakRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]model.Streak, error) {
	return nil, nil
}

func (r *fakeStreakRepo) ListActive(_ context.Context) ([]model.Streak, error) {
	return nil, nil
}

func (r *fakeStreakRepo) Create(_ context.Context, streak *model.Streak) error {
	if streak.ID == uuid.Nil {
		streak.ID = uuid.New()
	}
	r.streaks[streakKey(streak.UserID, streak.HobbySpaceID)] = streak
	return nil
}

func (r *fakeStreakRepo) Save(_ context.Context, streak *model.Streak) error {
	r.streaks[streakKey(streak.UserID, streak.HobbySpaceID)] = streak
	return nil
}

func (r *fakeStreakRepo) AddEntry(_ context.Context, _ *model.StreakEntry) error { return nil }

func (r *fakeStreakRepo) PruneEntriesBefore(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

// fakeRateLimiter denies once the configured budget runs out.
type fakeRateLimiter struct {
	remaining int
	cleared   int
}

func (l *fakeRateLimiter) Allow(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) (bool, error) {
	if l.remaining <= 0 {
		return false, nil
	}
	l.remaining--
	return true, nil
}

func (l *fakeRateLimiter) RetryAfter(_ context.Context, _ uuid.UUID, _ string) (time.Duration, error) {
	return 10 * time.Second, nil
}

func (l *fakeRateLimiter) Clear(_ context.Context, _ uuid.UUID, _ string) error {
	l.cleared++
	l.remaining++
	return nil
}
