package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
	"gorm.io/gorm"
)

type StreakRepository interface {
	WithTx(tx *gorm.DB) StreakRepository

	FindByUserSpace(ctx context.Context, userID, spaceID uuid.UUID) (*model.Streak, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Streak, error)
	ListActive(ctx context.Context) ([]model.Streak, error)
	Create(ctx context.Context, streak *model.Streak) error
	Save(ctx context.Context, streak *model.Streak) error

	AddEntry(ctx context.Context, entry *model.StreakEntry) error
	PruneEntriesBefore(ctx context.Context, streakID uuid.UUID, cutoff time.Time) error
}

type streakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) WithTx(tx *gorm.DB) StreakRepository {
	return &streakRepository{db: tx}
}

func (r *streakRepository) FindByUserSpace(ctx context.Context, userID, spaceID uuid.UUID) (*model.Streak, error) {
	var streak model.Streak
	err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC")
		}).
		First(&streak, "user_id = ? AND hobby_space_id = ?", userID, spaceID).Error
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *streakRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Streak, error) {
	var streaks []model.Streak
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("current_streak DESC").
		Find(&streaks).Error
	return streaks, err
}

func (r *streakRepository) ListActive(ctx context.Context) ([]model.Streak, error) {
	var streaks []model.Streak
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&streaks).Error
	return streaks, err
}

func (r *streakRepository) Create(ctx context.Context, streak *model.Streak) error {
	return r.db.WithContext(ctx).Create(streak).Error
}

func (r *streakRepository) Save(ctx context.Context, streak *model.Streak) error {
	// Entries are persisted separately through AddEntry/PruneEntriesBefore;
	// saving them here would re-insert pruned rows.
	return r.db.WithContext(ctx).Omit("Entries").Save(streak).Error
}

func (r *streakRepository) AddEntry(ctx context.Context, entry *model.StreakEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *streakRepository) PruneEntriesBefore(ctx context.Context, streakID uuid.UUID, cutoff time.Time) error {
	return r.db.WithContext(ctx).
		Where("streak_id = ? AND date < ?", streakID, cutoff).
		Delete(&model.StreakEntry{}).Error
}
