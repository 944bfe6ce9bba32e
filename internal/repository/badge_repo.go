package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
	"gorm.io/gorm"
)

type BadgeRepository interface {
	CreateTemplate(ctx context.Context, badge *model.Badge) error
	FindTemplateByName(ctx context.Context, name string) (*model.Badge, error)
	ListTemplates(ctx context.Context) ([]model.Badge, error)

	CreateAward(ctx context.Context, award *model.UserBadge) error
	HasAward(ctx context.Context, userID, badgeID, spaceID uuid.UUID) (bool, error)
	ListAwards(ctx context.Context, userID uuid.UUID, spaceID *uuid.UUID) ([]model.UserBadge, error)
	CountAwards(ctx context.Context, userID uuid.UUID) (int64, error)
}

type badgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) CreateTemplate(ctx context.Context, badge *model.Badge) error {
	return r.db.WithContext(ctx).Create(badge).Error
}

func (r *badgeRepository) FindTemplateByName(ctx context.Context, name string) (*model.Badge, error) {
	var badge model.Badge
	if err := r.db.WithContext(ctx).First(&badge, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &badge, nil
}

func (r *badgeRepository) ListTemplates(ctx context.Context) ([]model.Badge, error) {
	var badges []model.Badge
	err := r.db.WithContext(ctx).Find(&badges).Error
	return badges, err
}

func (r *badgeRepository) CreateAward(ctx context.Context, award *model.UserBadge) error {
	return r.db.WithContext(ctx).Create(award).Error
}

func (r *badgeRepository) HasAward(ctx context.Context, userID, badgeID, spaceID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserBadge{}).
		Where("user_id = ? AND badge_id = ? AND hobby_space_id = ?", userID, badgeID, spaceID).
		Count(&count).Error
	return count > 0, err
}

func (r *badgeRepository) ListAwards(ctx context.Context, userID uuid.UUID, spaceID *uuid.UUID) ([]model.UserBadge, error) {
	q := r.db.WithContext(ctx).Preload("Badge").Where("user_id = ?", userID)
	if spaceID != nil {
		q = q.Where("hobby_space_id = ?", *spaceID)
	}

	var awards []model.UserBadge
	err := q.Order("awarded_at DESC").Find(&awards).Error
	return awards, err
}

func (r *badgeRepository) CountAwards(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserBadge{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
