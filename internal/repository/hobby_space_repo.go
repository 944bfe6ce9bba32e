package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
	"gorm.io/gorm"
)

type HobbySpaceRepository interface {
	WithTx(tx *gorm.DB) HobbySpaceRepository

	Create(ctx context.Context, space *model.HobbySpace) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.HobbySpace, error)
	FindBySlug(ctx context.Context, slug string) (*model.HobbySpace, error)
	FindByNameOrSlug(ctx context.Context, name, slug string) (*model.HobbySpace, error)
	ListPublic(ctx context.Context) ([]model.HobbySpace, error)
	Save(ctx context.Context, space *model.HobbySpace) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, spaceID, userID uuid.UUID, moderator bool) error
	RemoveMember(ctx context.Context, spaceID, userID uuid.UUID) error
	IsMember(ctx context.Context, spaceID, userID uuid.UUID) (bool, error)
	IsModerator(ctx context.Context, spaceID, userID uuid.UUID) (bool, error)
	ListMemberSpaces(ctx context.Context, userID uuid.UUID) ([]model.HobbySpace, error)
	ListMemberSpaceIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type hobbySpaceRepository struct {
	db *gorm.DB
}

func NewHobbySpaceRepository(db *gorm.DB) HobbySpaceRepository {
	return &hobbySpaceRepository{db: db}
}

func (r *hobbySpaceRepository) WithTx(tx *gorm.DB) HobbySpaceRepository {
	return &hobbySpaceRepository{db: tx}
}

func (r *hobbySpaceRepository) Create(ctx context.Context, space *model.HobbySpace) error {
	return r.db.WithContext(ctx).Create(space).Error
}

func (r *hobbySpaceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.HobbySpace, error) {
	var space model.HobbySpace
	if err := r.db.WithContext(ctx).First(&space, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &space, nil
}

func (r *hobbySpaceRepository) FindBySlug(ctx context.Context, slug string) (*model.HobbySpace, error) {
	var space model.HobbySpace
	if err := r.db.WithContext(ctx).First(&space, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &space, nil
}

func (r *hobbySpaceRepository) FindByNameOrSlug(ctx context.Context, name, slug string) (*model.HobbySpace, error) {
	var space model.HobbySpace
	if err := r.db.WithContext(ctx).First(&space, "name = ? OR slug = ?", name, slug).Error; err != nil {
		return nil, err
	}
	return &space, nil
}

func (r *hobbySpaceRepository) ListPublic(ctx context.Context) ([]model.HobbySpace, error) {
	var spaces []model.HobbySpace
	err := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("member_count DESC").
		Find(&spaces).Error
	return spaces, err
}

func (r *hobbySpaceRepository) Save(ctx context.Context, space *model.HobbySpace) error {
	return r.db.WithContext(ctx).Save(space).Error
}

func (r *hobbySpaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hobby_space_id = ?", id).Delete(&model.SpaceMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("hobby_space_id = ?", id).Delete(&model.Action{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.HobbySpace{}, "id = ?", id).Error
	})
}

func (r *hobbySpaceRepository) AddMember(ctx context.Context, spaceID, userID uuid.UUID, moderator bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.SpaceMember{
			HobbySpaceID: spaceID,
			UserID:       userID,
			IsModerator:  moderator,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&model.HobbySpace{}).Where("id = ?", spaceID).
			Update("member_count", gorm.Expr("member_count + 1")).Error
	})
}

func (r *hobbySpaceRepository) RemoveMember(ctx context.Context, spaceID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("hobby_space_id = ? AND user_id = ?", spaceID, userID).
			Delete(&model.SpaceMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&model.HobbySpace{}).
			Where("id = ? AND member_count > 0", spaceID).
			Update("member_count", gorm.Expr("member_count - 1")).Error
	})
}

func (r *hobbySpaceRepository) IsMember(ctx context.Context, spaceID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SpaceMember{}).
		Where("hobby_space_id = ? AND user_id = ?", spaceID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *hobbySpaceRepository) IsModerator(ctx context.Context, spaceID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SpaceMember{}).
		Where("hobby_space_id = ? AND user_id = ? AND is_moderator = ?", spaceID, userID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *hobbySpaceRepository) ListMemberSpaces(ctx context.Context, userID uuid.UUID) ([]model.HobbySpace, error) {
	var spaces []model.HobbySpace
	err := r.db.WithContext(ctx).
		Joins("JOIN space_members ON space_members.hobby_space_id = hobby_spaces.id").
		Where("space_members.user_id = ?", userID).
		Order("space_members.joined_at ASC").
		Find(&spaces).Error
	return spaces, err
}

func (r *hobbySpaceRepository) ListMemberSpaceIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.SpaceMember{}).
		Where("user_id = ?", userID).
		Pluck("hobby_space_id", &ids).Error
	return ids, err
}
