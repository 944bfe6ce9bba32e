package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository

	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error

	// AddPoints adjusts the user's global total and the per-space counter by
	// delta (negative on action deletion).
	AddPoints(ctx context.Context, userID, hobbySpaceID uuid.UUID, delta int) error
	SpacePoints(ctx context.Context, userID, hobbySpaceID uuid.UUID) (int, error)

	SaveBaseline(ctx context.Context, userID uuid.UUID, avgFrequency, avgEffort float64, at time.Time) error
	ListBaselineStale(ctx context.Context) ([]model.User, error)

	ConsumeFeedbackToken(ctx context.Context, userID uuid.UUID) (bool, error)
	RefillFeedbackTokens(ctx context.Context, now time.Time) (int64, error)

	Follow(ctx context.Context, followerID, followeeID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error
	ListFollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *userRepository) AddPoints(ctx context.Context, userID, hobbySpaceID uuid.UUID, delta int) error {
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("total_points", gorm.Expr("total_points + ?", delta)).Error; err != nil {
		return err
	}

	// Upsert the per-space counter
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "hobby_space_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points":     gorm.Expr("user_space_points.points + ?", delta),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&model.UserSpacePoints{
		UserID:       userID,
		HobbySpaceID: hobbySpaceID,
		Points:       delta,
	}).Error
}

func (r *userRepository) SpacePoints(ctx context.Context, userID, hobbySpaceID uuid.UUID) (int, error) {
	var row model.UserSpacePoints
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND hobby_space_id = ?", userID, hobbySpaceID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return row.Points, nil
}

func (r *userRepository) SaveBaseline(ctx context.Context, userID uuid.UUID, avgFrequency, avgEffort float64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"avg_activity_frequency": avgFrequency,
		"avg_effort_level":       avgEffort,
		"last_baseline_update":   at,
	}).Error
}

func (r *userRepository) ListBaselineStale(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("last_baseline_update IS NULL OR last_baseline_update < NOW() - (baseline_update_days || ' days')::interval").
		Find(&users).Error
	return users, err
}

func (r *userRepository) ConsumeFeedbackToken(ctx context.Context, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND feedback_tokens > 0", userID).
		Update("feedback_tokens", gorm.Expr("feedback_tokens - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepository) RefillFeedbackTokens(ctx context.Context, now time.Time) (int64, error) {
	weekAgo := now.AddDate(0, 0, -7)
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("last_token_refill_at IS NULL OR last_token_refill_at <= ?", weekAgo).
		Updates(map[string]interface{}{
			"feedback_tokens":      gorm.Expr("max_weekly_tokens"),
			"last_token_refill_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *userRepository) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error
}

func (r *userRepository) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&model.Follow{}).Error
}

func (r *userRepository) ListFollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	return ids, err
}
