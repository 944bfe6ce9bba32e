package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
	"gorm.io/gorm"
)

// TypeCount is one row of an actions-by-type aggregation.
type TypeCount struct {
	ActionType string
	Count      int64
}

// UserTotals aggregates a user's activity inside one hobby space.
type UserTotals struct {
	Actions int64
	Effort  int
	Points  int
}

// UserTotalsRow is one leaderboard aggregation row.
type UserTotalsRow struct {
	UserID  uuid.UUID
	Actions int64
	Effort  int
	Points  int
}

type ActionRepository interface {
	WithTx(tx *gorm.DB) ActionRepository

	Create(ctx context.Context, action *model.Action) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Action, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListBySpace(ctx context.Context, spaceID uuid.UUID, limit, offset int) ([]model.Action, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, spaceID *uuid.UUID, onlyPublic bool, limit, offset int) ([]model.Action, error)
	ListFeed(ctx context.Context, authorIDs, memberSpaceIDs []uuid.UUID, limit, offset int) ([]model.Action, int64, error)
	ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Action, error)

	// SumPointsSince feeds the daily point cap: awarded points for the
	// (user, space) pair since the given instant.
	SumPointsSince(ctx context.Context, userID, spaceID uuid.UUID, since time.Time) (int, error)

	CountByUserSpace(ctx context.Context, userID, spaceID uuid.UUID) (int64, error)
	CountRevisions(ctx context.Context, userID, spaceID uuid.UUID) (int64, error)
	CountByType(ctx context.Context, userID, spaceID uuid.UUID, actionType string) (int64, error)
	CountFeedbackReceived(ctx context.Context, userID, spaceID uuid.UUID) (int64, error)
	FirstActionAt(ctx context.Context, userID, spaceID uuid.UUID) (*time.Time, error)
	CountAllByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	SumEffortByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ActionsByType(ctx context.Context, userID, spaceID uuid.UUID) ([]TypeCount, error)
	UserSpaceTotals(ctx context.Context, userID, spaceID uuid.UUID) (UserTotals, error)
	SpaceTotalsSince(ctx context.Context, spaceID uuid.UUID, since time.Time) (map[uuid.UUID]UserTotals, error)
	TopUsersSince(ctx context.Context, spaceID *uuid.UUID, since *time.Time, limit int) ([]UserTotalsRow, error)

	AddFeedback(ctx context.Context, feedback *model.ActionFeedback) error
	ToggleReaction(ctx context.Context, actionID, userID uuid.UUID) (reacted bool, err error)
}

type actionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) ActionRepository {
	return &actionRepository{db: db}
}

func (r *actionRepository) WithTx(tx *gorm.DB) ActionRepository {
	return &actionRepository{db: tx}
}

func (r *actionRepository) Create(ctx context.Context, action *model.Action) error {
	return r.db.WithContext(ctx).Create(action).Error
}

func (r *actionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Action, error) {
	var action model.Action
	if err := r.db.WithContext(ctx).Preload("Feedback").First(&action, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &action, nil
}

func (r *actionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("action_id = ?", id).Delete(&model.ActionFeedback{}).Error; err != nil {
			return err
		}
		if err := tx.Where("action_id = ?", id).Delete(&model.ActionReaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Action{}, "id = ?", id).Error
	})
}

func (r *actionRepository) ListBySpace(ctx context.Context, spaceID uuid.UUID, limit, offset int) ([]model.Action, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Action{}).
		Where("hobby_space_id = ? AND visibility = ?", spaceID, model.VisibilityPublic)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var actions []model.Action
	err := q.Preload("Feedback").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&actions).Error
	return actions, total, err
}

func (r *actionRepository) ListByUser(ctx context.Context, userID uuid.UUID, spaceID *uuid.UUID, onlyPublic bool, limit, offset int) ([]model.Action, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if spaceID != nil {
		q = q.Where("hobby_space_id = ?", *spaceID)
	}
	if onlyPublic {
		q = q.Where("visibility = ?", model.VisibilityPublic)
	}

	var actions []model.Action
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&actions).Error
	return actions, err
}

func (r *actionRepository) ListFeed(ctx context.Context, authorIDs, memberSpaceIDs []uuid.UUID, limit, offset int) ([]model.Action, int64, error) {
	if len(authorIDs) == 0 {
		return []model.Action{}, 0, nil
	}

	q := r.db.WithContext(ctx).Model(&model.Action{}).Where("user_id IN ?", authorIDs)
	if len(memberSpaceIDs) > 0 {
		q = q.Where("visibility = ? OR (visibility = ? AND hobby_space_id IN ?)",
			model.VisibilityPublic, model.VisibilitySpaceOnly, memberSpaceIDs)
	} else {
		q = q.Where("visibility = ?", model.VisibilityPublic)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var actions []model.Action
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&actions).Error
	return actions, total, err
}

func (r *actionRepository) ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.Action, error) {
	var actions []model.Action
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&actions).Error
	return actions, err
}

func (r *actionRepository) SumPointsSince(ctx context.Context, userID, spaceID uuid.UUID, since time.Time) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).Model(&model.Action{}).
		Select("COALESCE(SUM(points_awarded), 0)").
		Where("user_id = ? AND hobby_space_id = ? AND created_at >= ?", userID, spaceID, since).
		Scan(&sum).Error
	return sum, err
}

func (r *actionRepository) CountByUserSpace(ctx context.Context, userID, spaceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Action{}).
		Where("user_id = ? AND hobby_space_id = ?", userID, spaceID).
		Count(&count).Error
	return count, err
}

func (r *actionRepository) CountRevisions(ctx context.Context, userID, spaceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Action{}).
		Where("user_id = ? AND hobby_space_id = ? AND is_revision = ?", userID, spaceID, true).
		Count(&count).Error
	return count, err
}

func (r *actionRepository) CountByType(ctx context.Context, userID, spaceID uuid.UUID, actionType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Action{}).
		Where("user_id = ? AND hobby_space_id = ? AND action_type = ?", userID, spaceID, actionType).
		Count(&count).Error
	return count, err
}

func (r *actionRepository) CountFeedbackReceived(ctx context.Context, userID, spaceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ActionFeedback{}).
		Joins("JOIN actions ON actions.id = action_feedbacks.action_id").
		Where("actions.user_id = ? AND actions.hobby_space_id = ?", userID, spaceID).
		Count(&count).Error
	return count, err
}

func (r *actionRepository) FirstActionAt(ctx context.Context, userID, spaceID uuid.UUID) (*time.Time, error) {
	var action model.Action
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND hobby_space_id = ?", userID, spaceID).
		Order("created_at ASC").
		First(&action).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &action.CreatedAt, nil
}

func (r *actionRepository) CountAllByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Action{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *actionRepository) SumEffortByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&model.Action{}).
		Select("COALESCE(SUM(effort_score), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum, err
}

func (r *actionRepository) ActionsByType(ctx context.Context, userID, spaceID uuid.UUID) ([]TypeCount, error) {
	var rows []TypeCount
	err := r.db.WithContext(ctx).Model(&model.Action{}).
		Select("action_type, COUNT(*) as count").
		Where("user_id = ? AND hobby_space_id = ?", userID, spaceID).
		Group("action_type").
		Scan(&rows).Error
	return rows, err
}

func (r *actionRepository) UserSpaceTotals(ctx context.Context, userID, spaceID uuid.UUID) (UserTotals, error) {
	var totals UserTotals
	err := r.db.WithContext(ctx).Model(&model.Action{}).
		Select("COUNT(*) as actions, COALESCE(SUM(effort_score), 0) as effort, COALESCE(SUM(points_awarded), 0) as points").
		Where("user_id = ? AND hobby_space_id = ?", userID, spaceID).
		Scan(&totals).Error
	return totals, err
}

func (r *actionRepository) SpaceTotalsSince(ctx context.Context, spaceID uuid.UUID, since time.Time) (map[uuid.UUID]UserTotals, error) {
	var rows []struct {
		UserID  uuid.UUID
		Actions int64
		Effort  int
		Points  int
	}
	err := r.db.WithContext(ctx).Model(&model.Action{}).
		Select("user_id, COUNT(*) as actions, COALESCE(SUM(effort_score), 0) as effort, COALESCE(SUM(points_awarded), 0) as points").
		Where("hobby_space_id = ? AND created_at >= ?", spaceID, since).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]UserTotals, len(rows))
	for _, row := range rows {
		totals[row.UserID] = UserTotals{Actions: row.Actions, Effort: row.Effort, Points: row.Points}
	}
	return totals, nil
}

func (r *actionRepository) TopUsersSince(ctx context.Context, spaceID *uuid.UUID, since *time.Time, limit int) ([]UserTotalsRow, error) {
	q := r.db.WithContext(ctx).Model(&model.Action{}).
		Select("user_id, COUNT(*) as actions, COALESCE(SUM(effort_score), 0) as effort, COALESCE(SUM(points_awarded), 0) as points")
	if spaceID != nil {
		q = q.Where("hobby_space_id = ?", *spaceID)
	}
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}

	var rows []UserTotalsRow
	err := q.Group("user_id").
		Order("points DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *actionRepository) AddFeedback(ctx context.Context, feedback *model.ActionFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *actionRepository) ToggleReaction(ctx context.Context, actionID, userID uuid.UUID) (bool, error) {
	var reacted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("action_id = ? AND user_id = ?", actionID, userID).
			Delete(&model.ActionReaction{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			reacted = false
			return tx.Model(&model.Action{}).
				Where("id = ? AND reactions > 0", actionID).
				Update("reactions", gorm.Expr("reactions - 1")).Error
		}

		if err := tx.Create(&model.ActionReaction{ActionID: actionID, UserID: userID}).Error; err != nil {
			return err
		}
		reacted = true
		return tx.Model(&model.Action{}).
			Where("id = ?", actionID).
			Update("reactions", gorm.Expr("reactions + 1")).Error
	})
	return reacted, err
}
