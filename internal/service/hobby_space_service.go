package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/dto"
	"github.com/grungysync/backend/internal/model"
	"github.com/grungysync/backend/internal/repository"
	"github.com/grungysync/backend/pkg/apperror"
	"gorm.io/gorm"
)

// HobbySpaceService manages the spaces themselves: lifecycle, membership
// and the per-space action config moderators tune.
type HobbySpaceService interface {
	CreateSpace(ctx context.Context, creatorID uuid.UUID, req dto.CreateHobbySpaceRequest) (*model.HobbySpace, error)
	UpdateSpace(ctx context.Context, userID, spaceID uuid.UUID, req dto.UpdateHobbySpaceRequest) (*model.HobbySpace, error)
	DeleteSpace(ctx context.Context, userID, spaceID uuid.UUID) error

	GetSpace(ctx context.Context, idOrSlug string) (*model.HobbySpace, error)
	ListSpaces(ctx context.Context) ([]model.HobbySpace, error)
	ListJoinedSpaces(ctx context.Context, userID uuid.UUID) ([]model.HobbySpace, error)

	JoinSpace(ctx context.Context, userID, spaceID uuid.UUID) error
	LeaveSpace(ctx context.Context, userID, spaceID uuid.UUID) error
}

type hobbySpaceService struct {
	repo   repository.HobbySpaceRepository
	search SearchService
}

func NewHobbySpaceService(repo repository.HobbySpaceRepository, search SearchService) HobbySpaceService {
	return &hobbySpaceService{repo: repo, search: search}
}

func (s *hobbySpaceService) CreateSpace(ctx context.Context, creatorID uuid.UUID, req dto.CreateHobbySpaceRequest) (*model.HobbySpace, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))

	if _, err := s.repo.FindByNameOrSlug(ctx, req.Name, slug); err == nil {
		return nil, fmt.Errorf("a hobby space with that name or slug already exists: %w", apperror.ErrBadRequest)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	space := &model.HobbySpace{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Icon:        req.Icon,
		Category:    req.Category,
		IsPublic:    true,
		CreatedByID: creatorID,
	}
	applyActionConfig(&space.ActionConfig, req.ActionConfig)

	if err := s.repo.Create(ctx, space); err != nil {
		return nil, fmt.Errorf("failed to create hobby space: %w", err)
	}

	// The creator joins as moderator
	if err := s.repo.AddMember(ctx, space.ID, creatorID, true); err != nil {
		return nil, fmt.Errorf("failed to add creator as member: %w", err)
	}
	space.MemberCount = 1

	if s.search != nil {
		if err := s.search.IndexSpace(ctx, space); err != nil {
			log.Printf("Failed to index hobby space %s: %v", space.ID, err)
		}
	}

	return space, nil
}

func (s *hobbySpaceService) UpdateSpace(ctx context.Context, userID, spaceID uuid.UUID, req dto.UpdateHobbySpaceRequest) (*model.HobbySpace, error) {
	space, err := s.findByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	moderator, err := s.repo.IsModerator(ctx, spaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check moderator status: %w", err)
	}
	if !moderator {
		return nil, fmt.Errorf("only moderators can update a hobby space: %w", apperror.ErrForbidden)
	}

	if req.Description != nil {
		space.Description = *req.Description
	}
	if req.Guidelines != nil {
		space.Guidelines = *req.Guidelines
	}
	applyActionConfig(&space.ActionConfig, req.ActionConfig)

	if err := s.repo.Save(ctx, space); err != nil {
		return nil, fmt.Errorf("failed to update hobby space: %w", err)
	}

	if s.search != nil {
		if err := s.search.IndexSpace(ctx, space); err != nil {
			log.Printf("Failed to reindex hobby space %s: %v", space.ID, err)
		}
	}

	return space, nil
}

// applyActionConfig overlays the requested config fields; absent fields keep
// their current values.
func applyActionConfig(cfg *model.ActionConfig, req *dto.ActionConfigRequest) {
	if req == nil {
		return
	}
	if len(req.ValidActions) > 0 {
		cfg.ValidActions = strings.Join(req.ValidActions, ",")
	}
	if req.MinEffortThreshold != nil {
		cfg.MinEffortThreshold = *req.MinEffortThreshold
	}
	if req.DailyPointCap != nil {
		cfg.DailyPointCap = *req.DailyPointCap
	}
	if req.WeeklyPointCap != nil {
		cfg.WeeklyPointCap = *req.WeeklyPointCap
	}
	if req.ConsistencyWindow != nil {
		cfg.ConsistencyWindow = *req.ConsistencyWindow
	}
	if req.RequiredActionsPerWindow != nil {
		cfg.RequiredActionsPerWindow = *req.RequiredActionsPerWindow
	}
}

func (s *hobbySpaceService) DeleteSpace(ctx context.Context, userID, spaceID uuid.UUID) error {
	space, err := s.findByID(ctx, spaceID)
	if err != nil {
		return err
	}
	if space.CreatedByID != userID {
		return fmt.Errorf("only the creator can delete a hobby space: %w", apperror.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, spaceID); err != nil {
		return fmt.Errorf("failed to delete hobby space: %w", err)
	}

	if s.search != nil {
		if err := s.search.RemoveSpace(ctx, spaceID); err != nil {
			log.Printf("Failed to remove hobby space %s from search index: %v", spaceID, err)
		}
	}
	return nil
}

// GetSpace resolves by UUID first, then by slug.
func (s *hobbySpaceService) GetSpace(ctx context.Context, idOrSlug string) (*model.HobbySpace, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return s.findByID(ctx, id)
	}

	space, err := s.repo.FindBySlug(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("hobby space not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return space, nil
}

func (s *hobbySpaceService) ListSpaces(ctx context.Context) ([]model.HobbySpace, error) {
	return s.repo.ListPublic(ctx)
}

func (s *hobbySpaceService) ListJoinedSpaces(ctx context.Context, userID uuid.UUID) ([]model.HobbySpace, error) {
	return s.repo.ListMemberSpaces(ctx, userID)
}

func (s *hobbySpaceService) JoinSpace(ctx context.Context, userID, spaceID uuid.UUID) error {
	if _, err := s.findByID(ctx, spaceID); err != nil {
		return err
	}

	member, err := s.repo.IsMember(ctx, spaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return fmt.Errorf("you are already a member of this space: %w", apperror.ErrBadRequest)
	}

	return s.repo.AddMember(ctx, spaceID, userID, false)
}

func (s *hobbySpaceService) LeaveSpace(ctx context.Context, userID, spaceID uuid.UUID) error {
	space, err := s.findByID(ctx, spaceID)
	if err != nil {
		return err
	}
	if space.CreatedByID == userID {
		return fmt.Errorf("the creator cannot leave their own space: %w", apperror.ErrBadRequest)
	}

	return s.repo.RemoveMember(ctx, spaceID, userID)
}

func (s *hobbySpaceService) findByID(ctx context.Context, id uuid.UUID) (*model.HobbySpace, error) {
	space, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("hobby space not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return space, nil
}
