package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/dto"
	"github.com/grungysync/backend/internal/model"
	"github.com/grungysync/backend/internal/repository"
	"github.com/grungysync/backend/pkg/apperror"
	"github.com/grungysync/backend/pkg/storage"
	"gorm.io/gorm"
)

// FeedbackPoints is the fixed point credit the action author receives per
// feedback entry.
const FeedbackPoints = 5

// Rate-limit windows for the burst-prone write paths.
const (
	opSubmitAction = "submit_action"
	opGiveFeedback = "give_feedback"

	submitRateWindow   = 10 * time.Second
	feedbackRateWindow = 30 * time.Second
)

// ActionService owns the submit pipeline: validation, effort scoring, point
// allocation under the daily cap, and the streak update, all inside one
// database transaction. Badge evaluation, search indexing and notifications
// run after commit and never fail the submit.
type ActionService interface {
	SubmitAction(ctx context.Context, userID uuid.UUID, req dto.CreateActionRequest, files []*multipart.FileHeader) (*dto.ActionResult, error)
	CreateRevision(ctx context.Context, userID, actionID uuid.UUID, req dto.CreateRevisionRequest) (*dto.ActionResult, error)
	DeleteAction(ctx context.Context, userID, actionID uuid.UUID) (*dto.DeleteActionResult, error)
	GetAction(ctx context.Context, viewerID, actionID uuid.UUID) (*model.Action, error)

	GiveFeedback(ctx context.Context, giverID, actionID uuid.UUID, req dto.GiveFeedbackRequest) (*model.ActionFeedback, error)
	ToggleReaction(ctx context.Context, userID, actionID uuid.UUID) (bool, error)

	ListSpaceActions(ctx context.Context, spaceID uuid.UUID, page dto.PageQuery) (*dto.ActionListResponse, error)
	ListUserActions(ctx context.Context, viewerID, userID uuid.UUID, spaceID *uuid.UUID, page dto.PageQuery) ([]model.Action, error)
	Feed(ctx context.Context, userID uuid.UUID, page dto.PageQuery) (*dto.ActionListResponse, error)
}

type actionService struct {
	actions  repository.ActionRepository
	users    repository.UserRepository
	spaces   repository.HobbySpaceRepository
	streaks  StreakService
	badges   BadgeService
	search   SearchService
	media    storage.MediaStorage
	notifier NotificationService
	limiter  RateLimitService

	// transact runs fn inside one database transaction.
	transact func(ctx context.Context, fn func(tx *gorm.DB) error) error

	// submitLocks serializes submissions per (user, space) so two concurrent
	// submits cannot both read the same daily-cap remainder.
	submitLocks sync.Map
}

func NewActionService(
	db *gorm.DB,
	actions repository.ActionRepository,
	users repository.UserRepository,
	spaces repository.HobbySpaceRepository,
	streaks StreakService,
	badges BadgeService,
	search SearchService,
	media storage.MediaStorage,
	notifier NotificationService,
	limiter RateLimitService,
) ActionService {
	return &actionService{
		actions:  actions,
		users:    users,
		spaces:   spaces,
		streaks:  streaks,
		badges:   badges,
		search:   search,
		media:    media,
		notifier: notifier,
		limiter:  limiter,
		transact: func(ctx context.Context, fn func(tx *gorm.DB) error) error {
			return db.WithContext(ctx).Transaction(fn)
		},
	}
}

// checkRateLimit takes the redis lock for the operation. Redis failures are
// logged and let the request through; only an unexpired window rejects.
func (s *actionService) checkRateLimit(ctx context.Context, userID uuid.UUID, operation string, window time.Duration) error {
	if s.limiter == nil {
		return nil
	}

	allowed, err := s.limiter.Allow(ctx, userID, operation, window)
	if err != nil {
		log.Printf("Failed to check %s rate limit for user %s: %v", operation, userID, err)
		return nil
	}
	if allowed {
		return nil
	}

	if ttl, err := s.limiter.RetryAfter(ctx, userID, operation); err == nil && ttl > 0 {
		return fmt.Errorf("too many requests, retry in %s: %w", ttl.Round(time.Second), apperror.ErrRateLimitExceeded)
	}
	return fmt.Errorf("too many requests: %w", apperror.ErrRateLimitExceeded)
}

// clearRateLimit releases the lock when the guarded operation failed without
// doing any work, so the user may retry immediately.
func (s *actionService) clearRateLimit(ctx context.Context, userID uuid.UUID, operation string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Clear(ctx, userID, operation); err != nil {
		log.Printf("Failed to clear %s rate limit for user %s: %v", operation, userID, err)
	}
}

func (s *actionService) lockSubmit(userID, spaceID uuid.UUID) func() {
	key := userID.String() + "|" + spaceID.String()
	mu, _ := s.submitLocks.LoadOrStore(key, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}

func (s *actionService) SubmitAction(ctx context.Context, userID uuid.UUID, req dto.CreateActionRequest, files []*multipart.FileHeader) (*dto.ActionResult, error) {
	if err := s.checkRateLimit(ctx, userID, opSubmitAction, submitRateWindow); err != nil {
		return nil, err
	}

	result, err := s.submitAction(ctx, userID, req, files)
	if err != nil {
		s.clearRateLimit(ctx, userID, opSubmitAction)
	}
	return result, err
}

func (s *actionService) submitAction(ctx context.Context, userID uuid.UUID, req dto.CreateActionRequest, files []*multipart.FileHeader) (*dto.ActionResult, error) {
	space, err := s.loadSpace(ctx, req.HobbySpaceID)
	if err != nil {
		return nil, err
	}

	member, err := s.spaces.IsMember(ctx, space.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, fmt.Errorf("you must join this hobby space before posting: %w", apperror.ErrForbidden)
	}

	if !space.ActionConfig.AllowsAction(req.ActionType) {
		return nil, fmt.Errorf("action type %q is not allowed in this space (allowed: %s): %w",
			req.ActionType, space.ActionConfig.ValidActions, apperror.ErrInvalidInput)
	}

	if err := checkMinimumEffort(req.Content, len(files), space.ActionConfig); err != nil {
		return nil, err
	}

	mediaURLs, err := s.uploadMedia(ctx, space.Slug, files)
	if err != nil {
		return nil, err
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	action := &model.Action{
		UserID:         userID,
		HobbySpaceID:   space.ID,
		ActionType:     req.ActionType,
		Content:        req.Content,
		MediaCount:     len(mediaURLs),
		MediaURLs:      strings.Join(mediaURLs, ","),
		LearningPoints: strings.Join(req.LearningPoints, "\n"),
		Challenges:     strings.Join(req.Challenges, "\n"),
		Visibility:     visibility,
	}

	return s.persistAction(ctx, userID, space, action, len(req.LearningPoints))
}

func (s *actionService) CreateRevision(ctx context.Context, userID, actionID uuid.UUID, req dto.CreateRevisionRequest) (*dto.ActionResult, error) {
	original, err := s.loadAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if original.UserID != userID {
		return nil, fmt.Errorf("only the author can revise an action: %w", apperror.ErrForbidden)
	}

	space, err := s.loadSpace(ctx, original.HobbySpaceID)
	if err != nil {
		return nil, err
	}

	if err := checkMinimumEffort(req.Content, 0, space.ActionConfig); err != nil {
		return nil, err
	}

	action := &model.Action{
		UserID:         userID,
		HobbySpaceID:   space.ID,
		ActionType:     original.ActionType,
		Content:        req.Content,
		LearningPoints: strings.Join(req.LearningPoints, "\n"),
		IsRevision:     true,
		RevisionOf:     &original.ID,
		Visibility:     original.Visibility,
	}

	return s.persistAction(ctx, userID, space, action, len(req.LearningPoints))
}

// persistAction scores the action and commits it, the point grant and the
// streak update atomically. The per-(user, space) lock covers the read of the
// daily-cap remainder through the commit.
func (s *actionService) persistAction(ctx context.Context, userID uuid.UUID, space *model.HobbySpace, action *model.Action, learningPoints int) (*dto.ActionResult, error) {
	unlock := s.lockSubmit(userID, space.ID)
	defer unlock()

	now := time.Now()

	effort := CalculateEffortScore(EffortInput{
		ActionType:     action.ActionType,
		Content:        action.Content,
		MediaCount:     action.MediaCount,
		LearningPoints: learningPoints,
		IsRevision:     action.IsRevision,
	}, space.ActionConfig)

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	pointsToday, err := s.actions.SumPointsSince(ctx, userID, space.ID, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to sum today's points: %w", err)
	}

	action.EffortScore = effort
	action.PointsAwarded = AllocatePoints(effort, pointsToday, space.ActionConfig, action.IsRevision)

	var (
		streak *model.Streak
		broke  bool
	)
	err = s.transact(ctx, func(tx *gorm.DB) error {
		if err := s.actions.WithTx(tx).Create(ctx, action); err != nil {
			return fmt.Errorf("failed to create action: %w", err)
		}
		if action.PointsAwarded > 0 {
			if err := s.users.WithTx(tx).AddPoints(ctx, userID, space.ID, action.PointsAwarded); err != nil {
				return fmt.Errorf("failed to grant points: %w", err)
			}
		}
		streak, broke, err = s.streaks.WithTx(tx).RecordAction(ctx, userID, space.ID, &action.ID, space.ActionConfig, now)
		if err != nil {
			return fmt.Errorf("failed to record streak activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterSubmit(ctx, userID, space, action, streak, broke)

	multiplier := 1.0
	if user, err := s.users.FindByID(ctx, userID); err == nil {
		multiplier = ImprovementMultiplier(user.AvgEffortLevel, effort)
	} else {
		log.Printf("Failed to load user %s for improvement multiplier: %v", userID, err)
	}

	return &dto.ActionResult{
		Action:                *action,
		EffortScore:           effort,
		PointsAwarded:         action.PointsAwarded,
		ImprovementMultiplier: multiplier,
	}, nil
}

// afterSubmit runs the best-effort side effects. Failures are logged, never
// surfaced.
func (s *actionService) afterSubmit(ctx context.Context, userID uuid.UUID, space *model.HobbySpace, action *model.Action, streak *model.Streak, broke bool) {
	if _, err := s.badges.EvaluateBadges(ctx, userID, space.ID); err != nil {
		log.Printf("Failed to evaluate badges for user %s in space %s: %v", userID, space.ID, err)
	}

	if s.search != nil && action.Visibility == model.VisibilityPublic {
		if err := s.search.IndexAction(ctx, action, space); err != nil {
			log.Printf("Failed to index action %s: %v", action.ID, err)
		}
	}

	if broke && s.notifier != nil && streak != nil {
		notification := &model.Notification{
			UserID:   userID,
			ActorID:  userID,
			EntityID: space.ID,
			Type:     model.NotificationStreakBroken,
			Message:  fmt.Sprintf("Your streak in %s has ended. Start a new one today!", space.Name),
		}
		if err := s.notifier.CreateNotification(ctx, notification); err != nil {
			log.Printf("Failed to notify user %s of broken streak: %v", userID, err)
		}
	}
}

func (s *actionService) DeleteAction(ctx context.Context, userID, actionID uuid.UUID) (*dto.DeleteActionResult, error) {
	action, err := s.loadAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if action.UserID != userID {
		return nil, fmt.Errorf("only the author can delete an action: %w", apperror.ErrForbidden)
	}

	err = s.transact(ctx, func(tx *gorm.DB) error {
		if err := s.actions.WithTx(tx).Delete(ctx, action.ID); err != nil {
			return fmt.Errorf("failed to delete action: %w", err)
		}
		if action.PointsAwarded > 0 {
			if err := s.users.WithTx(tx).AddPoints(ctx, userID, action.HobbySpaceID, -action.PointsAwarded); err != nil {
				return fmt.Errorf("failed to deduct points: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.RemoveAction(ctx, action.ID); err != nil {
			log.Printf("Failed to remove action %s from search index: %v", action.ID, err)
		}
	}
	if s.media != nil && action.MediaURLs != "" {
		for _, fileURL := range strings.Split(action.MediaURLs, ",") {
			if err := s.media.DeleteMedia(ctx, fileURL); err != nil {
				log.Printf("Failed to delete media %s: %v", fileURL, err)
			}
		}
	}

	return &dto.DeleteActionResult{PointsDeducted: action.PointsAwarded}, nil
}

func (s *actionService) GetAction(ctx context.Context, viewerID, actionID uuid.UUID) (*model.Action, error) {
	action, err := s.loadAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if action.UserID == viewerID {
		return action, nil
	}

	switch action.Visibility {
	case model.VisibilityPrivate:
		return nil, apperror.ErrNotFound
	case model.VisibilitySpaceOnly:
		member, err := s.spaces.IsMember(ctx, action.HobbySpaceID, viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
		if !member {
			return nil, apperror.ErrNotFound
		}
	}
	return action, nil
}

func (s *actionService) GiveFeedback(ctx context.Context, giverID, actionID uuid.UUID, req dto.GiveFeedbackRequest) (*model.ActionFeedback, error) {
	if err := s.checkRateLimit(ctx, giverID, opGiveFeedback, feedbackRateWindow); err != nil {
		return nil, err
	}

	feedback, err := s.giveFeedback(ctx, giverID, actionID, req)
	if err != nil {
		s.clearRateLimit(ctx, giverID, opGiveFeedback)
	}
	return feedback, err
}

func (s *actionService) giveFeedback(ctx context.Context, giverID, actionID uuid.UUID, req dto.GiveFeedbackRequest) (*model.ActionFeedback, error) {
	action, err := s.loadAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if action.UserID == giverID {
		return nil, fmt.Errorf("you cannot give feedback on your own action: %w", apperror.ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Feedback) < 20 {
		return nil, fmt.Errorf("feedback must be at least 20 characters: %w", apperror.ErrInvalidInput)
	}

	feedback := &model.ActionFeedback{
		ActionID: action.ID,
		GiverID:  giverID,
		Feedback: req.Feedback,
		Points:   FeedbackPoints,
	}

	// The token consume, the feedback row and the point grant commit or roll
	// back together.
	err = s.transact(ctx, func(tx *gorm.DB) error {
		consumed, err := s.users.WithTx(tx).ConsumeFeedbackToken(ctx, giverID)
		if err != nil {
			return fmt.Errorf("failed to consume feedback token: %w", err)
		}
		if !consumed {
			return fmt.Errorf("no feedback tokens left this week: %w", apperror.ErrExhausted)
		}
		if err := s.actions.WithTx(tx).AddFeedback(ctx, feedback); err != nil {
			return fmt.Errorf("failed to store feedback: %w", err)
		}
		return s.users.WithTx(tx).AddPoints(ctx, action.UserID, action.HobbySpaceID, FeedbackPoints)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		notification := &model.Notification{
			UserID:   action.UserID,
			ActorID:  giverID,
			EntityID: action.ID,
			Type:     model.NotificationFeedbackReceived,
			Message:  "Someone left feedback on your post",
		}
		if err := s.notifier.CreateNotification(ctx, notification); err != nil {
			log.Printf("Failed to notify user %s of feedback: %v", action.UserID, err)
		}
	}

	// Feedback received counts toward Community Contributor
	if _, err := s.badges.EvaluateBadges(ctx, action.UserID, action.HobbySpaceID); err != nil {
		log.Printf("Failed to evaluate badges for user %s: %v", action.UserID, err)
	}

	return feedback, nil
}

func (s *actionService) ToggleReaction(ctx context.Context, userID, actionID uuid.UUID) (bool, error) {
	if _, err := s.loadAction(ctx, actionID); err != nil {
		return false, err
	}
	return s.actions.ToggleReaction(ctx, actionID, userID)
}

func (s *actionService) ListSpaceActions(ctx context.Context, spaceID uuid.UUID, page dto.PageQuery) (*dto.ActionListResponse, error) {
	if _, err := s.loadSpace(ctx, spaceID); err != nil {
		return nil, err
	}

	actions, total, err := s.actions.ListBySpace(ctx, spaceID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list space actions: %w", err)
	}
	return &dto.ActionListResponse{Actions: actions, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *actionService) ListUserActions(ctx context.Context, viewerID, userID uuid.UUID, spaceID *uuid.UUID, page dto.PageQuery) ([]model.Action, error) {
	onlyPublic := viewerID != userID
	return s.actions.ListByUser(ctx, userID, spaceID, onlyPublic, page.Limit, page.Offset)
}

func (s *actionService) Feed(ctx context.Context, userID uuid.UUID, page dto.PageQuery) (*dto.ActionListResponse, error) {
	following, err := s.users.ListFollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followed users: %w", err)
	}
	authorIDs := append(following, userID)

	memberSpaceIDs, err := s.spaces.ListMemberSpaceIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member spaces: %w", err)
	}

	actions, total, err := s.actions.ListFeed(ctx, authorIDs, memberSpaceIDs, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed: %w", err)
	}
	return &dto.ActionListResponse{Actions: actions, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *actionService) uploadMedia(ctx context.Context, spaceSlug string, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.media == nil {
		return nil, fmt.Errorf("media uploads are not configured: %w", apperror.ErrBadRequest)
	}

	folder := "actions/" + spaceSlug
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}
		secureURL, err := s.media.UploadMedia(ctx, f, folder, fh.Filename)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", fh.Filename, err)
		}
		urls = append(urls, secureURL)
	}
	return urls, nil
}

func (s *actionService) loadSpace(ctx context.Context, id uuid.UUID) (*model.HobbySpace, error) {
	space, err := s.spaces.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("hobby space not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load hobby space: %w", err)
	}
	return space, nil
}

func (s *actionService) loadAction(ctx context.Context, id uuid.UUID) (*model.Action, error) {
	action, err := s.actions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("action not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load action: %w", err)
	}
	return action, nil
}

// checkMinimumEffort enforces the space's minimum content threshold. Media
// attachments satisfy it on their own.
func checkMinimumEffort(content string, mediaCount int, cfg model.ActionConfig) error {
	if mediaCount > 0 {
		return nil
	}
	if utf8.RuneCountInString(content) < cfg.MinEffortThreshold {
		return fmt.Errorf("content must be at least %d characters (or include media): %w",
			cfg.MinEffortThreshold, apperror.ErrInvalidInput)
	}
	return nil
}
