package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/dto"
	"github.com/grungysync/backend/internal/model"
	"github.com/grungysync/backend/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestActionService(actions *fakeActionRepo, users *fakeUserRepo, limiter RateLimitService) *actionService {
	return &actionService{
		actions:  actions,
		users:    users,
		badges:   NewBadgeService(&fakeBadgeRepo{}, actions, newFakeStreakRepo(), nil),
		limiter:  limiter,
		transact: passTx,
	}
}

func TestDeleteActionReversesPoints(t *testing.T) {
	t.Parallel()

	actions := newFakeActionRepo()
	users := newFakeUserRepo()
	svc := newTestActionService(actions, users, nil)

	authorID := uuid.New()
	spaceID := uuid.New()
	action := &model.Action{
		UserID:        authorID,
		HobbySpaceID:  spaceID,
		ActionType:    model.ActionTypePost,
		PointsAwarded: 27,
	}
	require.NoError(t, actions.Create(context.Background(), action))

	result, err := svc.DeleteAction(context.Background(), authorID, action.ID)
	require.NoError(t, err)

	// The deduction mirrors the original grant exactly
	assert.Equal(t, 27, result.PointsDeducted)
	require.Len(t, users.pointDeltas, 1)
	assert.Equal(t, pointDelta{UserID: authorID, SpaceID: spaceID, Delta: -27}, users.pointDeltas[0])

	_, err = actions.FindByID(context.Background(), action.ID)
	assert.Error(t, err)
}

func TestDeleteActionZeroPointsSkipsDeduction(t *testing.T) {
	t.Parallel()

	actions := newFakeActionRepo()
	users := newFakeUserRepo()
	svc := newTestActionService(actions, users, nil)

	authorID := uuid.New()
	action := &model.Action{UserID: authorID, HobbySpaceID: uuid.New(), ActionType: model.ActionTypePost}
	require.NoError(t, actions.Create(context.Background(), action))

	result, err := svc.DeleteAction(context.Background(), authorID, action.ID)
	require.NoError(t, err)

	assert.Zero(t, result.PointsDeducted)
	assert.Empty(t, users.pointDeltas)
}

func TestDeleteActionRequiresAuthor(t *testing.T) {
	t.Parallel()

	actions := newFakeActionRepo()
	svc := newTestActionService(actions, newFakeUserRepo(), nil)

	action := &model.Action{UserID: uuid.New(), HobbySpaceID: uuid.New(), PointsAwarded: 5}
	require.NoError(t, actions.Create(context.Background(), action))

	_, err := svc.DeleteAction(context.Background(), uuid.New(), action.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// The action survives a rejected delete
	_, err = actions.FindByID(context.Background(), action.ID)
	assert.NoError(t, err)
}

func TestGiveFeedbackGrantsPoints(t *testing.T) {
	t.Parallel()

	actions := newFakeActionRepo()
	users := newFakeUserRepo()
	svc := newTestActionService(actions, users, nil)

	authorID := uuid.New()
	spaceID := uuid.New()
	action := &model.Action{UserID: authorID, HobbySpaceID: spaceID}
	require.NoError(t, actions.Create(context.Background(), action))

	giver := &model.User{FeedbackTokens: 2}
	require.NoError(t, users.Create(context.Background(), giver))

	feedback, err := svc.GiveFeedback(context.Background(), giver.ID, action.ID, dto.GiveFeedbackRequest{
		Feedback: strings.Repeat("great brushwork here ", 2),
	})
	require.NoError(t, err)

	assert.Equal(t, FeedbackPoints, feedback.Points)
	assert.Equal(t, 1, giver.FeedbackTokens)
	require.Len(t, users.pointDeltas, 1)
	assert.Equal(t, pointDelta{UserID: authorID, SpaceID: spaceID, Delta: FeedbackPoints}, users.pointDeltas[0])
	require.Len(t, actions.feedbacks, 1)
}

func TestGiveFeedbackExhaustedTokens(t *testing.T) {
	t.Parallel()

	actions := newFakeActionRepo()
	users := newFakeUserRepo()
	svc := newTestActionService(actions, users, nil)

	action := &model.Action{UserID: uuid.New(), HobbySpaceID: uuid.New()}
	require.NoError(t, actions.Create(context.Background(), action))

	giver := &model.User{FeedbackTokens: 0}
	require.NoError(t, users.Create(context.Background(), giver))

	_, err := svc.GiveFeedback(context.Background(), giver.ID, action.ID, dto.GiveFeedbackRequest{
		Feedback: strings.Repeat("solid progression overall ", 2),
	})
	assert.ErrorIs(t, err, apperror.ErrExhausted)

	// Nothing stored, no points moved
	assert.Empty(t, actions.feedbacks)
	assert.Empty(t, users.pointDeltas)
}

func TestGiveFeedbackRejectsOwnAction(t *testing.T) {
	t.Parallel()

	actions := newFakeActionRepo()
	users := newFakeUserRepo()
	svc := newTestActionService(actions, users, nil)

	author := &model.User{FeedbackTokens: 5}
	require.NoError(t, users.Create(context.Background(), author))
	action := &model.Action{UserID: author.ID, HobbySpaceID: uuid.New()}
	require.NoError(t, actions.Create(context.Background(), action))

	_, err := svc.GiveFeedback(context.Background(), author.ID, action.ID, dto.GiveFeedbackRequest{
		Feedback: strings.Repeat("reviewing my own work ", 2),
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, 5, author.FeedbackTokens)
}

func TestSubmitActionRateLimited(t *testing.T) {
	t.Parallel()

	limiter := &fakeRateLimiter{remaining: 0}
	svc := newTestActionService(newFakeActionRepo(), newFakeUserRepo(), limiter)

	_, err := svc.SubmitAction(context.Background(), uuid.New(), dto.CreateActionRequest{}, nil)
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
}

func TestGiveFeedbackClearsRateLimitOnFailure(t *testing.T) {
	t.Parallel()

	actions := newFakeActionRepo()
	users := newFakeUserRepo()
	limiter := &fakeRateLimiter{remaining: 1}
	svc := newTestActionService(actions, users, limiter)

	// Unknown action fails the request; the window must be released so the
	// user can retry immediately.
	_, err := svc.GiveFeedback(context.Background(), uuid.New(), uuid.New(), dto.GiveFeedbackRequest{
		Feedback: strings.Repeat("detailed shading notes ", 2),
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 1, limiter.cleared)
}
