package service

import (
	"unicode/utf8"

	"github.com/grungysync/backend/internal/model"
)

// RevisionPointShare is the fraction of its own effort score a revision
// earns as points, expressed as a percentage.
const RevisionPointShare = 80

// EffortInput is a snapshot of the action fields that drive effort scoring.
// Absent fields contribute zero; the scorer has no error conditions.
type EffortInput struct {
	ActionType     string
	Content        string
	MediaCount     int
	LearningPoints int
	IsRevision     bool
}

// CalculateEffortScore converts an action's content into its raw effort
// score. Pure and deterministic; the result is clamped to
// [0, cfg.DailyPointCap].
func CalculateEffortScore(in EffortInput, cfg model.ActionConfig) int {
	score := 0

	// Text content (1 point per 10 chars, min 10 when present)
	if in.Content != "" {
		score += max(10, utf8.RuneCountInString(in.Content)/10)
	}

	// Media uploads (25 points each)
	score += in.MediaCount * 25

	// Reflection posts (20 bonus, plus 5 per learning point)
	if in.ActionType == model.ActionTypeReflect {
		score += 20 + 5*in.LearningPoints
	}

	// Revision/iteration (15 bonus)
	if in.IsRevision {
		score += 15
	}

	return min(max(score, 0), cfg.DailyPointCap)
}

// AllocatePoints converts an effort score into awarded points under the
// space's daily cap. dailyPointsSoFar is the sum of points already awarded
// to the (user, space) pair since local midnight. Revisions earn
// RevisionPointShare percent of their own effort score; the cap applies to
// every action type. Never negative, never above the effort score.
func AllocatePoints(effortScore, dailyPointsSoFar int, cfg model.ActionConfig, isRevision bool) int {
	points := effortScore
	if isRevision {
		points = points * RevisionPointShare / 100
	}

	remaining := max(cfg.DailyPointCap-dailyPointsSoFar, 0)
	return max(min(points, remaining), 0)
}

// ImprovementMultiplier computes the advisory bonus multiplier for an effort
// score relative to the user's baseline average effort. 1.0 when no baseline
// exists or the score does not exceed it; capped at 2.0.
func ImprovementMultiplier(avgEffortLevel float64, effortScore int) float64 {
	if avgEffortLevel == 0 {
		return 1.0
	}

	ratio := float64(effortScore) / avgEffortLevel
	if ratio <= 1 {
		return 1.0
	}

	return min(2.0, 1.0+(ratio-1)*0.5)
}
