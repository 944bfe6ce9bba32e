package service

import (
	"testing"
	"time"

	"github.com/grungysync/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStreak() *model.Streak {
	return &model.Streak{
		MaxGraceAllowance:       model.DefaultMaxGraceAllowance,
		ActionWindow:            7,
		RequiredActionsInWindow: 3,
	}
}

func record(streak *model.Streak, at time.Time) bool {
	_, broke := advanceStreak(streak, model.StreakEntry{Date: at}, at)
	return broke
}

func TestAdvanceStreakIncrements(t *testing.T) {
	t.Parallel()

	streak := newTestStreak()
	day := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Two actions are below the window requirement
	require.False(t, record(streak, day))
	require.False(t, record(streak, day.AddDate(0, 0, 1)))
	assert.Equal(t, 0, streak.CurrentStreak)
	assert.False(t, streak.IsActive)

	// Third action in the window starts the streak
	require.False(t, record(streak, day.AddDate(0, 0, 2)))
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.True(t, streak.IsActive)
	require.NotNil(t, streak.StreakStartDate)

	record(streak, day.AddDate(0, 0, 3))
	assert.Equal(t, 2, streak.CurrentStreak)
	assert.Equal(t, 2, streak.LongestStreak)
}

func TestAdvanceStreakFirstActionSkipsGapCheck(t *testing.T) {
	t.Parallel()

	streak := newTestStreak()
	broke := record(streak, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	assert.False(t, broke)
	assert.Zero(t, streak.GraceUsedCount)
	require.NotNil(t, streak.LastActionDate)
}

func TestAdvanceStreakGapConsumesGrace(t *testing.T) {
	t.Parallel()

	streak := newTestStreak()
	day := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record(streak, day)

	// A two-day gap uses one grace day instead of breaking
	broke := record(streak, day.AddDate(0, 0, 2))
	assert.False(t, broke)
	assert.Equal(t, 1, streak.GraceUsedCount)
}

func TestAdvanceStreakBreaksWhenGraceExhausted(t *testing.T) {
	t.Parallel()

	streak := newTestStreak()
	day := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record(streak, day)
	record(streak, day.AddDate(0, 0, 3))
	record(streak, day.AddDate(0, 0, 6))
	require.Equal(t, model.DefaultMaxGraceAllowance, streak.GraceUsedCount)

	previousLast := *streak.LastActionDate
	broke := record(streak, day.AddDate(0, 0, 9))

	assert.True(t, broke)
	assert.False(t, streak.IsActive)
	assert.Equal(t, 0, streak.CurrentStreak)
	assert.Equal(t, 0, streak.GraceUsedCount)
	require.NotNil(t, streak.BreakDate)
	// The break path leaves the last action date alone
	require.NotNil(t, streak.LastActionDate)
	assert.True(t, streak.LastActionDate.Equal(previousLast))
}

func TestAdvanceStreakRestartsAfterBreak(t *testing.T) {
	t.Parallel()

	streak := newTestStreak()
	day := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 4 {
		record(streak, day.AddDate(0, 0, i))
	}
	require.Equal(t, 2, streak.CurrentStreak)

	breakStreak(streak, day.AddDate(0, 0, 10))
	require.False(t, streak.IsActive)

	// Entries from the old run have aged out; rebuild from scratch
	restart := day.AddDate(0, 0, 20)
	record(streak, restart)
	record(streak, restart.AddDate(0, 0, 1))
	record(streak, restart.AddDate(0, 0, 2))

	assert.True(t, streak.IsActive)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 2, streak.LongestStreak)
}

func TestAdvanceStreakPrunesOldEntries(t *testing.T) {
	t.Parallel()

	streak := newTestStreak()
	day := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record(streak, day)
	record(streak, day.AddDate(0, 0, 1))

	// Ten days later both old entries fall outside the 7-day window
	record(streak, day.AddDate(0, 0, 3))
	cutoff, _ := advanceStreak(streak, model.StreakEntry{Date: day.AddDate(0, 0, 10)}, day.AddDate(0, 0, 10))

	assert.True(t, cutoff.Equal(day.AddDate(0, 0, 3)))
	for _, e := range streak.Entries {
		assert.False(t, e.Date.Before(cutoff))
	}
}

func TestShouldForceBreak(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		streak model.Streak
		now    time.Time
		want   bool
	}{
		{
			name:   "inactive streak never force breaks",
			streak: model.Streak{IsActive: false, LastActionDate: &day, GraceUsedCount: 2, MaxGraceAllowance: 2},
			now:    day.AddDate(0, 0, 5),
			want:   false,
		},
		{
			name:   "no recorded action never force breaks",
			streak: model.Streak{IsActive: true, GraceUsedCount: 2, MaxGraceAllowance: 2},
			now:    day,
			want:   false,
		},
		{
			name:   "recent action keeps the streak",
			streak: model.Streak{IsActive: true, LastActionDate: &day, GraceUsedCount: 2, MaxGraceAllowance: 2},
			now:    day.AddDate(0, 0, 1),
			want:   false,
		},
		{
			name:   "stale with grace remaining survives",
			streak: model.Streak{IsActive: true, LastActionDate: &day, GraceUsedCount: 1, MaxGraceAllowance: 2},
			now:    day.AddDate(0, 0, 3),
			want:   false,
		},
		{
			name:   "stale with grace exhausted breaks",
			streak: model.Streak{IsActive: true, LastActionDate: &day, GraceUsedCount: 2, MaxGraceAllowance: 2},
			now:    day.AddDate(0, 0, 3),
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, shouldForceBreak(&tt.streak, tt.now))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, daysBetween(base, base))
	assert.Equal(t, 0, daysBetween(base, base.Add(23*time.Hour)))
	assert.Equal(t, 1, daysBetween(base, base.AddDate(0, 0, 1)))
	assert.Equal(t, 3, daysBetween(base, base.AddDate(0, 0, 3)))
}
