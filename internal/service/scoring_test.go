package service

import (
	"strings"
	"testing"

	"github.com/grungysync/backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func defaultConfig() model.ActionConfig {
	return model.ActionConfig{
		ValidActions:             "post,log,upload,reflect",
		MinEffortThreshold:       50,
		DailyPointCap:            50,
		WeeklyPointCap:           300,
		ConsistencyWindow:        7,
		RequiredActionsPerWindow: 3,
	}
}

func TestCalculateEffortScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   EffortInput
		cfg  model.ActionConfig
		want int
	}{
		{
			name: "text only scores one point per ten chars",
			in:   EffortInput{ActionType: model.ActionTypePost, Content: strings.Repeat("a", 200)},
			cfg:  defaultConfig(),
			want: 20,
		},
		{
			name: "short text floors at ten",
			in:   EffortInput{ActionType: model.ActionTypePost, Content: "tiny"},
			cfg:  defaultConfig(),
			want: 10,
		},
		{
			name: "empty content contributes nothing",
			in:   EffortInput{ActionType: model.ActionTypeUpload, MediaCount: 1},
			cfg:  defaultConfig(),
			want: 25,
		},
		{
			name: "media and reflection bonuses stack",
			in: EffortInput{
				ActionType:     model.ActionTypeReflect,
				Content:        "short",
				MediaCount:     2,
				LearningPoints: 3,
			},
			cfg: model.ActionConfig{DailyPointCap: 100},
			// 10 text + 50 media + 20 reflect + 15 learning points
			want: 95,
		},
		{
			name: "revision bonus applies",
			in:   EffortInput{ActionType: model.ActionTypePost, Content: strings.Repeat("b", 100), IsRevision: true},
			cfg:  defaultConfig(),
			want: 25,
		},
		{
			name: "score clamps to the daily cap",
			in: EffortInput{
				ActionType:     model.ActionTypeReflect,
				Content:        strings.Repeat("c", 1000),
				MediaCount:     4,
				LearningPoints: 10,
			},
			cfg:  defaultConfig(),
			want: 50,
		},
		{
			name: "multibyte content counts runes not bytes",
			in:   EffortInput{ActionType: model.ActionTypePost, Content: strings.Repeat("é", 200)},
			cfg:  defaultConfig(),
			want: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CalculateEffortScore(tt.in, tt.cfg))
		})
	}
}

func TestAllocatePoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		effort     int
		soFar      int
		isRevision bool
		cfg        model.ActionConfig
		want       int
	}{
		{
			name:   "full award under the cap",
			effort: 30,
			soFar:  0,
			cfg:    defaultConfig(),
			want:   30,
		},
		{
			name:   "partial award near the cap",
			effort: 30,
			soFar:  45,
			cfg:    defaultConfig(),
			want:   5,
		},
		{
			name:   "zero once the cap is reached",
			effort: 30,
			soFar:  50,
			cfg:    defaultConfig(),
			want:   0,
		},
		{
			name:   "zero when already past the cap",
			effort: 30,
			soFar:  60,
			cfg:    defaultConfig(),
			want:   0,
		},
		{
			name:       "revision earns eighty percent",
			effort:     40,
			soFar:      0,
			isRevision: true,
			cfg:        defaultConfig(),
			want:       32,
		},
		{
			name:       "revision share still clamps to the cap",
			effort:     40,
			soFar:      45,
			isRevision: true,
			cfg:        defaultConfig(),
			want:       5,
		},
		{
			name:   "zero effort awards zero",
			effort: 0,
			soFar:  0,
			cfg:    defaultConfig(),
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, AllocatePoints(tt.effort, tt.soFar, tt.cfg, tt.isRevision))
		})
	}
}

func TestImprovementMultiplier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		avgEffort float64
		effort    int
		want      float64
	}{
		{name: "no baseline yields neutral", avgEffort: 0, effort: 80, want: 1.0},
		{name: "below baseline yields neutral", avgEffort: 40, effort: 30, want: 1.0},
		{name: "at baseline yields neutral", avgEffort: 40, effort: 40, want: 1.0},
		{name: "fifty percent above baseline", avgEffort: 40, effort: 60, want: 1.25},
		{name: "double the baseline", avgEffort: 40, effort: 80, want: 1.5},
		{name: "caps at two", avgEffort: 10, effort: 100, want: 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, ImprovementMultiplier(tt.avgEffort, tt.effort), 1e-9)
		})
	}
}

func TestCheckMinimumEffort(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	assert.Error(t, checkMinimumEffort("too short", 0, cfg))
	assert.NoError(t, checkMinimumEffort(strings.Repeat("a", 50), 0, cfg))
	// Media attachments satisfy the threshold on their own
	assert.NoError(t, checkMinimumEffort("", 1, cfg))
}
