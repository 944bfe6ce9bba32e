package service

import (
	"testing"

	"github.com/grungysync/backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func actionsWithEffort(scores ...int) []model.Action {
	actions := make([]model.Action, len(scores))
	for i, s := range scores {
		actions[i] = model.Action{EffortScore: s}
	}
	return actions
}

func TestComputeBaseline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		actions       []model.Action
		wantFrequency float64
		wantEffort    float64
	}{
		{
			name:          "single action",
			actions:       actionsWithEffort(30),
			wantFrequency: 1.0 / 90 * 7,
			wantEffort:    30,
		},
		{
			name:          "mixed effort averages out",
			actions:       actionsWithEffort(20, 40, 20, 40, 20, 40, 20, 40, 20, 40, 20, 40, 30),
			wantFrequency: 13.0 / 90 * 7,
			wantEffort:    30,
		},
		{
			name:          "ninety actions is one per day",
			actions:       actionsWithEffort(repeatInt(25, 90)...),
			wantFrequency: 7,
			wantEffort:    25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			freq, effort := computeBaseline(tt.actions)
			assert.InDelta(t, tt.wantFrequency, freq, 1e-9)
			assert.InDelta(t, tt.wantEffort, effort, 1e-9)
		})
	}
}

func repeatInt(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
