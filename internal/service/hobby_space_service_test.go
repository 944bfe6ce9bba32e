package service

import (
	"testing"

	"github.com/grungysync/backend/internal/dto"
	"github.com/grungysync/backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestApplyActionConfig(t *testing.T) {
	t.Parallel()

	base := model.ActionConfig{
		ValidActions:             "post,log,upload,reflect",
		MinEffortThreshold:       50,
		DailyPointCap:            50,
		WeeklyPointCap:           300,
		ConsistencyWindow:        7,
		RequiredActionsPerWindow: 3,
	}

	t.Run("nil request leaves config untouched", func(t *testing.T) {
		t.Parallel()
		cfg := base
		applyActionConfig(&cfg, nil)
		assert.Equal(t, base, cfg)
	})

	t.Run("set fields overlay the defaults", func(t *testing.T) {
		t.Parallel()
		cfg := base
		dailyCap := 80
		window := 14
		applyActionConfig(&cfg, &dto.ActionConfigRequest{
			ValidActions:      []string{"post", "reflect"},
			DailyPointCap:     &dailyCap,
			ConsistencyWindow: &window,
		})

		assert.Equal(t, "post,reflect", cfg.ValidActions)
		assert.Equal(t, 80, cfg.DailyPointCap)
		assert.Equal(t, 14, cfg.ConsistencyWindow)
		// Untouched fields keep their values
		assert.Equal(t, 50, cfg.MinEffortThreshold)
		assert.Equal(t, 300, cfg.WeeklyPointCap)
		assert.Equal(t, 3, cfg.RequiredActionsPerWindow)
	})

	t.Run("empty action list keeps the whitelist", func(t *testing.T) {
		t.Parallel()
		cfg := base
		applyActionConfig(&cfg, &dto.ActionConfigRequest{ValidActions: []string{}})
		assert.Equal(t, base.ValidActions, cfg.ValidActions)
	})
}
