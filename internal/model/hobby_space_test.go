package model_test

import (
	"testing"

	"github.com/grungysync/backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestActionConfigAllowsAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		valid      string
		actionType string
		want       bool
	}{
		{name: "listed type", valid: "post,log,upload,reflect", actionType: "reflect", want: true},
		{name: "unlisted type", valid: "post,log", actionType: "upload", want: false},
		{name: "whitespace around entries", valid: "post, log , upload", actionType: "log", want: true},
		{name: "empty whitelist", valid: "", actionType: "post", want: false},
		{name: "no partial match", valid: "post,log", actionType: "pos", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := model.ActionConfig{ValidActions: tt.valid}
			assert.Equal(t, tt.want, cfg.AllowsAction(tt.actionType))
		})
	}
}

func TestActionConfigValidActionList(t *testing.T) {
	t.Parallel()

	cfg := model.ActionConfig{ValidActions: "post, ,log,"}
	assert.Equal(t, []string{"post", "log"}, cfg.ValidActionList())

	empty := model.ActionConfig{}
	assert.Empty(t, empty.ValidActionList())
}
