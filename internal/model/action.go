package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VisibilityPublic    = "public"
	VisibilitySpaceOnly = "hobbyspace-only"
	VisibilityPrivate   = "private"
)

// Action is one user-submitted unit of engagement in a hobby space.
// Core fields are immutable after creation; only reactions, feedback and
// revision linkage change afterwards.
type Action struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;index:idx_action_user_space,priority:1;not null" json:"user_id"`
	User         User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	HobbySpaceID uuid.UUID  `gorm:"type:uuid;index:idx_action_user_space,priority:2;not null" json:"hobby_space_id"`
	HobbySpace   HobbySpace `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	ActionType string `gorm:"size:20;not null" json:"action_type"` // 'post', 'log', 'upload', 'reflect'
	Content    string `gorm:"type:text" json:"content"`
	MediaCount int    `gorm:"default:0" json:"media_count"`
	MediaURLs  string `gorm:"type:text" json:"media_urls"` // comma separated secure URLs

	LearningPoints string `gorm:"type:text" json:"learning_points"` // newline separated
	Challenges     string `gorm:"type:text" json:"challenges"`      // newline separated

	IsRevision bool       `gorm:"default:false" json:"is_revision"`
	RevisionOf *uuid.UUID `gorm:"type:uuid" json:"revision_of,omitempty"`

	// Computed once at creation. PointsAwarded never exceeds EffortScore and
	// never pushes the same-day (user, space) sum past the daily cap.
	EffortScore   int `gorm:"default:0" json:"effort_score"`
	PointsAwarded int `gorm:"default:0" json:"points_awarded"`

	Reactions  int    `gorm:"default:0" json:"reactions"`
	Visibility string `gorm:"size:20;default:'public'" json:"visibility"`

	Feedback []ActionFeedback `gorm:"foreignKey:ActionID" json:"feedback,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_action_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Action) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

func (a *Action) LearningPointList() []string {
	return splitLines(a.LearningPoints)
}

// ActionFeedback is one feedback entry given on an action. Giving feedback
// costs the giver one weekly token and credits the receiver a fixed number
// of points.
type ActionFeedback struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActionID uuid.UUID `gorm:"type:uuid;index;not null" json:"action_id"`
	GiverID  uuid.UUID `gorm:"type:uuid;not null" json:"giver_id"`
	Giver    User      `gorm:"foreignKey:GiverID;constraint:OnDelete:CASCADE" json:"-"`
	Feedback string    `gorm:"type:text;not null" json:"feedback"` // min 20 chars, validated at the service
	Points   int       `gorm:"default:5" json:"points"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (f *ActionFeedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ActionReaction records a single user's heart on an action; the unique key
// makes the toggle idempotent.
type ActionReaction struct {
	ActionID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"action_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
