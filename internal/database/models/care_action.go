package models

import "github.com/google/uuid"

type CareActionType string

const (
	ActionWater CareActionType = "water"
	ActionFeed  CareActionType = "feed"
	ActionPlay  CareActionType = "play"
)

// ValidCareAction reports whether the action type is one of water/feed/play.
func ValidCareAction(a CareActionType) bool {
	switch a {
	case ActionWater, ActionFeed, ActionPlay:
		return true
	}
	return false
}

// CareAction is an append-only audit record. The application never updates
// or deletes one; rows go away only when the parent plant is deleted.
type CareAction struct {
	Base
	PlantID uuid.UUID      `gorm:"type:uuid;not null;index" json:"plant_id"`
	UserID  uuid.UUID      `gorm:"type:uuid;not null" json:"user_id"`
	Action  CareActionType `gorm:"not null" json:"action"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (CareAction) TableName() string {
	return "care_actions"
}
