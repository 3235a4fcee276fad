package models

import (
	"time"

	"github.com/google/uuid"
)

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// ValidMemberRole reports whether the role is one a membership row may carry.
func ValidMemberRole(r MemberRole) bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// PlantMember is the (plant, user) join row. A user holds at most one
// membership per plant.
type PlantMember struct {
	Base
	PlantID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_plant_user" json:"plant_id"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_plant_user" json:"user_id"`
	Role     MemberRole `gorm:"not null;default:'member'" json:"role"`
	JoinedAt time.Time  `json:"joined_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (PlantMember) TableName() string {
	return "plant_members"
}
