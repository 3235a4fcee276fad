package garden

import (
	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/google/uuid"
)

// Operation is something a user can try to do to a plant.
type Operation string

const (
	OpViewPlant    Operation = "view_plant"
	OpUpdatePlant  Operation = "update_plant"
	OpDeletePlant  Operation = "delete_plant"
	OpCarePlant    Operation = "care_plant"
	OpViewHistory  Operation = "view_history"
	OpListMembers  Operation = "list_members"
	OpAddMember    Operation = "add_member"
	OpChangeRole   Operation = "change_role"
	OpRemoveMember Operation = "remove_member"
)

// RoleNone marks a user with no relationship to the plant.
const RoleNone models.MemberRole = ""

// permissions is the role × operation grant table. Rules that depend on more
// than the acting role (self-removal, admin-removes-members-only, last-owner)
// live in the service next to the data they need.
var permissions = map[models.MemberRole]map[Operation]bool{
	models.RoleOwner: {
		OpViewPlant:    true,
		OpUpdatePlant:  true,
		OpDeletePlant:  true,
		OpCarePlant:    true,
		OpViewHistory:  true,
		OpListMembers:  true,
		OpAddMember:    true,
		OpChangeRole:   true,
		OpRemoveMember: true,
	},
	models.RoleAdmin: {
		OpViewPlant:    true,
		OpCarePlant:    true,
		OpViewHistory:  true,
		OpListMembers:  true,
		OpAddMember:    true,
		OpRemoveMember: true,
	},
	models.RoleMember: {
		OpViewPlant:   true,
		OpCarePlant:   true,
		OpViewHistory: true,
		OpListMembers: true,
	},
}

// Allowed reports whether a role may perform an operation at all.
func Allowed(role models.MemberRole, op Operation) bool {
	return permissions[role][op]
}

// ResolveRole determines a user's effective role on a plant. The owner column
// wins even if the owner's membership row is missing; otherwise the
// membership row decides; otherwise RoleNone.
func ResolveRole(plant *models.Plant, memberships []models.PlantMember, userID uuid.UUID) models.MemberRole {
	if plant.OwnerID == userID {
		return models.RoleOwner
	}
	for _, m := range memberships {
		if m.UserID == userID {
			return m.Role
		}
	}
	return RoleNone
}
