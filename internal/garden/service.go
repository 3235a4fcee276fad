package garden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPlantNotFound     = errors.New("plant not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrInvalidAction     = errors.New("invalid action type")
	ErrInvalidRole       = errors.New("invalid role")
	ErrOwnerRoleGrant    = errors.New("cannot grant the owner role")
	ErrOwnerRoleChange   = errors.New("cannot change an owner's role")
	ErrAlreadyMember     = errors.New("user is already a member of this plant")
	ErrLastOwner         = errors.New("cannot remove the last owner")
	ErrTooMuchContention = errors.New("plant update contention, giving up")
)

// How many times a care/decay write retries its compare-and-swap before
// giving up.
const maxCASAttempts = 3

// HistoryLimit is how many audit records reads return.
const HistoryLimit = 50

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// resolveRole loads the acting user's effective role on a plant.
func (s *Service) resolveRole(ctx context.Context, plant *models.Plant, userID uuid.UUID) (models.MemberRole, error) {
	if plant.OwnerID == userID {
		return models.RoleOwner, nil
	}
	var member models.PlantMember
	err := s.db.WithContext(ctx).
		Where("plant_id = ? AND user_id = ?", plant.ID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RoleNone, nil
		}
		return RoleNone, err
	}
	return member.Role, nil
}

func (s *Service) loadPlant(ctx context.Context, plantID uuid.UUID) (*models.Plant, error) {
	var plant models.Plant
	if err := s.db.WithContext(ctx).First(&plant, "id = ?", plantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlantNotFound
		}
		return nil, err
	}
	return &plant, nil
}

// authorize loads the plant and checks the table-driven grant for op.
func (s *Service) authorize(ctx context.Context, plantID, userID uuid.UUID, op Operation) (*models.Plant, models.MemberRole, error) {
	plant, err := s.loadPlant(ctx, plantID)
	if err != nil {
		return nil, RoleNone, err
	}
	role, err := s.resolveRole(ctx, plant, userID)
	if err != nil {
		return nil, RoleNone, err
	}
	if !Allowed(role, op) {
		return nil, role, ErrAccessDenied
	}
	return plant, role, nil
}

// Authorize exposes the access check for callers outside the service, such
// as the invitation endpoint.
func (s *Service) Authorize(ctx context.Context, plantID, userID uuid.UUID, op Operation) (*models.Plant, error) {
	plant, _, err := s.authorize(ctx, plantID, userID, op)
	return plant, err
}

// ListPlants returns the plants owned by the user, newest first.
func (s *Service) ListPlants(ctx context.Context, ownerID uuid.UUID) ([]models.Plant, error) {
	var plants []models.Plant
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&plants).Error
	return plants, err
}

// CreatePlant inserts a plant with default stats and the owner membership
// row in one transaction.
func (s *Service) CreatePlant(ctx context.Context, ownerID uuid.UUID, name string) (*models.Plant, error) {
	if name == "" {
		name = models.DefaultName
	}

	// New plants start happy by fiat, even though happiness 75 sits in the
	// excited band. The first care action re-derives the mood.
	now := time.Now()
	stats := DefaultStats()
	plant := models.Plant{
		Name:        name,
		Health:      stats.Health,
		Happiness:   stats.Happiness,
		Growth:      stats.Growth,
		Stage:       models.StageSeedling,
		Mood:        models.MoodHappy,
		LastWatered: now,
		LastFed:     now,
		LastPlayed:  now,
		OwnerID:     ownerID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&plant).Error; err != nil {
			return err
		}
		member := models.PlantMember{
			PlantID:  plant.ID,
			UserID:   ownerID,
			Role:     models.RoleOwner,
			JoinedAt: now,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, fmt.Errorf("creating plant: %w", err)
	}

	return &plant, nil
}

// GetPlant returns the plant with members and recent care history nested.
func (s *Service) GetPlant(ctx context.Context, plantID, userID uuid.UUID) (*models.Plant, error) {
	if _, _, err := s.authorize(ctx, plantID, userID, OpViewPlant); err != nil {
		return nil, err
	}

	var plant models.Plant
	err := s.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Members.User").
		Preload("CareActions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(HistoryLimit)
		}).
		Preload("CareActions.User").
		First(&plant, "id = ?", plantID).Error
	if err != nil {
		return nil, err
	}
	return &plant, nil
}

// UpdatePlantInput is a partial field set; nil means leave unchanged.
type UpdatePlantInput struct {
	Name      *string
	Health    *int
	Happiness *int
	Growth    *int
	Stage     *models.Stage
	Mood      *models.Mood
}

// UpdatePlant applies an owner-only partial update. Numeric stats are
// clamped to [0,100]; when happiness or growth change without an explicit
// mood or stage, the classification is re-derived so it cannot drift.
func (s *Service) UpdatePlant(ctx context.Context, plantID, userID uuid.UUID, input UpdatePlantInput) (*models.Plant, error) {
	plant, _, err := s.authorize(ctx, plantID, userID, OpUpdatePlant)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Health != nil {
		updates["health"] = clamp(*input.Health)
	}
	if input.Happiness != nil {
		updates["happiness"] = clamp(*input.Happiness)
	}
	if input.Growth != nil {
		updates["growth"] = clamp(*input.Growth)
	}
	if input.Stage != nil {
		updates["stage"] = *input.Stage
	} else if input.Growth != nil {
		updates["stage"] = StageFor(clamp(*input.Growth))
	}
	if input.Mood != nil {
		updates["mood"] = *input.Mood
	} else if input.Happiness != nil {
		updates["mood"] = MoodFor(clamp(*input.Happiness))
	}

	if len(updates) == 0 {
		return plant, nil
	}

	if err := s.db.WithContext(ctx).Model(plant).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating plant: %w", err)
	}
	return s.loadPlant(ctx, plantID)
}

// DeletePlant removes the plant and, through the cascade constraints, its
// memberships and care history.
func (s *Service) DeletePlant(ctx context.Context, plantID, userID uuid.UUID) error {
	plant, _, err := s.authorize(ctx, plantID, userID, OpDeletePlant)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Explicit child deletes keep sqlite test databases honest even
		// without foreign-key enforcement.
		if err := tx.Where("plant_id = ?", plant.ID).Delete(&models.CareAction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plant_id = ?", plant.ID).Delete(&models.PlantMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(plant).Error
	})
}

// PerformCare applies one care action. The stat write is a compare-and-swap
// on the version column so near-simultaneous collaborators never lose an
// update; the audit insert afterwards is best-effort.
func (s *Service) PerformCare(ctx context.Context, plantID, userID uuid.UUID, action models.CareActionType) (*models.Plant, *models.CareAction, error) {
	if !models.ValidCareAction(action) {
		return nil, nil, ErrInvalidAction
	}

	plant, _, err := s.authorize(ctx, plantID, userID, OpCarePlant)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	for attempt := 0; ; attempt++ {
		next := ApplyCare(Stats{Health: plant.Health, Happiness: plant.Happiness, Growth: plant.Growth}, action)

		updates := map[string]interface{}{
			"health":     next.Health,
			"happiness":  next.Happiness,
			"growth":     next.Growth,
			"mood":       MoodFor(next.Happiness),
			"stage":      StageFor(next.Growth),
			"version":    plant.Version + 1,
			"updated_at": now,
		}
		switch action {
		case models.ActionWater:
			updates["last_watered"] = now
		case models.ActionFeed:
			updates["last_fed"] = now
		case models.ActionPlay:
			updates["last_played"] = now
		}

		res := s.db.WithContext(ctx).Model(&models.Plant{}).
			Where("id = ? AND version = ?", plant.ID, plant.Version).
			Updates(updates)
		if res.Error != nil {
			return nil, nil, fmt.Errorf("updating plant stats: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			break
		}

		// Someone else's care landed first; re-read and re-apply.
		if attempt+1 >= maxCASAttempts {
			return nil, nil, ErrTooMuchContention
		}
		plant, err = s.loadPlant(ctx, plantID)
		if err != nil {
			return nil, nil, err
		}
	}

	updated, err := s.loadPlant(ctx, plantID)
	if err != nil {
		return nil, nil, err
	}

	// Best-effort audit trail: a failed insert is logged, never surfaced.
	record := &models.CareAction{
		PlantID: plant.ID,
		UserID:  userID,
		Action:  action,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logger.Error("failed to record care action",
			"plant_id", plant.ID,
			"user_id", userID,
			"action", action,
			"error", err,
		)
		return updated, nil, nil
	}
	if err := s.db.WithContext(ctx).Preload("User").First(record, "id = ?", record.ID).Error; err != nil {
		return updated, record, nil
	}

	return updated, record, nil
}

// CareHistory returns the last HistoryLimit audit records, newest first.
func (s *Service) CareHistory(ctx context.Context, plantID, userID uuid.UUID) ([]models.CareAction, error) {
	if _, _, err := s.authorize(ctx, plantID, userID, OpViewHistory); err != nil {
		return nil, err
	}

	var actions []models.CareAction
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("plant_id = ?", plantID).
		Order("created_at DESC").
		Limit(HistoryLimit).
		Find(&actions).Error
	return actions, err
}

// ListMembers returns memberships with user profiles, join time ascending.
func (s *Service) ListMembers(ctx context.Context, plantID, userID uuid.UUID) ([]models.PlantMember, error) {
	if _, _, err := s.authorize(ctx, plantID, userID, OpListMembers); err != nil {
		return nil, err
	}

	var members []models.PlantMember
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("plant_id = ?", plantID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// AddMember invites a user by email. Owner/admin only; the owner role is
// only ever granted by plant creation.
func (s *Service) AddMember(ctx context.Context, plantID, userID uuid.UUID, targetEmail string, role models.MemberRole) (*models.PlantMember, error) {
	if role == "" {
		role = models.RoleMember
	}
	if role == models.RoleOwner {
		return nil, ErrOwnerRoleGrant
	}
	if !models.ValidMemberRole(role) {
		return nil, ErrInvalidRole
	}

	if _, _, err := s.authorize(ctx, plantID, userID, OpAddMember); err != nil {
		return nil, err
	}

	var target models.User
	if err := s.db.WithContext(ctx).Where("email = ?", targetEmail).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.insertMember(ctx, plantID, target.ID, role)
}

// Join adds the caller to an existing plant. Self-service; same rules as
// AddMember for the requested role.
func (s *Service) Join(ctx context.Context, plantID, userID uuid.UUID, role models.MemberRole) (*models.PlantMember, error) {
	if role == "" {
		role = models.RoleMember
	}
	if role == models.RoleOwner {
		return nil, ErrOwnerRoleGrant
	}
	if !models.ValidMemberRole(role) {
		return nil, ErrInvalidRole
	}

	if _, err := s.loadPlant(ctx, plantID); err != nil {
		return nil, err
	}

	return s.insertMember(ctx, plantID, userID, role)
}

func (s *Service) insertMember(ctx context.Context, plantID, memberID uuid.UUID, role models.MemberRole) (*models.PlantMember, error) {
	var existing models.PlantMember
	err := s.db.WithContext(ctx).
		Where("plant_id = ? AND user_id = ?", plantID, memberID).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyMember
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := models.PlantMember{
		PlantID:  plantID,
		UserID:   memberID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		return nil, fmt.Errorf("adding member: %w", err)
	}
	if err := s.db.WithContext(ctx).Preload("User").First(&member, "id = ?", member.ID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateRole changes a member's role. Owner only; neither the owner role
// itself nor an owner's row can be touched through this path.
func (s *Service) UpdateRole(ctx context.Context, plantID, userID, targetUserID uuid.UUID, role models.MemberRole) (*models.PlantMember, error) {
	if role == models.RoleOwner {
		return nil, ErrOwnerRoleGrant
	}
	if !models.ValidMemberRole(role) {
		return nil, ErrInvalidRole
	}

	if _, _, err := s.authorize(ctx, plantID, userID, OpChangeRole); err != nil {
		return nil, err
	}

	var member models.PlantMember
	err := s.db.WithContext(ctx).
		Where("plant_id = ? AND user_id = ?", plantID, targetUserID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if member.Role == models.RoleOwner {
		return nil, ErrOwnerRoleChange
	}

	if err := s.db.WithContext(ctx).Model(&member).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("updating member role: %w", err)
	}
	if err := s.db.WithContext(ctx).Preload("User").First(&member, "id = ?", member.ID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember enforces the full removal rules: owners remove anyone, admins
// remove member-role rows only, anyone removes themself, and the sole
// remaining owner can never be removed.
func (s *Service) RemoveMember(ctx context.Context, plantID, userID, targetUserID uuid.UUID) error {
	plant, err := s.loadPlant(ctx, plantID)
	if err != nil {
		return err
	}
	role, err := s.resolveRole(ctx, plant, userID)
	if err != nil {
		return err
	}

	removingSelf := userID == targetUserID
	if !Allowed(role, OpRemoveMember) && !removingSelf {
		return ErrAccessDenied
	}

	var target models.PlantMember
	err = s.db.WithContext(ctx).
		Where("plant_id = ? AND user_id = ?", plantID, targetUserID).
		First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	// Admins may not remove other admins or the owner.
	if role == models.RoleAdmin && !removingSelf && target.Role != models.RoleMember {
		return ErrAccessDenied
	}

	if target.Role == models.RoleOwner {
		var owners int64
		if err := s.db.WithContext(ctx).Model(&models.PlantMember{}).
			Where("plant_id = ? AND role = ?", plantID, models.RoleOwner).
			Count(&owners).Error; err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	return s.db.WithContext(ctx).Delete(&target).Error
}

// DecaySweep walks every plant and applies the neglect decay through the
// same compare-and-swap path as care. Returns how many plants changed.
func (s *Service) DecaySweep(ctx context.Context, now time.Time) (int, error) {
	var plants []models.Plant
	if err := s.db.WithContext(ctx).Find(&plants).Error; err != nil {
		return 0, err
	}

	changed := 0
	for i := range plants {
		plant := &plants[i]
		stats := Stats{Health: plant.Health, Happiness: plant.Happiness, Growth: plant.Growth}
		next := ApplyDecay(stats, now.Sub(plant.LastWatered), now.Sub(plant.LastFed), now.Sub(plant.LastPlayed))
		if next == stats {
			continue
		}

		res := s.db.WithContext(ctx).Model(&models.Plant{}).
			Where("id = ? AND version = ?", plant.ID, plant.Version).
			Updates(map[string]interface{}{
				"health":    next.Health,
				"happiness": next.Happiness,
				"mood":      MoodFor(next.Happiness),
				"stage":     StageFor(next.Growth),
				"version":   plant.Version + 1,
			})
		if res.Error != nil {
			s.logger.Error("decay update failed", "plant_id", plant.ID, "error", res.Error)
			continue
		}
		// A concurrent care action bumped the version; skip, the next
		// sweep will see the fresh timestamps.
		if res.RowsAffected == 1 {
			changed++
		}
	}
	return changed, nil
}
