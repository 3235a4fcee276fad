package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeInvitationEmail = "notify:invitation_email"
	TypeDecaySweep      = "garden:decay_sweep"
)

// InvitationEmailPayload carries everything the worker needs to render and
// send a bloom-buddy invitation.
type InvitationEmailPayload struct {
	PlantID      uuid.UUID `json:"plant_id"`
	PlantName    string    `json:"plant_name"`
	Email        string    `json:"email"`
	InviterName  string    `json:"inviter_name"`
	InviterEmail string    `json:"inviter_email"`
}

func NewInvitationEmailTask(payload InvitationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInvitationEmail, data), nil
}

// DecaySweepPayload is empty - the sweep covers every plant.
type DecaySweepPayload struct{}

func NewDecaySweepTask() *asynq.Task {
	return asynq.NewTask(TypeDecaySweep, nil, asynq.Queue("low"))
}
