package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bloomery/bloomery/internal/garden"
	"github.com/bloomery/bloomery/internal/notify"
	"github.com/bloomery/bloomery/pkg/config"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

type Handler struct {
	db      *gorm.DB
	logger  *slog.Logger
	gardens *garden.Service
	mailer  notify.Sender
	mail    config.MailConfig
}

func NewHandler(db *gorm.DB, logger *slog.Logger, mailer notify.Sender, mail config.MailConfig) *Handler {
	return &Handler{
		db:      db,
		logger:  logger,
		gardens: garden.NewService(db, logger),
		mailer:  mailer,
		mail:    mail,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInvitationEmail, h.HandleInvitationEmail)
	mux.HandleFunc(TypeDecaySweep, h.HandleDecaySweep)
}

func (h *Handler) HandleInvitationEmail(ctx context.Context, t *asynq.Task) error {
	var payload InvitationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	// No key configured means invitations are a no-op, not a retry storm.
	if h.mail.ResendAPIKey == "" {
		h.logger.Warn("RESEND_API_KEY not set, dropping invitation email",
			"plant_id", payload.PlantID,
			"to", payload.Email,
		)
		return nil
	}

	inviter := payload.InviterName
	if inviter == "" {
		inviter = payload.InviterEmail
	}

	joinURL := fmt.Sprintf("%s?plantId=%s", h.mail.InviteURL, payload.PlantID)
	msg := notify.Message{
		To:      payload.Email,
		Subject: notify.InvitationSubject(payload.PlantName),
		HTML:    notify.InvitationHTML(payload.PlantName, inviter, joinURL),
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send invitation email",
			"plant_id", payload.PlantID,
			"to", payload.Email,
			"error", err,
		)
		return err
	}

	h.logger.Info("sent invitation email", "plant_id", payload.PlantID, "to", payload.Email)
	return nil
}

func (h *Handler) HandleDecaySweep(ctx context.Context, t *asynq.Task) error {
	changed, err := h.gardens.DecaySweep(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("decay sweep: %w", err)
	}
	h.logger.Info("decay sweep completed", "plants_changed", changed)
	return nil
}
