package tasks_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bloomery/bloomery/internal/database/models"
	"github.com/bloomery/bloomery/internal/notify"
	"github.com/bloomery/bloomery/internal/tasks"
	"github.com/bloomery/bloomery/internal/testutil"
	"github.com/bloomery/bloomery/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSender struct {
	sent []notify.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg notify.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTaskHandler(t *testing.T, sender notify.Sender, mail config.MailConfig) (*tasks.Handler, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tasks.NewHandler(db, logger, sender, mail), db
}

func TestHandleInvitationEmail(t *testing.T) {
	mail := config.MailConfig{
		ResendAPIKey: "re_test_key",
		FromAddress:  "Bloomery <delivered@resend.dev>",
		InviteURL:    "http://localhost:3000/join",
	}

	payload := tasks.InvitationEmailPayload{
		PlantID:      uuid.New(),
		PlantName:    "Fernie",
		Email:        "friend@example.com",
		InviterName:  "Flora",
		InviterEmail: "flora@example.com",
	}

	t.Run("sends the invitation", func(t *testing.T) {
		sender := &fakeSender{}
		handler, _ := newTaskHandler(t, sender, mail)

		task, err := tasks.NewInvitationEmailTask(payload)
		require.NoError(t, err)

		require.NoError(t, handler.HandleInvitationEmail(context.Background(), task))
		require.Len(t, sender.sent, 1)

		msg := sender.sent[0]
		assert.Equal(t, "friend@example.com", msg.To)
		assert.Contains(t, msg.Subject, "Fernie")
		assert.Contains(t, msg.HTML, "Flora")
		assert.Contains(t, msg.HTML, "plantId="+payload.PlantID.String())
	})

	t.Run("drops silently without an API key", func(t *testing.T) {
		sender := &fakeSender{}
		handler, _ := newTaskHandler(t, sender, config.MailConfig{InviteURL: mail.InviteURL})

		task, err := tasks.NewInvitationEmailTask(payload)
		require.NoError(t, err)

		require.NoError(t, handler.HandleInvitationEmail(context.Background(), task))
		assert.Empty(t, sender.sent)
	})

	t.Run("send failures surface for retry", func(t *testing.T) {
		sender := &fakeSender{err: errors.New("resend returned 500")}
		handler, _ := newTaskHandler(t, sender, mail)

		task, err := tasks.NewInvitationEmailTask(payload)
		require.NoError(t, err)

		assert.Error(t, handler.HandleInvitationEmail(context.Background(), task))
	})

	t.Run("falls back to the inviter email", func(t *testing.T) {
		sender := &fakeSender{}
		handler, _ := newTaskHandler(t, sender, mail)

		anon := payload
		anon.InviterName = ""
		task, err := tasks.NewInvitationEmailTask(anon)
		require.NoError(t, err)

		require.NoError(t, handler.HandleInvitationEmail(context.Background(), task))
		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0].HTML, "flora@example.com")
	})
}

func TestHandleDecaySweep(t *testing.T) {
	handler, db := newTaskHandler(t, &fakeSender{}, config.MailConfig{})

	owner := testutil.CreateTestUser(t, db)
	plant := testutil.CreateTestPlant(t, db, owner)

	// Make the plant thoroughly neglected
	stale := time.Now().Add(-24 * time.Hour)
	require.NoError(t, db.Model(&models.Plant{}).Where("id = ?", plant.ID).
		Updates(map[string]interface{}{
			"last_watered": stale,
			"last_fed":     stale,
			"last_played":  stale,
		}).Error)

	require.NoError(t, handler.HandleDecaySweep(context.Background(), tasks.NewDecaySweepTask()))

	var got models.Plant
	require.NoError(t, db.First(&got, "id = ?", plant.ID).Error)
	assert.Equal(t, 78, got.Health)
	assert.Equal(t, 73, got.Happiness)
}
