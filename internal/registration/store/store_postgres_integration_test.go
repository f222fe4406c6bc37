//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviapp/internal/registration/models"
	"serviapp/internal/upload"
	id "serviapp/pkg/domain"
	"serviapp/pkg/platform/sentinel"
	"serviapp/pkg/testutil/containers"
)

func newRegistration(phone string) *models.Registration {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Registration{
		ID:            id.NewRegistrationID(),
		Name:          "Juan Pérez",
		Phone:         phone,
		Email:         "juan@example.com",
		NationalID:    "0102030405",
		Services:      []string{"plomeria"},
		Areas:         []string{"El Centro"},
		SpeaksEnglish: true,
		Message:       "Quince años de experiencia",
		References: []models.ReferenceContact{
			{Name: "María", Phone: "+593991112223"},
		},
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPostgresRegistrationStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	st := NewPostgres(pc.DB)
	ctx := context.Background()

	truncate := func() {
		require.NoError(t, pc.Truncate(ctx, "registrations"))
	}

	t.Run("create and get round-trips all fields", func(t *testing.T) {
		truncate()
		reg := newRegistration("+593987654321")
		require.NoError(t, st.Create(ctx, reg))

		got, err := st.Get(ctx, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, reg.Name, got.Name)
		assert.Equal(t, reg.Phone, got.Phone)
		assert.Equal(t, reg.Services, got.Services)
		assert.Equal(t, reg.Areas, got.Areas)
		assert.Equal(t, reg.References, got.References)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("get unknown id returns not found", func(t *testing.T) {
		truncate()
		_, err := st.Get(ctx, id.NewRegistrationID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("active phone blocks a second insert", func(t *testing.T) {
		truncate()
		first := newRegistration("+593987654321")
		require.NoError(t, st.Create(ctx, first))

		second := newRegistration("+593987654321")
		err := st.Create(ctx, second)
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		exists, err := st.ExistsActiveByPhone(ctx, "+593987654321")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("rejection frees the phone for reapplication", func(t *testing.T) {
		truncate()
		first := newRegistration("+593987654321")
		require.NoError(t, st.Create(ctx, first))
		require.NoError(t, st.UpdateStatus(ctx, first.ID,
			[]models.Status{models.StatusPending, models.StatusContacted}, models.StatusRejected))

		exists, err := st.ExistsActiveByPhone(ctx, "+593987654321")
		require.NoError(t, err)
		assert.False(t, exists)

		second := newRegistration("+593987654321")
		require.NoError(t, st.Create(ctx, second))
	})

	t.Run("conditional status update loses when row moved on", func(t *testing.T) {
		truncate()
		reg := newRegistration("+593987654321")
		require.NoError(t, st.Create(ctx, reg))

		require.NoError(t, st.UpdateStatus(ctx, reg.ID,
			[]models.Status{models.StatusPending}, models.StatusContacted))

		err := st.UpdateStatus(ctx, reg.ID,
			[]models.Status{models.StatusPending}, models.StatusContacted)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)

		err = st.UpdateStatus(ctx, id.NewRegistrationID(),
			[]models.Status{models.StatusPending}, models.StatusContacted)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list by status orders by creation", func(t *testing.T) {
		truncate()
		older := newRegistration("+593987000001")
		older.CreatedAt = older.CreatedAt.Add(-time.Hour)
		require.NoError(t, st.Create(ctx, older))
		newer := newRegistration("+593987000002")
		require.NoError(t, st.Create(ctx, newer))

		pending, err := st.ListByStatus(ctx, models.StatusPending)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, older.ID, pending[0].ID)
		assert.Equal(t, newer.ID, pending[1].ID)
	})

	t.Run("set photo path per kind", func(t *testing.T) {
		truncate()
		reg := newRegistration("+593987654321")
		require.NoError(t, st.Create(ctx, reg))

		require.NoError(t, st.SetPhotoPath(ctx, reg.ID, upload.KindProfile, reg.ID.String()+"/profile.jpg"))
		require.NoError(t, st.SetPhotoPath(ctx, reg.ID, upload.KindDocument, reg.ID.String()+"/document.jpg"))

		got, err := st.Get(ctx, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, reg.ID.String()+"/profile.jpg", got.ProfilePhotoPath)
		assert.Equal(t, reg.ID.String()+"/document.jpg", got.DocumentPhotoPath)
	})

	t.Run("list by phone returns full history", func(t *testing.T) {
		truncate()
		first := newRegistration("+593987654321")
		require.NoError(t, st.Create(ctx, first))
		require.NoError(t, st.UpdateStatus(ctx, first.ID,
			[]models.Status{models.StatusPending}, models.StatusRejected))
		second := newRegistration("+593987654321")
		require.NoError(t, st.Create(ctx, second))

		history, err := st.ListByPhone(ctx, "+593987654321")
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})
}
