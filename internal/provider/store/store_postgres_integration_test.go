//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviapp/internal/provider/models"
	id "serviapp/pkg/domain"
	"serviapp/pkg/platform/sentinel"
	"serviapp/pkg/testutil/containers"
)

func seedCatalogRows(t *testing.T, pc *containers.PostgresContainer) (id.ServiceID, id.LocationID) {
	t.Helper()
	ctx := context.Background()

	svcID := uuid.New()
	_, err := pc.DB.ExecContext(ctx,
		`INSERT INTO services (id, slug, name_es, name_en) VALUES ($1, 'plomeria', 'Plomería', 'Plumbing')`,
		svcID)
	require.NoError(t, err)

	locID := uuid.New()
	_, err = pc.DB.ExecContext(ctx,
		`INSERT INTO locations (id, label) VALUES ($1, 'El Centro')`, locID)
	require.NoError(t, err)

	return id.ServiceID(svcID), id.LocationID(locID)
}

func TestPostgresProviderStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	st := NewPostgres(pc.DB)
	ctx := context.Background()

	truncate := func() {
		require.NoError(t, pc.Truncate(ctx, "providers", "services", "locations"))
	}

	t.Run("create and get round-trips", func(t *testing.T) {
		truncate()
		p := newProvider("Juan Pérez", "juan-perez", "+593987654321")
		require.NoError(t, st.Create(ctx, p))

		got, err := st.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Slug, got.Slug)
		assert.Equal(t, p.Rating, got.Rating)
		assert.Equal(t, models.StatusActive, got.Status)
	})

	t.Run("duplicate phone and slug conflict", func(t *testing.T) {
		truncate()
		p := newProvider("Juan Pérez", "juan-perez", "+593987654321")
		require.NoError(t, st.Create(ctx, p))

		samePhone := newProvider("Otro", "otro", "+593987654321")
		assert.ErrorIs(t, st.Create(ctx, samePhone), sentinel.ErrConflict)

		sameSlug := newProvider("Otro", "juan-perez", "+593987000000")
		assert.ErrorIs(t, st.Create(ctx, sameSlug), sentinel.ErrConflict)

		exists, err := st.SlugExists(ctx, "juan-perez")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("get by phone", func(t *testing.T) {
		truncate()
		p := newProvider("Juan Pérez", "juan-perez", "+593987654321")
		require.NoError(t, st.Create(ctx, p))

		got, err := st.GetByPhone(ctx, "+593987654321")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)

		_, err = st.GetByPhone(ctx, "+593900000000")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("update persists and bumps updated_at", func(t *testing.T) {
		truncate()
		p := newProvider("Juan Pérez", "juan-perez", "+593987654321")
		require.NoError(t, st.Create(ctx, p))

		p.Verified = true
		p.DescriptionES = "Plomero con experiencia"
		require.NoError(t, st.Update(ctx, p))

		got, err := st.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, got.Verified)
		assert.Equal(t, "Plomero con experiencia", got.DescriptionES)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
	})

	t.Run("replace associations is idempotent", func(t *testing.T) {
		truncate()
		svcID, locID := seedCatalogRows(t, pc)
		p := newProvider("Juan Pérez", "juan-perez", "+593987654321")
		require.NoError(t, st.Create(ctx, p))

		require.NoError(t, st.ReplaceServices(ctx, p.ID, []id.ServiceID{svcID, svcID}))
		require.NoError(t, st.ReplaceLocations(ctx, p.ID, []id.LocationID{locID}))

		services, err := st.ServiceIDs(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []id.ServiceID{svcID}, services)

		locations, err := st.LocationIDs(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []id.LocationID{locID}, locations)

		require.NoError(t, st.ReplaceServices(ctx, p.ID, nil))
		services, err = st.ServiceIDs(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, services)
	})

	t.Run("set card photo", func(t *testing.T) {
		truncate()
		p := newProvider("Juan Pérez", "juan-perez", "+593987654321")
		require.NoError(t, st.Create(ctx, p))

		require.NoError(t, st.SetCardPhoto(ctx, p.ID, "abc/profile.jpg"))
		got, err := st.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "abc/profile.jpg", got.CardPhotoPath)

		assert.ErrorIs(t, st.SetCardPhoto(ctx, id.NewProviderID(), "x.jpg"), sentinel.ErrNotFound)
	})
}
