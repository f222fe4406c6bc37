package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviapp/pkg/platform/sentinel"
)

func TestInMemoryStore_Lookup(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	SeedCuencaCatalog(store)

	t.Run("service by slug", func(t *testing.T) {
		svc, err := store.ServiceBySlug(ctx, "plomeria")
		require.NoError(t, err)
		assert.Equal(t, "Plomería", svc.NameES)
	})

	t.Run("service lookup is case-insensitive", func(t *testing.T) {
		svc, err := store.ServiceBySlug(ctx, "PLOMERIA")
		require.NoError(t, err)
		assert.Equal(t, "plomeria", svc.Slug)
	})

	t.Run("unknown service yields not found", func(t *testing.T) {
		_, err := store.ServiceBySlug(ctx, "tarot")
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("location by label", func(t *testing.T) {
		loc, err := store.LocationByLabel(ctx, "el centro")
		require.NoError(t, err)
		assert.Equal(t, "El Centro", loc.Label)
	})

	t.Run("unknown location yields not found", func(t *testing.T) {
		_, err := store.LocationByLabel(ctx, "Quito")
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("listings cover the seed", func(t *testing.T) {
		services, err := store.ListServices(ctx)
		require.NoError(t, err)
		assert.Len(t, services, 10)

		locations, err := store.ListLocations(ctx)
		require.NoError(t, err)
		assert.Len(t, locations, 10)
	})
}
