package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviapp/internal/catalog"
	"serviapp/internal/provider/models"
	"serviapp/internal/provider/store"
	"serviapp/pkg/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededCatalog() *catalog.InMemoryStore {
	cat := catalog.NewInMemoryStore()
	catalog.SeedCuencaCatalog(cat)
	return cat
}

func createTestProvider(t *testing.T, providers *store.InMemoryStore) *models.Provider {
	t.Helper()
	p := &models.Provider{
		ID:     domain.NewProviderID(),
		Name:   "Juan Pérez",
		Slug:   "juan-perez",
		Phone:  "+593991234567",
		Status: models.StatusActive,
	}
	require.NoError(t, providers.Create(context.Background(), p))
	return p
}

func TestSynchronizer_ResolvesAndReplaces(t *testing.T) {
	providers := store.NewInMemoryStore()
	sync := NewSynchronizer(providers, seededCatalog(), testLogger(), nil)
	p := createTestProvider(t, providers)
	ctx := context.Background()

	err := sync.Sync(ctx, p.ID, []string{"plomeria", "electricidad"}, []string{"El Centro"})
	require.NoError(t, err)

	serviceIDs, err := providers.ServiceIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, serviceIDs, 2)

	locationIDs, err := providers.LocationIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, locationIDs, 1)
}

func TestSynchronizer_DropsUnresolvedEntries(t *testing.T) {
	providers := store.NewInMemoryStore()
	sync := NewSynchronizer(providers, seededCatalog(), testLogger(), nil)
	p := createTestProvider(t, providers)
	ctx := context.Background()

	err := sync.Sync(ctx, p.ID, []string{"plomeria", "servicio-renombrado"}, []string{"Barrio Inventado"})
	require.NoError(t, err, "stale catalog entries must not fail the sync")

	serviceIDs, err := providers.ServiceIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, serviceIDs, 1, "only the resolvable slug survives")

	locationIDs, err := providers.LocationIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, locationIDs)
}

func TestSynchronizer_AllUnresolvedYieldsEmptySet(t *testing.T) {
	providers := store.NewInMemoryStore()
	sync := NewSynchronizer(providers, seededCatalog(), testLogger(), nil)
	p := createTestProvider(t, providers)
	ctx := context.Background()

	require.NoError(t, sync.Sync(ctx, p.ID, []string{"no-existe"}, nil))

	serviceIDs, err := providers.ServiceIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, serviceIDs)
}

func TestSynchronizer_DedupesInput(t *testing.T) {
	providers := store.NewInMemoryStore()
	sync := NewSynchronizer(providers, seededCatalog(), testLogger(), nil)
	p := createTestProvider(t, providers)
	ctx := context.Background()

	err := sync.Sync(ctx, p.ID, []string{"plomeria", " Plomeria ", "PLOMERIA"}, nil)
	require.NoError(t, err)

	serviceIDs, err := providers.ServiceIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, serviceIDs, 1)
}

func TestSynchronizer_EmptySetsClearAssociations(t *testing.T) {
	providers := store.NewInMemoryStore()
	sync := NewSynchronizer(providers, seededCatalog(), testLogger(), nil)
	p := createTestProvider(t, providers)
	ctx := context.Background()

	require.NoError(t, sync.Sync(ctx, p.ID, []string{"plomeria"}, []string{"El Centro"}))
	require.NoError(t, sync.Sync(ctx, p.ID, nil, nil))

	serviceIDs, err := providers.ServiceIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, serviceIDs)

	locationIDs, err := providers.LocationIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, locationIDs)
}
