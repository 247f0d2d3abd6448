package subscription

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RentalsLedger_Go/internal/config"
	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/testing/memstore"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plans.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestPlanLoader_ShippedCatalogIsValid(t *testing.T) {
	seed, err := NewPlanLoader(config.ConfigPathPlansSchema).Load(filepath.Join("..", "..", config.ConfigPathPlans))
	require.NoError(t, err)
	assert.NotEmpty(t, seed.Plans)
}

func TestPlanLoader_Rejects(t *testing.T) {
	loader := NewPlanLoader(config.ConfigPathPlansSchema)

	tests := map[string]string{
		"schema: zero duration": `{"version":"1","plans":[{"name":"A","price_cents":1,"duration_days":0,"listing_quota":1,"featured_quota":0}]}`,
		"schema: unknown field": `{"version":"1","plans":[{"name":"A","price_cents":1,"duration_days":30,"listing_quota":1,"featured_quota":0,"color":"red"}]}`,
		"duplicate names":       `{"version":"1","plans":[{"name":"A","price_cents":1,"duration_days":30,"listing_quota":1,"featured_quota":0},{"name":"a","price_cents":2,"duration_days":30,"listing_quota":1,"featured_quota":0}]}`,
		"blank name":            `{"version":"1","plans":[{"name":"  ","price_cents":1,"duration_days":30,"listing_quota":1,"featured_quota":0}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loader.Load(writeSeed(t, body))
			assert.Error(t, err)
		})
	}

	_, err := loader.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, ErrMsgReadSeed)
}

func TestPlanLoader_SyncUpsertsByName(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	loader := NewPlanLoader(config.ConfigPathPlansSchema)

	existing := domain.Plan{Name: "Basic", PriceCents: 1, DurationDays: 30, ListingQuota: 5, IsActive: true}
	require.NoError(t, store.CreatePlan(ctx, &existing))
	untouched := domain.Plan{Name: "Legacy", PriceCents: 1, DurationDays: 7, ListingQuota: 1, IsActive: true}
	require.NoError(t, store.CreatePlan(ctx, &untouched))

	seed := &PlanSeed{Plans: []PlanSeedDef{
		{Name: "Basic", PriceCents: 1, DurationDays: 30, ListingQuota: 8},
		{Name: "Pro", PriceCents: 5, DurationDays: 30, ListingQuota: 20, FeaturedQuota: 4},
		{Name: "Retired", PriceCents: 5, DurationDays: 30, ListingQuota: 1, Suspended: true},
	}}

	res, err := loader.Sync(ctx, seed, store)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Inserted: 2, Updated: 1}, *res)

	basic, err := store.GetPlanByName(ctx, "Basic")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, basic.ID, "updated in place")
	assert.Equal(t, 8, basic.ListingQuota)

	retired, err := store.GetPlanByName(ctx, "Retired")
	require.NoError(t, err)
	assert.False(t, retired.IsActive)

	_, err = store.GetPlanByName(ctx, "Legacy")
	assert.NoError(t, err, "plans absent from the seed are kept")

	res, err = loader.Sync(ctx, seed, store)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Unchanged: 3}, *res)

	seed.Plans[1].Suspended = true
	res, err = loader.Sync(ctx, seed, store)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	pro, _ := store.GetPlanByName(ctx, "Pro")
	assert.False(t, pro.IsActive)
}
