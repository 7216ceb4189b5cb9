package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

func TestEnsureForVariantInitializesRecord(t *testing.T) {
	env := newTestEnv(t)
	product := mustCreateProduct(t, env.conn, "TEE")
	variant := mustCreateVariant(t, env.conn, product.ID, stringPtr("TEE-S-RED"), enums.VariantStatusActive)

	result := mustEnsure(t, env, variant)
	require.True(t, result.Created)

	record, err := env.repo.FindByID(context.Background(), result.InventoryID)
	require.NoError(t, err)
	assert.Equal(t, variant.ID, record.VariantID)
	assert.Equal(t, "TEE-S-RED", record.SKU)
	assert.Equal(t, 0, record.TotalStock)
	assert.Equal(t, 0, record.ReservedStock)
	assert.Equal(t, 0, record.AvailableStock)
	assert.Equal(t, enums.InventoryStatusOutOfStock, record.Status)
	assert.Equal(t, 5, record.LowStockThreshold)
	assert.Equal(t, 1, record.Version)
	assert.EqualValues(t, 1, countOutbox(t, env.conn, enums.EventInventoryCreated))
}

func TestEnsureForVariantIsIdempotentAndNeverResetsStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := mustCreateProduct(t, env.conn, "TEE")
	variant := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)

	first := mustEnsure(t, env, variant)
	require.True(t, first.Created)

	_, err := env.mutator.ApplyDelta(ctx, first.InventoryID, enums.StockFieldTotal, 12, enums.StockReasonReceipt, "tester")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again := mustEnsure(t, env, variant)
		assert.False(t, again.Created)
		assert.Equal(t, first.InventoryID, again.InventoryID)
	}

	record, err := env.repo.FindByID(ctx, first.InventoryID)
	require.NoError(t, err)
	assert.Equal(t, 12, record.TotalStock)

	var count int64
	require.NoError(t, env.conn.Model(&models.InventoryRecord{}).Where("variant_id = ?", variant.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.EqualValues(t, 1, countOutbox(t, env.conn, enums.EventInventoryCreated))
}

func TestEnsureForVariantConcurrentCallersConverge(t *testing.T) {
	env := newTestEnv(t)
	product := mustCreateProduct(t, env.conn, "TEE")
	variant := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)

	const callers = 8
	results := make([]EnsureResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.reconciler.EnsureForVariant(context.Background(), variant)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		if results[i].Created {
			created++
		}
		assert.Equal(t, results[0].InventoryID, results[i].InventoryID)
	}
	assert.Equal(t, 1, created)

	var count int64
	require.NoError(t, env.conn.Model(&models.InventoryRecord{}).Where("variant_id = ?", variant.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRepairOrphansCreatesMissingRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := mustCreateProduct(t, env.conn, "TEE")

	var variants []*models.Variant
	for i := 0; i < 5; i++ {
		variants = append(variants, mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive))
	}
	mustEnsure(t, env, variants[0])
	mustEnsure(t, env, variants[1])
	mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusArchived)

	dry, err := env.reconciler.RepairOrphans(ctx, RepairOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, 3, dry.Total)
	assert.ElementsMatch(t, []uuid.UUID{variants[2].ID, variants[3].ID, variants[4].ID}, dry.Missing)
	assert.Zero(t, dry.Created)

	count, err := env.repo.CountLiveInventory(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "dry run must not write")

	result, err := env.reconciler.RepairOrphans(ctx, RepairOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 3, result.Created)
	assert.Zero(t, result.Failed)
	assert.Empty(t, result.Failures)

	count, err = env.repo.CountLiveInventory(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)

	report, err := env.diagnostics.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Orphans)
}

func TestRepairOrphansReplacesSoftDeletedRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := mustCreateProduct(t, env.conn, "TEE")
	variant := mustCreateVariant(t, env.conn, product.ID, stringPtr("TEE-M"), enums.VariantStatusActive)

	first := mustEnsure(t, env, variant)
	require.True(t, first.Created)
	removed, err := env.repo.SoftDelete(ctx, []uuid.UUID{first.InventoryID}, time.Now().UTC())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, err = env.repo.FindByVariantID(ctx, variant.ID)
	assert.True(t, isNotFound(err), "soft-deleted record must not be returned")

	result, err := env.reconciler.RepairOrphans(ctx, RepairOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Failed)

	report, err := env.diagnostics.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Orphans)

	live, err := env.repo.FindByVariantID(ctx, variant.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.InventoryID, live.ID)
	assert.False(t, live.IsDeleted)

	again := mustEnsure(t, env, variant)
	assert.False(t, again.Created)
	assert.Equal(t, live.ID, again.InventoryID)

	dto, err := env.svc.GetInventoryByVariant(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, live.ID, dto.ID)

	var total int64
	require.NoError(t, env.conn.Model(&models.InventoryRecord{}).Where("variant_id = ?", variant.ID).Count(&total).Error)
	assert.EqualValues(t, 2, total)
}

func TestRepairOrphansScopedToProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tee := mustCreateProduct(t, env.conn, "TEE")
	hat := mustCreateProduct(t, env.conn, "HAT")
	teeVariant := mustCreateVariant(t, env.conn, tee.ID, nil, enums.VariantStatusActive)
	hatVariant := mustCreateVariant(t, env.conn, hat.ID, nil, enums.VariantStatusDraft)

	result, err := env.reconciler.RepairOrphans(ctx, RepairOptions{ProductID: &tee.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	_, err = env.repo.FindByVariantID(ctx, teeVariant.ID)
	require.NoError(t, err)
	_, err = env.repo.FindByVariantID(ctx, hatVariant.ID)
	assert.True(t, isNotFound(err))
}

func TestRepairOrphansUsesSyntheticSKU(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := mustCreateProduct(t, env.conn, "TEE")
	withProduct := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)
	// product row missing entirely
	withoutProduct := mustCreateVariant(t, env.conn, uuid.New(), nil, enums.VariantStatusActive)

	result, err := env.reconciler.RepairOrphans(ctx, RepairOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)

	record, err := env.repo.FindByVariantID(ctx, withProduct.ID)
	require.NoError(t, err)
	assert.Equal(t, "TEE-"+withProduct.ID.String()[:8], record.SKU)

	record, err = env.repo.FindByVariantID(ctx, withoutProduct.ID)
	require.NoError(t, err)
	assert.Equal(t, withoutProduct.ID.String(), record.SKU)
}

func TestRepairOrphansCancelledBeforeStartWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	product := mustCreateProduct(t, env.conn, "TEE")
	for i := 0; i < 3; i++ {
		mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)
	}

	missing, err := missingInventory(context.Background(), env.repo, nil)
	require.NoError(t, err)
	require.Len(t, missing, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = env.reconciler.RepairOrphans(ctx, RepairOptions{})
	// the initial batch reads fail fast on a cancelled context
	require.Error(t, err)

	count, err := env.repo.CountLiveInventory(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDetectZombies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := mustCreateProduct(t, env.conn, "TEE")
	live := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)
	deleted := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)
	mustEnsure(t, env, live)
	deletedInv := mustEnsure(t, env, deleted)

	now := time.Now().UTC()
	require.NoError(t, env.conn.Model(&models.Variant{}).Where("id = ?", deleted.ID).
		Updates(map[string]any{"is_deleted": true, "deleted_at": now}).Error)

	ghost := &models.InventoryRecord{
		VariantID:   uuid.New(),
		SKU:         "GHOST",
		TotalStock:  4,
		Status:      enums.InventoryStatusLowStock,
		Locations:   types.StockLocations{},
		LastUpdated: now,
	}
	require.NoError(t, env.conn.Create(ghost).Error)

	zombies, err := env.reconciler.DetectZombies(ctx)
	require.NoError(t, err)
	require.Len(t, zombies, 2)

	byID := map[uuid.UUID]ZombieRecord{}
	for _, z := range zombies {
		byID[z.InventoryID] = z
	}
	assert.Equal(t, ZombieVariantDeleted, byID[deletedInv.InventoryID].Reason)
	assert.Equal(t, ZombieVariantMissing, byID[ghost.ID].Reason)
	assert.Equal(t, 4, byID[ghost.ID].TotalStock)

	// detection never deletes
	count, err := env.repo.CountLiveInventory(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestDetectAndCleanupDuplicatesKeepsFirstCreated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.conn.Migrator().DropIndex(&models.InventoryRecord{}, models.InventoryVariantIndex))

	product := mustCreateProduct(t, env.conn, "TEE")
	variant := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		record := &models.InventoryRecord{
			VariantID:   variant.ID,
			SKU:         "DUP",
			TotalStock:  i * 10,
			Status:      enums.InventoryStatusOutOfStock,
			Locations:   types.StockLocations{},
			LastUpdated: base,
			CreatedAt:   base.Add(time.Duration(2-i) * time.Minute),
		}
		require.NoError(t, env.conn.Create(record).Error)
		ids = append(ids, record.ID)
	}

	groups, err := env.reconciler.DetectDuplicates(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, variant.ID, groups[0].VariantID)
	assert.Equal(t, 3, groups[0].Count)

	dry, err := env.reconciler.CleanupDuplicates(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[2]}, dry.Kept)
	assert.Len(t, dry.Removed, 2)
	groups, err = env.reconciler.DetectDuplicates(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1, "dry run must not write")

	result, err := env.reconciler.CleanupDuplicates(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[2]}, result.Kept)
	assert.ElementsMatch(t, []uuid.UUID{ids[0], ids[1]}, result.Removed)

	groups, err = env.reconciler.DetectDuplicates(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	kept, err := env.repo.FindByVariantID(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, ids[2], kept.ID)
	assert.False(t, kept.IsDeleted)
}
