package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

func TestServiceEnsureInventoryRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := mustCreateProduct(t, env.conn, "TEE")
	active := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)
	archived := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusArchived)

	result, err := env.svc.EnsureInventory(ctx, active.ID)
	require.NoError(t, err)
	assert.True(t, result.Created)

	again, err := env.svc.EnsureInventory(ctx, active.ID)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, result.InventoryID, again.InventoryID)

	_, err = env.svc.EnsureInventory(ctx, archived.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = env.svc.EnsureInventory(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceAdjustStockBothDeltas(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := mustCreateProduct(t, env.conn, "TEE")
	variant := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)
	ensured := mustEnsure(t, env, variant)

	_, err := env.svc.AdjustStock(ctx, ensured.InventoryID, AdjustStockInput{
		TotalDelta:    intPtr(10),
		ReservedDelta: intPtr(4),
		Reason:        "receipt",
		Actor:         "ops",
	})
	require.NoError(t, err)

	// sale: one unit leaves the shelf and its reservation together
	out, err := env.svc.AdjustStock(ctx, ensured.InventoryID, AdjustStockInput{
		TotalDelta:    intPtr(-1),
		ReservedDelta: intPtr(-1),
		Reason:        "sale",
		Actor:         "checkout",
	})
	require.NoError(t, err)
	assert.Equal(t, 9, out.TotalStock)
	assert.Equal(t, 3, out.ReservedStock)
	assert.Equal(t, 6, out.AvailableStock)

	_, err = env.svc.AdjustStock(ctx, ensured.InventoryID, AdjustStockInput{TotalDelta: intPtr(1), Reason: "theft", Actor: "ops"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	movements, err := env.svc.ListMovements(ctx, ensured.InventoryID, 0)
	require.NoError(t, err)
	assert.Len(t, movements, 4)
}

func TestServiceGetInventoryHidesDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := mustCreateProduct(t, env.conn, "TEE")
	variant := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)
	ensured := mustEnsure(t, env, variant)

	got, err := env.svc.GetInventoryByVariant(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, ensured.InventoryID, got.ID)

	require.NoError(t, env.conn.Model(&models.InventoryRecord{}).Where("id = ?", ensured.InventoryID).
		Update("is_deleted", true).Error)
	_, err = env.svc.GetInventory(ctx, ensured.InventoryID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceListLowStockPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := mustCreateProduct(t, env.conn, "TEE")

	stock := []int{0, 2, 2, 4, 9}
	for _, qty := range stock {
		variant := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)
		ensured := mustEnsure(t, env, variant)
		if qty > 0 {
			_, err := env.mutator.ApplyDelta(ctx, ensured.InventoryID, enums.StockFieldTotal, qty, enums.StockReasonReceipt, "ops")
			require.NoError(t, err)
		}
	}

	first, err := env.svc.ListLowStock(ctx, LowStockInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, 0, first.Items[0].AvailableStock)
	assert.Equal(t, 2, first.Items[1].AvailableStock)

	second, err := env.svc.ListLowStock(ctx, LowStockInput{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, 2, second.Items[0].AvailableStock)
	assert.Equal(t, 4, second.Items[1].AvailableStock)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, item := range append(first.Items, second.Items...) {
		assert.False(t, seen[item.ID], "item repeated across pages")
		seen[item.ID] = true
	}

	_, err = env.svc.ListLowStock(ctx, LowStockInput{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRunDiagnosticsReportsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := mustCreateProduct(t, env.conn, "TEE")
	covered := mustCreateVariant(t, env.conn, product.ID, nil, enums.VariantStatusActive)
	orphan := mustCreateVariant(t, env.conn, product.ID, stringPtr("TEE-ORPHAN"), enums.VariantStatusActive)
	mustEnsure(t, env, covered)

	require.NoError(t, env.conn.Create(&models.InventoryRecord{
		VariantID: uuid.New(),
		SKU:       "GHOST",
		Status:    enums.InventoryStatusOutOfStock,
		Locations: types.StockLocations{},
	}).Error)

	report, err := env.svc.RunDiagnostics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Orphans)
	assert.Equal(t, 1, report.Zombies)
	assert.Zero(t, report.Duplicates)
	assert.EqualValues(t, 2, report.TotalVariants)
	assert.EqualValues(t, 2, report.TotalInventory)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, orphan.ID, report.Missing[0].VariantID)

	mismatch, err := env.diagnostics.CountMismatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, mismatch.Difference)

	families, err := env.registry.Gather()
	require.NoError(t, err)
	var orphanGauge float64
	for _, family := range families {
		if family.GetName() != "catalog_inventory_drift_records" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric.GetLabel(), map[string]string{"kind": "orphans"}) {
				orphanGauge = metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, float64(1), orphanGauge)
}
