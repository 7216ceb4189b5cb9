package inventory

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-backoffice/pkg/db"
	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
	"github.com/angelmondragon/catalog-backoffice/pkg/metrics"
	"github.com/angelmondragon/catalog-backoffice/pkg/outbox"
	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

type testEnv struct {
	conn        *gorm.DB
	repo        *Repository
	reconciler  *Reconciler
	mutator     *Mutator
	diagnostics *DiagnosticReporter
	svc         Service
	registry    *prometheus.Registry
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return conn
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := newTestDB(t)
	client := db.NewFromConn(conn)
	logg := logger.New(logger.Options{ServiceName: "inventory-test", Output: io.Discard})
	registry := prometheus.NewRegistry()
	m := metrics.NewInventoryMetrics(registry)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	repo := NewRepository(conn, 2)
	reconciler, err := NewReconciler(repo, client, emitter, logg, m, ReconcilerConfig{LowStockThreshold: 5})
	require.NoError(t, err)
	mutator, err := NewMutator(repo, client, emitter, m, MutatorConfig{MaxAttempts: 3, RetryBackoff: time.Millisecond})
	require.NoError(t, err)
	diagnostics, err := NewDiagnosticReporter(repo, m)
	require.NoError(t, err)
	svc, err := NewService(repo, reconciler, mutator, diagnostics, logg, 5)
	require.NoError(t, err)

	return &testEnv{
		conn:        conn,
		repo:        repo,
		reconciler:  reconciler,
		mutator:     mutator,
		diagnostics: diagnostics,
		svc:         svc,
		registry:    registry,
	}
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, sku string) *models.Product {
	t.Helper()
	product := &models.Product{SKU: sku, Name: "Tee " + sku}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func mustCreateVariant(t *testing.T, conn *gorm.DB, productID uuid.UUID, sku *string, status enums.VariantStatus) *models.Variant {
	t.Helper()
	key := uuid.NewString()
	variant := &models.Variant{
		ProductID:      productID,
		SKU:            sku,
		CombinationKey: &key,
		Attributes:     types.AttributePairs{},
		AttributeIndex: types.AttributeIndex{},
		Status:         status,
		Price:          decimal.NewFromInt(20),
		FinalPrice:     decimal.NewFromInt(20),
		IndexedPrice:   decimal.NewFromInt(20),
		PriceResolved:  true,
	}
	require.NoError(t, conn.Create(variant).Error)
	return variant
}

func mustEnsure(t *testing.T, env *testEnv, variant *models.Variant) EnsureResult {
	t.Helper()
	result, err := env.reconciler.EnsureForVariant(context.Background(), variant)
	require.NoError(t, err)
	return result
}

func stringPtr(value string) *string {
	return &value
}

func intPtr(value int) *int {
	return &value
}

func countOutbox(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}
