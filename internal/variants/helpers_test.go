package variants

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-backoffice/internal/inventory"
	"github.com/angelmondragon/catalog-backoffice/pkg/db"
	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
	"github.com/angelmondragon/catalog-backoffice/pkg/metrics"
	"github.com/angelmondragon/catalog-backoffice/pkg/outbox"
)

const testThreshold = 5

type testEnv struct {
	conn      *gorm.DB
	svc       Service
	inventory inventory.Service
}

func newTestEnv(t *testing.T, ensureOnCreate bool) *testEnv {
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

	client := db.NewFromConn(conn)
	logg := logger.New(logger.Options{ServiceName: "variants-test", Output: io.Discard})
	m := metrics.NewInventoryMetrics(prometheus.NewRegistry())
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	invRepo := inventory.NewRepository(conn, 0)
	reconciler, err := inventory.NewReconciler(invRepo, client, emitter, logg, m, inventory.ReconcilerConfig{LowStockThreshold: testThreshold})
	require.NoError(t, err)
	mutator, err := inventory.NewMutator(invRepo, client, emitter, m, inventory.MutatorConfig{MaxAttempts: 3, RetryBackoff: time.Millisecond})
	require.NoError(t, err)
	diagnostics, err := inventory.NewDiagnosticReporter(invRepo, m)
	require.NoError(t, err)
	invSvc, err := inventory.NewService(invRepo, reconciler, mutator, diagnostics, logg, testThreshold)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(conn), client, emitter, reconciler, logg, Config{
		MaxMatrixCombinations: 100,
		EnsureOnCreate:        ensureOnCreate,
	})
	require.NoError(t, err)

	return &testEnv{conn: conn, svc: svc, inventory: invSvc}
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, sku string) *models.Product {
	t.Helper()
	product := &models.Product{SKU: sku, Name: sku}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func mustCreateAttributeType(t *testing.T, conn *gorm.DB, code string) *models.AttributeType {
	t.Helper()
	attrType := &models.AttributeType{Code: code, Name: code}
	require.NoError(t, conn.Create(attrType).Error)
	return attrType
}

func mustCreateValues(t *testing.T, conn *gorm.DB, typeID uuid.UUID, codes ...string) []models.AttributeValue {
	t.Helper()
	values := make([]models.AttributeValue, 0, len(codes))
	for _, code := range codes {
		value := models.AttributeValue{AttributeTypeID: typeID, Code: code, Label: code, ModifierValue: decimal.Zero}
		require.NoError(t, conn.Create(&value).Error)
		values = append(values, value)
	}
	return values
}

func mustCreateModifierValue(t *testing.T, conn *gorm.DB, typeID uuid.UUID, code string, kind enums.PriceModifierType, amount int64) models.AttributeValue {
	t.Helper()
	value := models.AttributeValue{
		AttributeTypeID: typeID,
		Code:            code,
		Label:           code,
		ModifierType:    &kind,
		ModifierValue:   decimal.NewFromInt(amount),
	}
	require.NoError(t, conn.Create(&value).Error)
	return value
}

func valueIDs(values []models.AttributeValue) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		ids = append(ids, value.ID)
	}
	return ids
}

func countRows(t *testing.T, conn *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var count int64
	query := conn.Model(model)
	if where != "" {
		query = query.Where(where, args...)
	}
	require.NoError(t, query.Count(&count).Error)
	return count
}

func stringPtr(value string) *string {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func intPtr(value int) *int {
	return &value
}
