// Package app assembles the catalog services shared by the api, cron and reconcile binaries.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/catalog-backoffice/internal/inventory"
	"github.com/angelmondragon/catalog-backoffice/internal/variants"
	"github.com/angelmondragon/catalog-backoffice/pkg/config"
	"github.com/angelmondragon/catalog-backoffice/pkg/db"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
	"github.com/angelmondragon/catalog-backoffice/pkg/metrics"
	"github.com/angelmondragon/catalog-backoffice/pkg/outbox"
)

// Services holds the wired domain services plus the pieces cron jobs use directly.
type Services struct {
	Variants    variants.Service
	Inventory   inventory.Service
	Reconciler  *inventory.Reconciler
	Diagnostics *inventory.DiagnosticReporter
	Outbox      *outbox.Service
	Metrics     *metrics.InventoryMetrics
}

// NewServices builds the variant and inventory stacks over one db client. reg may be nil,
// in which case metrics are disabled.
func NewServices(cfg *config.Config, dbClient *db.Client, logg *logger.Logger, reg prometheus.Registerer) (*Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}

	var invMetrics *metrics.InventoryMetrics
	if reg != nil {
		invMetrics = metrics.NewInventoryMetrics(reg)
	}

	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	invRepo := inventory.NewRepository(conn, cfg.Inventory.ReconcileBatchSize)
	reconciler, err := inventory.NewReconciler(invRepo, dbClient, emitter, logg, invMetrics, inventory.ReconcilerConfig{
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("inventory reconciler: %w", err)
	}
	mutator, err := inventory.NewMutator(invRepo, dbClient, emitter, invMetrics, inventory.MutatorConfig{
		MaxAttempts:  cfg.Inventory.AdjustMaxAttempts,
		RetryBackoff: cfg.Inventory.AdjustRetryBackoff,
	})
	if err != nil {
		return nil, fmt.Errorf("stock mutator: %w", err)
	}
	diagnostics, err := inventory.NewDiagnosticReporter(invRepo, invMetrics)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	inventoryService, err := inventory.NewService(invRepo, reconciler, mutator, diagnostics, logg, cfg.Inventory.LowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("inventory service: %w", err)
	}

	variantService, err := variants.NewService(variants.NewRepository(conn), dbClient, emitter, reconciler, logg, variants.Config{
		MaxMatrixCombinations: cfg.Inventory.MaxMatrixCombinations,
		EnsureOnCreate:        cfg.FeatureFlags.EnsureOnCreate,
	})
	if err != nil {
		return nil, fmt.Errorf("variant service: %w", err)
	}

	return &Services{
		Variants:    variantService,
		Inventory:   inventoryService,
		Reconciler:  reconciler,
		Diagnostics: diagnostics,
		Outbox:      emitter,
		Metrics:     invMetrics,
	}, nil
}
