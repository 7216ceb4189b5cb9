package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-backoffice/pkg/db"
	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
	"github.com/angelmondragon/catalog-backoffice/pkg/metrics"
	"github.com/angelmondragon/catalog-backoffice/pkg/outbox"
	"github.com/angelmondragon/catalog-backoffice/pkg/outbox/payloads"
	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

const inventoryVariantColumn = "inventory_records.variant_id"

// Sources recorded on inventory_created events.
const (
	SourceVariantCreate = "variant_create"
	SourceEnsure        = "ensure"
	SourceRepair        = "repair"
)

// EnsureResult reports whether ensure inserted a record and which record owns the variant.
type EnsureResult struct {
	Created     bool      `json:"created"`
	InventoryID uuid.UUID `json:"inventory_id"`
}

// RepairOptions scopes a repair sweep.
type RepairOptions struct {
	ProductID *uuid.UUID
	DryRun    bool
}

// RepairFailure records one variant the sweep could not repair.
type RepairFailure struct {
	VariantID uuid.UUID `json:"variant_id"`
	Error     string    `json:"error"`
}

// RepairResult is the aggregate outcome of a sweep. Processed < Total with
// Interrupted set means the context ended between items.
type RepairResult struct {
	DryRun      bool            `json:"dry_run"`
	Total       int             `json:"total"`
	Processed   int             `json:"processed"`
	Created     int             `json:"created"`
	Failed      int             `json:"failed"`
	Skipped     int             `json:"skipped"`
	Missing     []uuid.UUID     `json:"missing,omitempty"`
	Failures    []RepairFailure `json:"failures"`
	Interrupted bool            `json:"interrupted"`
}

// Zombie reasons.
const (
	ZombieVariantMissing = "variant_missing"
	ZombieVariantDeleted = "variant_deleted"
)

// ZombieRecord is a live inventory record whose variant is gone or soft-deleted.
type ZombieRecord struct {
	InventoryID   uuid.UUID `json:"inventory_id"`
	VariantID     uuid.UUID `json:"variant_id"`
	SKU           string    `json:"sku"`
	TotalStock    int       `json:"total_stock"`
	ReservedStock int       `json:"reserved_stock"`
	Reason        string    `json:"reason"`
}

// DuplicateGroup is a variant owning more than one live record.
type DuplicateGroup struct {
	VariantID uuid.UUID `json:"variant_id"`
	Count     int       `json:"count"`
}

// CleanupResult summarizes a duplicate cleanup.
type CleanupResult struct {
	DryRun  bool        `json:"dry_run"`
	Groups  int         `json:"groups"`
	Kept    []uuid.UUID `json:"kept"`
	Removed []uuid.UUID `json:"removed"`
}

// ReconcilerConfig tunes new records.
type ReconcilerConfig struct {
	LowStockThreshold int
}

// Reconciler keeps exactly one inventory record per live variant.
type Reconciler struct {
	repo     *Repository
	dbClient *db.Client
	emitter  outbox.Emitter
	logg     *logger.Logger
	metrics  *metrics.InventoryMetrics
	cfg      ReconcilerConfig
}

// NewReconciler wires the reconciler. metrics may be nil.
func NewReconciler(repo *Repository, dbClient *db.Client, emitter outbox.Emitter, logg *logger.Logger, m *metrics.InventoryMetrics, cfg ReconcilerConfig) (*Reconciler, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.LowStockThreshold < 0 {
		return nil, fmt.Errorf("low stock threshold must be >= 0")
	}
	return &Reconciler{
		repo:     repo,
		dbClient: dbClient,
		emitter:  emitter,
		logg:     logg,
		metrics:  m,
		cfg:      cfg,
	}, nil
}

// EnsureForVariant creates the variant's inventory record if it has none. Existing
// records are never touched, so repeated or concurrent calls converge on one row.
func (r *Reconciler) EnsureForVariant(ctx context.Context, variant *models.Variant) (EnsureResult, error) {
	if variant == nil || variant.ID == uuid.Nil {
		return EnsureResult{}, pkgerrors.New(pkgerrors.CodeValidation, "variant is required")
	}
	sku, err := r.skuForVariant(ctx, variant)
	if err != nil {
		return EnsureResult{}, err
	}
	return r.ensure(ctx, variant, sku, SourceVariantCreate)
}

func (r *Reconciler) ensure(ctx context.Context, variant *models.Variant, sku, source string) (EnsureResult, error) {
	now := time.Now().UTC()
	record := &models.InventoryRecord{
		VariantID:         variant.ID,
		SKU:               sku,
		TotalStock:        0,
		ReservedStock:     0,
		AvailableStock:    0,
		Status:            enums.InventoryStatusOutOfStock,
		LowStockThreshold: r.cfg.LowStockThreshold,
		Locations:         types.StockLocations{},
		Version:           1,
		LastUpdated:       now,
	}

	var result EnsureResult
	err := r.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := r.repo.WithTx(tx).InsertIfAbsent(ctx, record)
		if err != nil || !created {
			return err
		}
		result = EnsureResult{Created: true, InventoryID: record.ID}
		return r.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryCreated,
			AggregateType: enums.AggregateInventoryRecord,
			AggregateID:   record.ID,
			Actor:         &outbox.ActorRef{Actor: "system", Source: source},
			Data: payloads.InventoryCreatedEvent{
				InventoryID: record.ID,
				VariantID:   variant.ID,
				SKU:         sku,
				Source:      source,
			},
		})
	})
	if err != nil {
		// the unique index is the last word on races: someone else created it
		if !db.IsUniqueViolationOn(err, models.InventoryVariantIndex, inventoryVariantColumn) {
			return EnsureResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: ensure inventory")
		}
		result = EnsureResult{}
	}
	if result.Created {
		return result, nil
	}

	existing, err := r.repo.FindByVariantID(ctx, variant.ID)
	if err != nil {
		return EnsureResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load existing inventory")
	}
	return EnsureResult{Created: false, InventoryID: existing.ID}, nil
}

// RepairOrphans creates inventory for every live variant missing one. Each variant is
// its own unit: failures are collected and the sweep continues. Cancellation stops
// the sweep between items and is reported through Interrupted.
func (r *Reconciler) RepairOrphans(ctx context.Context, opts RepairOptions) (*RepairResult, error) {
	missing, err := missingInventory(ctx, r.repo, opts.ProductID)
	if err != nil {
		return nil, err
	}

	result := &RepairResult{
		DryRun:   opts.DryRun,
		Total:    len(missing),
		Failures: []RepairFailure{},
	}
	if opts.DryRun {
		result.Missing = make([]uuid.UUID, 0, len(missing))
		for _, variant := range missing {
			result.Missing = append(result.Missing, variant.ID)
		}
		r.logSweep(ctx, result)
		return result, nil
	}

	skus, err := r.syntheticSKUs(ctx, missing)
	if err != nil {
		return nil, err
	}

	for i := range missing {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}
		variant := &missing[i]
		ensured, err := r.ensure(ctx, variant, skus[variant.ID], SourceRepair)
		result.Processed++
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, RepairFailure{VariantID: variant.ID, Error: err.Error()})
			logCtx := r.logg.WithFields(ctx, map[string]any{
				"variant_id": variant.ID.String(),
				"error":      err.Error(),
			})
			r.logg.Warn(logCtx, "inventory repair failed for variant")
			continue
		}
		if ensured.Created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	r.metrics.AddReconcile(result.Created, result.Failed, result.Skipped)
	r.logSweep(ctx, result)
	return result, nil
}

// DetectZombies lists live records whose variant is missing or soft-deleted. They are
// reported only; removing stock data is an operator decision.
func (r *Reconciler) DetectZombies(ctx context.Context) ([]ZombieRecord, error) {
	return brokenReferences(ctx, r.repo)
}

// DetectDuplicates lists variants owning more than one live record.
func (r *Reconciler) DetectDuplicates(ctx context.Context) ([]DuplicateGroup, error) {
	groups, err := r.repo.DuplicateGroups(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: group inventory by variant")
	}
	return groups, nil
}

// CleanupDuplicates keeps the first-created record of every duplicate group and
// soft-deletes the rest. "First" is a retention policy, not a judgement on which row
// holds the more accurate stock. Each group commits on its own.
func (r *Reconciler) CleanupDuplicates(ctx context.Context, dryRun bool) (*CleanupResult, error) {
	groups, err := r.DetectDuplicates(ctx)
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{
		DryRun:  dryRun,
		Groups:  len(groups),
		Kept:    []uuid.UUID{},
		Removed: []uuid.UUID{},
	}
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		err := r.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := r.repo.WithTx(tx)
			rows, err := txRepo.ListByVariant(ctx, group.VariantID)
			if err != nil {
				return err
			}
			if len(rows) < 2 {
				return nil
			}
			extra := make([]uuid.UUID, 0, len(rows)-1)
			for _, row := range rows[1:] {
				extra = append(extra, row.ID)
			}
			result.Kept = append(result.Kept, rows[0].ID)
			result.Removed = append(result.Removed, extra...)
			if dryRun {
				return nil
			}
			_, err = txRepo.SoftDelete(ctx, extra, time.Now().UTC())
			return err
		})
		if err != nil {
			return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cleanup duplicate inventory")
		}
	}

	logCtx := r.logg.WithFields(ctx, map[string]any{
		"groups":  result.Groups,
		"removed": len(result.Removed),
		"dry_run": dryRun,
	})
	r.logg.Info(logCtx, "inventory duplicate cleanup finished")
	return result, nil
}

func (r *Reconciler) logSweep(ctx context.Context, result *RepairResult) {
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"total":       result.Total,
		"processed":   result.Processed,
		"created":     result.Created,
		"failed":      result.Failed,
		"skipped":     result.Skipped,
		"dry_run":     result.DryRun,
		"interrupted": result.Interrupted,
	})
	r.logg.Info(logCtx, "inventory repair sweep finished")
}

func (r *Reconciler) skuForVariant(ctx context.Context, variant *models.Variant) (string, error) {
	skus, err := r.syntheticSKUs(ctx, []models.Variant{*variant})
	if err != nil {
		return "", err
	}
	return skus[variant.ID], nil
}

// syntheticSKUs picks the inventory sku for each variant in one product lookup: the
// variant's own sku, else the product sku suffixed with the variant id prefix, else
// the variant id when the product reference is missing.
func (r *Reconciler) syntheticSKUs(ctx context.Context, variants []models.Variant) (map[uuid.UUID]string, error) {
	productIDs := make([]uuid.UUID, 0, len(variants))
	seen := make(map[uuid.UUID]struct{}, len(variants))
	for _, variant := range variants {
		if variant.SKU != nil && strings.TrimSpace(*variant.SKU) != "" {
			continue
		}
		if variant.ProductID == uuid.Nil {
			continue
		}
		if _, ok := seen[variant.ProductID]; ok {
			continue
		}
		seen[variant.ProductID] = struct{}{}
		productIDs = append(productIDs, variant.ProductID)
	}

	productSKUs, err := r.repo.ProductSKUs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product skus")
	}

	out := make(map[uuid.UUID]string, len(variants))
	for _, variant := range variants {
		out[variant.ID] = syntheticSKU(variant, productSKUs)
	}
	return out, nil
}

func syntheticSKU(variant models.Variant, productSKUs map[uuid.UUID]string) string {
	if variant.SKU != nil {
		if sku := strings.TrimSpace(*variant.SKU); sku != "" {
			return sku
		}
	}
	if productSKU, ok := productSKUs[variant.ProductID]; ok && strings.TrimSpace(productSKU) != "" {
		return strings.TrimSpace(productSKU) + "-" + variant.ID.String()[:8]
	}
	return variant.ID.String()
}

// missingInventory diffs live variants against live inventory with two batch reads.
func missingInventory(ctx context.Context, repo *Repository, productID *uuid.UUID) ([]models.Variant, error) {
	variants, err := repo.LiveVariants(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load live variants")
	}

	var filter []uuid.UUID
	if productID != nil {
		filter = make([]uuid.UUID, 0, len(variants))
		for _, variant := range variants {
			filter = append(filter, variant.ID)
		}
	}
	covered, err := repo.InventoryVariantIDs(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load inventory variant ids")
	}

	missing := make([]models.Variant, 0)
	for _, variant := range variants {
		if _, ok := covered[variant.ID]; !ok {
			missing = append(missing, variant)
		}
	}
	return missing, nil
}

// brokenReferences diffs live inventory against the variants it points at.
func brokenReferences(ctx context.Context, repo *Repository) ([]ZombieRecord, error) {
	records, err := repo.LiveInventory(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load live inventory")
	}

	ids := make([]uuid.UUID, 0, len(records))
	seen := make(map[uuid.UUID]struct{}, len(records))
	for _, record := range records {
		if _, ok := seen[record.VariantID]; ok {
			continue
		}
		seen[record.VariantID] = struct{}{}
		ids = append(ids, record.VariantID)
	}
	deleted, err := repo.VariantDeletedFlags(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load variant flags")
	}

	zombies := make([]ZombieRecord, 0)
	for _, record := range records {
		isDeleted, ok := deleted[record.VariantID]
		reason := ""
		switch {
		case !ok:
			reason = ZombieVariantMissing
		case isDeleted:
			reason = ZombieVariantDeleted
		default:
			continue
		}
		zombies = append(zombies, ZombieRecord{
			InventoryID:   record.ID,
			VariantID:     record.VariantID,
			SKU:           record.SKU,
			TotalStock:    record.TotalStock,
			ReservedStock: record.ReservedStock,
			Reason:        reason,
		})
	}
	return zombies, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
