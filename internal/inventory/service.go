package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
	"github.com/angelmondragon/catalog-backoffice/pkg/pagination"
)

// Service exposes the inventory operations consumed by the HTTP layer, the cron
// sweep and the reconcile CLI.
type Service interface {
	EnsureInventory(ctx context.Context, variantID uuid.UUID) (*EnsureResult, error)
	RepairInventory(ctx context.Context, opts RepairOptions) (*RepairResult, error)
	AdjustStock(ctx context.Context, inventoryID uuid.UUID, input AdjustStockInput) (*InventoryDTO, error)
	SetDiscontinued(ctx context.Context, inventoryID uuid.UUID, discontinued bool, actor string) (*InventoryDTO, error)
	GetInventory(ctx context.Context, inventoryID uuid.UUID) (*InventoryDTO, error)
	GetInventoryByVariant(ctx context.Context, variantID uuid.UUID) (*InventoryDTO, error)
	ListLowStock(ctx context.Context, input LowStockInput) (*LowStockPage, error)
	ListMovements(ctx context.Context, inventoryID uuid.UUID, limit int) ([]MovementDTO, error)
	RunDiagnostics(ctx context.Context) (*DiagnosticsReport, error)
	CleanupDuplicates(ctx context.Context, dryRun bool) (*CleanupResult, error)
}

// AdjustStockInput carries an adjustStock request. Nil deltas mean no change.
type AdjustStockInput struct {
	TotalDelta    *int
	ReservedDelta *int
	Reason        string
	Actor         string
	Note          *string
}

// LowStockInput pages low-stock records. A nil MaxAvailable uses the default threshold.
type LowStockInput struct {
	MaxAvailable *int
	Cursor       string
	Limit        int
}

type service struct {
	repo        *Repository
	reconciler  *Reconciler
	mutator     *Mutator
	diagnostics *DiagnosticReporter
	logg        *logger.Logger
	threshold   int
}

// NewService constructs the inventory service.
func NewService(repo *Repository, reconciler *Reconciler, mutator *Mutator, diagnostics *DiagnosticReporter, logg *logger.Logger, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if mutator == nil {
		return nil, fmt.Errorf("mutator required")
	}
	if diagnostics == nil {
		return nil, fmt.Errorf("diagnostic reporter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		reconciler:  reconciler,
		mutator:     mutator,
		diagnostics: diagnostics,
		logg:        logg,
		threshold:   lowStockThreshold,
	}, nil
}

// EnsureInventory ensures a record for a live, non-archived variant.
func (s *service) EnsureInventory(ctx context.Context, variantID uuid.UUID) (*EnsureResult, error) {
	variant, err := s.repo.FindVariant(ctx, variantID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load variant")
	}
	if variant.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if variant.Status == enums.VariantStatusArchived {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "archived variants do not carry inventory")
	}

	sku, err := s.reconciler.skuForVariant(ctx, variant)
	if err != nil {
		return nil, err
	}
	result, err := s.reconciler.ensure(ctx, variant, sku, SourceEnsure)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) RepairInventory(ctx context.Context, opts RepairOptions) (*RepairResult, error) {
	return s.reconciler.RepairOrphans(ctx, opts)
}

// AdjustStock applies both deltas as one atomic change.
func (s *service) AdjustStock(ctx context.Context, inventoryID uuid.UUID, input AdjustStockInput) (*InventoryDTO, error) {
	reason, err := enums.ParseStockMovementReason(strings.TrimSpace(input.Reason))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason")
	}
	change := StockChange{
		Reason: reason,
		Actor:  input.Actor,
		Note:   input.Note,
	}
	if input.TotalDelta != nil {
		change.TotalDelta = *input.TotalDelta
	}
	if input.ReservedDelta != nil {
		change.ReservedDelta = *input.ReservedDelta
	}

	record, err := s.mutator.Apply(ctx, inventoryID, change)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(s.logg.WithActor(ctx, change.Actor), map[string]any{
		"inventory_id":   inventoryID.String(),
		"total_delta":    change.TotalDelta,
		"reserved_delta": change.ReservedDelta,
		"reason":         reason,
		"available":      record.AvailableStock,
	})
	s.logg.Info(logCtx, "stock adjusted")

	dto := mapInventoryDTO(record)
	return &dto, nil
}

func (s *service) SetDiscontinued(ctx context.Context, inventoryID uuid.UUID, discontinued bool, actor string) (*InventoryDTO, error) {
	record, err := s.mutator.SetDiscontinued(ctx, inventoryID, discontinued, actor)
	if err != nil {
		return nil, err
	}
	dto := mapInventoryDTO(record)
	return &dto, nil
}

func (s *service) GetInventory(ctx context.Context, inventoryID uuid.UUID) (*InventoryDTO, error) {
	record, err := s.repo.FindByID(ctx, inventoryID)
	if err != nil {
		return nil, notFoundOrDependency(err, "inventory record not found", "db: load inventory")
	}
	if record.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	}
	dto := mapInventoryDTO(record)
	return &dto, nil
}

func (s *service) GetInventoryByVariant(ctx context.Context, variantID uuid.UUID) (*InventoryDTO, error) {
	record, err := s.repo.FindByVariantID(ctx, variantID)
	if err != nil {
		return nil, notFoundOrDependency(err, "inventory record not found", "db: load inventory")
	}
	if record.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	}
	dto := mapInventoryDTO(record)
	return &dto, nil
}

// ListLowStock reads fresh rows on every call; stock is never cached.
func (s *service) ListLowStock(ctx context.Context, input LowStockInput) (*LowStockPage, error) {
	maxAvailable := s.threshold
	if input.MaxAvailable != nil {
		if *input.MaxAvailable < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_available must be >= 0")
		}
		maxAvailable = *input.MaxAvailable
	}
	cursor, err := pagination.ParseStockCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	rows, err := s.repo.ListLowStock(ctx, maxAvailable, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock")
	}

	page := &LowStockPage{Items: make([]InventoryDTO, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		page.NextCursor = pagination.EncodeStockCursor(pagination.StockCursor{
			AvailableStock: last.AvailableStock,
			ID:             last.ID,
		})
		rows = rows[:limit]
	}
	for i := range rows {
		page.Items = append(page.Items, mapInventoryDTO(&rows[i]))
	}
	return page, nil
}

func (s *service) ListMovements(ctx context.Context, inventoryID uuid.UUID, limit int) ([]MovementDTO, error) {
	rows, err := s.repo.ListMovements(ctx, inventoryID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list stock movements")
	}
	out := make([]MovementDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMovementDTO(row))
	}
	return out, nil
}

func (s *service) RunDiagnostics(ctx context.Context) (*DiagnosticsReport, error) {
	report, err := s.diagnostics.Run(ctx)
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"orphans":         report.Orphans,
		"zombies":         report.Zombies,
		"duplicates":      report.Duplicates,
		"total_variants":  report.TotalVariants,
		"total_inventory": report.TotalInventory,
	})
	s.logg.Info(logCtx, "inventory diagnostics")
	return report, nil
}

func (s *service) CleanupDuplicates(ctx context.Context, dryRun bool) (*CleanupResult, error) {
	return s.reconciler.CleanupDuplicates(ctx, dryRun)
}

func notFoundOrDependency(err error, notFound, dependency string) error {
	if isNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, dependency)
}
