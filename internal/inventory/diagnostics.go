package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
	"github.com/angelmondragon/catalog-backoffice/pkg/metrics"
)

// CountMismatch compares the live variant and inventory populations.
type CountMismatch struct {
	Variants   int64 `json:"variants"`
	Inventory  int64 `json:"inventory"`
	Difference int64 `json:"difference"`
}

// MissingInventory is a live variant without an inventory record.
type MissingInventory struct {
	VariantID uuid.UUID `json:"variant_id"`
	ProductID uuid.UUID `json:"product_id"`
	SKU       *string   `json:"sku,omitempty"`
}

// DiagnosticsReport is drift data, not an error: non-zero counts are expected while a
// sweep is pending.
type DiagnosticsReport struct {
	Orphans        int                `json:"orphans"`
	Zombies        int                `json:"zombies"`
	Duplicates     int                `json:"duplicates"`
	TotalVariants  int64              `json:"total_variants"`
	TotalInventory int64              `json:"total_inventory"`
	Missing        []MissingInventory `json:"missing"`
	Broken         []ZombieRecord     `json:"broken"`
	DuplicateSets  []DuplicateGroup   `json:"duplicate_sets"`
}

// DiagnosticReporter exposes read-only drift queries built on the same batch diffs
// the reconciler uses.
type DiagnosticReporter struct {
	repo    *Repository
	metrics *metrics.InventoryMetrics
}

func NewDiagnosticReporter(repo *Repository, m *metrics.InventoryMetrics) (*DiagnosticReporter, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &DiagnosticReporter{repo: repo, metrics: m}, nil
}

func (d *DiagnosticReporter) CountMismatch(ctx context.Context) (*CountMismatch, error) {
	variants, err := d.repo.CountLiveVariants(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count variants")
	}
	records, err := d.repo.CountLiveInventory(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count inventory")
	}
	return &CountMismatch{
		Variants:   variants,
		Inventory:  records,
		Difference: variants - records,
	}, nil
}

func (d *DiagnosticReporter) ListBrokenReferences(ctx context.Context) ([]ZombieRecord, error) {
	return brokenReferences(ctx, d.repo)
}

func (d *DiagnosticReporter) ListMissingInventory(ctx context.Context, productID *uuid.UUID) ([]MissingInventory, error) {
	variants, err := missingInventory(ctx, d.repo, productID)
	if err != nil {
		return nil, err
	}
	out := make([]MissingInventory, 0, len(variants))
	for _, variant := range variants {
		out = append(out, MissingInventory{
			VariantID: variant.ID,
			ProductID: variant.ProductID,
			SKU:       variant.SKU,
		})
	}
	return out, nil
}

// Run gathers every drift measure and publishes the counts as gauges.
func (d *DiagnosticReporter) Run(ctx context.Context) (*DiagnosticsReport, error) {
	counts, err := d.CountMismatch(ctx)
	if err != nil {
		return nil, err
	}
	missing, err := d.ListMissingInventory(ctx, nil)
	if err != nil {
		return nil, err
	}
	broken, err := d.ListBrokenReferences(ctx)
	if err != nil {
		return nil, err
	}
	duplicates, err := d.repo.DuplicateGroups(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: group inventory by variant")
	}

	report := &DiagnosticsReport{
		Orphans:        len(missing),
		Zombies:        len(broken),
		Duplicates:     len(duplicates),
		TotalVariants:  counts.Variants,
		TotalInventory: counts.Inventory,
		Missing:        missing,
		Broken:         broken,
		DuplicateSets:  duplicates,
	}
	d.metrics.SetDrift(report.Orphans, report.Zombies, report.Duplicates)
	return report, nil
}
