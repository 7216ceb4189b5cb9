package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/catalog-backoffice/internal/inventory"
	"github.com/angelmondragon/catalog-backoffice/internal/variants"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
)

const defaultRepriceLimit = 500

// InventoryReconcileJobParams configures the inventory sweep.
type InventoryReconcileJobParams struct {
	Logger       *logger.Logger
	Repairer     inventoryRepairer
	Diagnostics  driftReporter
	Repricer     variantRepricer
	RepriceLimit int
}

type inventoryRepairer interface {
	RepairOrphans(ctx context.Context, opts inventory.RepairOptions) (*inventory.RepairResult, error)
}

type driftReporter interface {
	Run(ctx context.Context) (*inventory.DiagnosticsReport, error)
}

type variantRepricer interface {
	RepriceUnresolved(ctx context.Context, limit int) (*variants.RepriceResult, error)
}

// NewInventoryReconcileJob builds the job that creates missing inventory, refreshes the
// drift gauges and re-prices variants saved without their modifiers. Repricer is optional.
func NewInventoryReconcileJob(params InventoryReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repairer == nil {
		return nil, fmt.Errorf("inventory repairer required")
	}
	if params.Diagnostics == nil {
		return nil, fmt.Errorf("diagnostic reporter required")
	}
	limit := params.RepriceLimit
	if limit <= 0 {
		limit = defaultRepriceLimit
	}
	return &inventoryReconcileJob{
		logg:         params.Logger,
		repairer:     params.Repairer,
		diagnostics:  params.Diagnostics,
		repricer:     params.Repricer,
		repriceLimit: limit,
	}, nil
}

type inventoryReconcileJob struct {
	logg         *logger.Logger
	repairer     inventoryRepairer
	diagnostics  driftReporter
	repricer     variantRepricer
	repriceLimit int
}

func (j *inventoryReconcileJob) Name() string { return "inventory-reconcile" }

// Run executes every step even when an earlier one fails; the errors are combined.
func (j *inventoryReconcileJob) Run(ctx context.Context) error {
	var errs error
	fields := map[string]any{}

	repair, err := j.repairer.RepairOrphans(ctx, inventory.RepairOptions{})
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("repair orphans: %w", err))
	} else {
		fields["created"] = repair.Created
		fields["failed"] = repair.Failed
		fields["skipped"] = repair.Skipped
		fields["interrupted"] = repair.Interrupted
		for _, failure := range repair.Failures {
			errs = multierr.Append(errs, fmt.Errorf("variant %s: %s", failure.VariantID, failure.Error))
		}
	}

	report, err := j.diagnostics.Run(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("diagnostics: %w", err))
	} else {
		fields["orphans"] = report.Orphans
		fields["zombies"] = report.Zombies
		fields["duplicates"] = report.Duplicates
	}

	if j.repricer != nil {
		reprice, err := j.repricer.RepriceUnresolved(ctx, j.repriceLimit)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reprice: %w", err))
		} else {
			fields["repriced"] = reprice.Resolved
			fields["reprice_pending"] = reprice.Unresolved
			fields["reprice_failed"] = reprice.Failed
		}
	}

	logCtx := j.logg.WithFields(ctx, fields)
	if errs != nil {
		j.logg.Warn(j.logg.WithField(logCtx, "errors", len(multierr.Errors(errs))), "inventory reconcile finished with errors")
		return errs
	}
	j.logg.Info(logCtx, "inventory reconcile complete")
	return nil
}
