package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/catalog-backoffice/internal/inventory"
	"github.com/angelmondragon/catalog-backoffice/internal/variants"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
)

type fakeRepairer struct {
	result *inventory.RepairResult
	err    error
	opts   []inventory.RepairOptions
}

func (f *fakeRepairer) RepairOrphans(_ context.Context, opts inventory.RepairOptions) (*inventory.RepairResult, error) {
	f.opts = append(f.opts, opts)
	return f.result, f.err
}

type fakeDriftReporter struct {
	err   error
	calls int
}

func (f *fakeDriftReporter) Run(context.Context) (*inventory.DiagnosticsReport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &inventory.DiagnosticsReport{Zombies: 1}, nil
}

type fakeRepricer struct {
	limit int
	calls int
}

func (f *fakeRepricer) RepriceUnresolved(_ context.Context, limit int) (*variants.RepriceResult, error) {
	f.calls++
	f.limit = limit
	return &variants.RepriceResult{Scanned: 2, Resolved: 2}, nil
}

func newReconcileJob(t *testing.T, repairer *fakeRepairer, reporter *fakeDriftReporter, repricer *fakeRepricer) Job {
	t.Helper()
	params := InventoryReconcileJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Repairer:    repairer,
		Diagnostics: reporter,
	}
	if repricer != nil {
		params.Repricer = repricer
	}
	job, err := NewInventoryReconcileJob(params)
	if err != nil {
		t.Fatalf("NewInventoryReconcileJob: %v", err)
	}
	return job
}

func TestInventoryReconcileJobRunsEveryStep(t *testing.T) {
	repairer := &fakeRepairer{result: &inventory.RepairResult{Total: 3, Processed: 3, Created: 3}}
	reporter := &fakeDriftReporter{}
	repricer := &fakeRepricer{}
	job := newReconcileJob(t, repairer, reporter, repricer)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repairer.opts) != 1 || repairer.opts[0].DryRun || repairer.opts[0].ProductID != nil {
		t.Fatalf("expected one full non-dry-run sweep, got %+v", repairer.opts)
	}
	if reporter.calls != 1 {
		t.Fatalf("expected diagnostics once, got %d", reporter.calls)
	}
	if repricer.calls != 1 || repricer.limit != defaultRepriceLimit {
		t.Fatalf("expected reprice with default limit, got calls=%d limit=%d", repricer.calls, repricer.limit)
	}
}

func TestInventoryReconcileJobCombinesFailures(t *testing.T) {
	repairer := &fakeRepairer{result: &inventory.RepairResult{
		Total:     2,
		Processed: 2,
		Created:   1,
		Failed:    1,
		Failures:  []inventory.RepairFailure{{VariantID: uuid.New(), Error: "db down"}},
	}}
	reporter := &fakeDriftReporter{err: errors.New("count failed")}
	job := newReconcileJob(t, repairer, reporter, nil)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected combined error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 combined errors, got %d: %v", got, err)
	}
}

func TestInventoryReconcileJobContinuesAfterRepairError(t *testing.T) {
	repairer := &fakeRepairer{err: errors.New("scan failed")}
	reporter := &fakeDriftReporter{}
	job := newReconcileJob(t, repairer, reporter, nil)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if reporter.calls != 1 {
		t.Fatalf("diagnostics should still run, got %d calls", reporter.calls)
	}
}
