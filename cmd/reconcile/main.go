package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/catalog-backoffice/internal/app"
	"github.com/angelmondragon/catalog-backoffice/internal/inventory"
	"github.com/angelmondragon/catalog-backoffice/pkg/config"
	"github.com/angelmondragon/catalog-backoffice/pkg/db"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconcile"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "diagnostics", "command: repair|diagnostics|dedupe|reprice")
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	productID := flag.String("product-id", "", "limit repair to one product")
	limit := flag.Int("limit", 500, "max variants to reprice")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "reconcile",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"cmd":     *cmd,
		"dry_run": *dryRun,
	})

	opts, err := parseRepairOptions(*productID, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	// No registerer: a one-shot run has nothing to scrape.
	services, err := app.NewServices(cfg, dbClient, logg, nil)
	requireResource(ctx, logg, "services", err)

	var result any
	switch *cmd {
	case "repair":
		result, err = services.Inventory.RepairInventory(ctx, opts)
	case "diagnostics":
		result, err = services.Inventory.RunDiagnostics(ctx)
	case "dedupe":
		result, err = services.Inventory.CleanupDuplicates(ctx, *dryRun)
	case "reprice":
		result, err = services.Variants.RepriceUnresolved(ctx, *limit)
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(2)
	}
	if err != nil {
		logg.Error(ctx, "reconcile command failed", err)
		os.Exit(1)
	}

	if err := writeResult(os.Stdout, result); err != nil {
		logg.Error(ctx, "failed to write result", err)
		os.Exit(1)
	}

	if repair, ok := result.(*inventory.RepairResult); ok && repair.Failed > 0 {
		os.Exit(3)
	}
}

func parseRepairOptions(productID string, dryRun bool) (inventory.RepairOptions, error) {
	opts := inventory.RepairOptions{DryRun: dryRun}
	if productID == "" {
		return opts, nil
	}
	id, err := uuid.Parse(productID)
	if err != nil {
		return opts, fmt.Errorf("invalid -product-id %q: %w", productID, err)
	}
	opts.ProductID = &id
	return opts, nil
}

func writeResult(w io.Writer, result any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
