package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestVariantMigrationContainsUniqueness(t *testing.T) {
	content := readMigration(t, "create_variants")
	assertContains(t, content, []string{
		"CREATE TABLE IF NOT EXISTS variants",
		"CREATE UNIQUE INDEX IF NOT EXISTS " + models.VariantCombinationIndex,
		"CREATE UNIQUE INDEX IF NOT EXISTS " + models.VariantSKUIndex,
		"WHERE is_deleted = false",
		"CHECK (status IN ('draft', 'active', 'out_of_stock', 'archived'))",
		"DROP TABLE IF EXISTS variants",
	})
}

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_inventory_records")
	assertContains(t, content, []string{
		"CREATE TABLE IF NOT EXISTS inventory_records",
		"CREATE UNIQUE INDEX IF NOT EXISTS " + models.InventoryVariantIndex + " ON inventory_records (variant_id)\n    WHERE is_deleted = false;",
		"CHECK (total_stock >= 0)",
		"CHECK (reserved_stock >= 0)",
		"CHECK (reserved_stock <= total_stock)",
		"DROP TABLE IF EXISTS inventory_records",
	})
}

func TestStockMovementMigrationReferencesInventory(t *testing.T) {
	content := readMigration(t, "create_stock_movements")
	assertContains(t, content, []string{
		"CREATE TABLE IF NOT EXISTS stock_movements",
		"FOREIGN KEY (inventory_id) REFERENCES inventory_records(id) ON DELETE CASCADE",
		"CHECK (field IN ('total', 'reserved'))",
	})
}
