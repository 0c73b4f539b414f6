package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_orders_tables.sql")
	checks := []string{
		"CREATE SEQUENCE IF NOT EXISTS order_number_seq",
		"order_number bigint NOT NULL DEFAULT nextval('order_number_seq')",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number",
		"CREATE TABLE IF NOT EXISTS order_items",
		"REFERENCES orders(id) ON DELETE CASCADE",
		"CREATE TYPE delivery_option AS ENUM ('standard', 'express', 'sameday')",
		"CREATE TYPE payment_method AS ENUM ('cash_on_delivery', 'bank_transfer', 'card')",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCouponMigrationsGuardUsage(t *testing.T) {
	coupons := readMigration(t, "*_create_coupons_table.sql")
	if !strings.Contains(coupons, "CHECK (max_uses IS NULL OR current_uses <= max_uses)") {
		t.Errorf("coupons table should bound current_uses by max_uses")
	}
	if !strings.Contains(coupons, "ON coupons (upper(code))") {
		t.Errorf("coupon codes should be unique case-insensitively")
	}
	usages := readMigration(t, "*_create_coupon_usages_table.sql")
	if !strings.Contains(usages, "idx_coupon_usages_coupon_order ON coupon_usages (coupon_id, order_id)") {
		t.Errorf("coupon usages should be unique per order")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Order Notes!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_order_notes.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatalf("expected error for name that sanitizes to empty")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected invalid filename error")
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}
	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), nil); err != nil {
		t.Fatalf("expected no-op outside dev, got %v", err)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
