package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalar2202/logashop/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migration dir failed validation: %v", err)
	}
}

func TestOrderMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_order_tables.sql")

	checks := []string{
		"CREATE TYPE order_status AS ENUM",
		"CREATE TYPE payment_status AS ENUM",
		"CREATE TYPE notification_type AS ENUM",
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CREATE TABLE IF NOT EXISTS digital_deliveries",
		"CREATE TABLE IF NOT EXISTS notifications",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_digital_deliveries_token",
		"CHECK (user_id IS NOT NULL OR guest_email IS NOT NULL)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestShippingMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_shipping_and_coupons.sql")

	checks := []string{
		"CREATE TYPE discount_type AS ENUM",
		"CREATE TABLE IF NOT EXISTS shipping_zones",
		"CREATE TABLE IF NOT EXISTS shipping_methods",
		"CREATE TABLE IF NOT EXISTS coupons",
		"countries text[] NOT NULL DEFAULT ARRAY[]::text[]",
		"free_threshold_cents integer",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_code",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
