package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/totem-backend/pkg/config"
	"github.com/angelmondragon/totem-backend/pkg/db"
	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/angelmondragon/totem-backend/pkg/migrate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrationsApplyOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrations_apply?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	if err := migrate.Run(ctx, sqlDB, config.DBDriverSQLite, "migrations", "up"); err != nil {
		t.Fatalf("goose up: %v", err)
	}

	for _, table := range []string{
		"restaurants", "categories", "products", "product_ingredients", "complements",
		"orders", "order_items", "order_item_complements", "order_item_removed_ingredients",
		"system_settings",
	} {
		if !conn.Migrator().HasTable(table) {
			t.Errorf("expected table %s after migrating up", table)
		}
	}

	var counter string
	if err := conn.Raw("SELECT value FROM system_settings WHERE key = ?", "order_counter").Scan(&counter).Error; err != nil {
		t.Fatalf("read order counter: %v", err)
	}
	if counter != "1" {
		t.Fatalf("expected order counter seeded with 1, got %q", counter)
	}

	if err := migrate.Run(ctx, sqlDB, config.DBDriverSQLite, "migrations", "down"); err != nil {
		t.Fatalf("goose down: %v", err)
	}
	if conn.Migrator().HasTable("system_settings") {
		t.Fatal("expected system_settings dropped after one step down")
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate shipped migrations: %v", err)
	}

	dir := t.TempDir()
	if _, err := migrate.CreateSQLMigration(dir, "Add Kiosk Table!", time.Now()); err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate created migration: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up"), 0o644); err != nil {
		t.Fatalf("write bad migration: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestValidateDirRejectsPostgresOnlySQL(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\nCREATE TABLE kiosks (id UUID PRIMARY KEY DEFAULT gen_random_uuid());\n-- +goose Down\nDROP TABLE kiosks;\n"
	if err := os.WriteFile(filepath.Join(dir, "20260401000000_kiosks.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}
	err := migrate.ValidateDir(dir)
	if err == nil || !strings.Contains(err.Error(), "gen_random_uuid") {
		t.Fatalf("expected portability error, got %v", err)
	}
}

func TestCreateSQLMigrationSlugsName(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	path, err := migrate.CreateSQLMigration(dir, "  Add Kiosk -- Table! ", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if got := filepath.Base(path); got != "20260401120000_add_kiosk_table.sql" {
		t.Fatalf("unexpected filename %q", got)
	}
	if _, err := migrate.CreateSQLMigration(dir, "add kiosk table", now); err == nil {
		t.Fatal("expected duplicate migration error")
	}
}

func TestGooseDialect(t *testing.T) {
	if got := migrate.GooseDialect(config.DBDriverSQLite); got != "sqlite3" {
		t.Fatalf("expected sqlite3, got %s", got)
	}
	if got := migrate.GooseDialect(config.DBDriverPostgres); got != "postgres" {
		t.Fatalf("expected postgres, got %s", got)
	}
}

func TestShouldAutoRun(t *testing.T) {
	prod := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}}
	if !migrate.ShouldAutoRun(prod, config.DBDriverSQLite) {
		t.Fatal("sqlite kiosks migrate at boot")
	}
	if migrate.ShouldAutoRun(prod, config.DBDriverPostgres) {
		t.Fatal("prod postgres must use the migrate binary")
	}
	dev := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvDev},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	if !migrate.ShouldAutoRun(dev, config.DBDriverPostgres) {
		t.Fatal("dev postgres with auto migrate should run")
	}
}

func TestMaybeRunAppliesEmbeddedMigrationsOnce(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrations_autorun?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	client := db.NewFromGorm(conn)
	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}}

	if err := migrate.MaybeRun(ctx, cfg, logger.Nop(), client); err != nil {
		t.Fatalf("maybe run: %v", err)
	}
	if !conn.Migrator().HasTable("orders") {
		t.Fatal("expected orders table after auto-run")
	}
	pending, err := migrate.Pending(ctx, sqlDB, config.DBDriverSQLite, migrate.DefaultDir)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending != 0 {
		t.Fatalf("expected no pending migrations, got %d", pending)
	}
	if err := migrate.MaybeRun(ctx, cfg, logger.Nop(), client); err != nil {
		t.Fatalf("second maybe run: %v", err)
	}
}
