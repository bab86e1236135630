package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/totem-backend/pkg/config"
	"github.com/angelmondragon/totem-backend/pkg/db"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

// ShouldAutoRun reports whether the api applies migrations at boot: always on a
// standalone SQLite kiosk, otherwise only in dev with TOTEM_AUTO_MIGRATE set.
func ShouldAutoRun(cfg *config.Config, dialect string) bool {
	if dialect == config.DBDriverSQLite {
		return true
	}
	return cfg.FeatureFlags.AutoMigrate && cfg.App.IsDev()
}

// MaybeRun applies the embedded migrations when ShouldAutoRun allows it.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	dialect := client.Dialect()
	if !ShouldAutoRun(cfg, dialect) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	pending, err := Pending(ctx, sqlDB, dialect, DefaultDir)
	if err != nil {
		return err
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect, "pending": pending})
	if pending == 0 {
		logg.Debug(ctx, "schema up to date")
		return nil
	}

	logg.Info(ctx, "applying embedded migrations")
	if err := Run(ctx, sqlDB, dialect, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "migrations applied")
	return nil
}
