package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"sync"

	"github.com/angelmondragon/totem-backend/pkg/config"
	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk location create and validate work against.
// Running migrations from DefaultDir reads the copy compiled into the binary.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

// GooseDialect maps the configured database driver to goose's dialect name.
func GooseDialect(driver string) string {
	if driver == config.DBDriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

// Source resolves dir to the filesystem goose should read.
func Source(dir string) (fs.FS, string) {
	if dir == DefaultDir || dir == embeddedDir {
		return embedded, embeddedDir
	}
	return nil, dir
}

func withGoose(dialect, dir string, fn func(dir string) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(GooseDialect(dialect)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	fsys, resolved := Source(dir)
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	return fn(resolved)
}

// Run executes a goose command (up, down, status, ...) against db.
func Run(ctx context.Context, db *sql.DB, dialect, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return withGoose(dialect, dir, func(dir string) error {
		if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// Pending reports how many migrations have not been applied yet.
func Pending(ctx context.Context, db *sql.DB, dialect, dir string) (int, error) {
	var pending int
	err := withGoose(dialect, dir, func(dir string) error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		migrations, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
		if err != nil {
			return fmt.Errorf("collect migrations: %w", err)
		}
		for _, m := range migrations {
			if m.Version > current {
				pending++
			}
		}
		return nil
	})
	return pending, err
}

// MigrateToVersion migrates up or down until the database sits at targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect, dir string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	return withGoose(dialect, dir, func(dir string) error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		switch {
		case current == target:
			return nil
		case current < target:
			if err := goose.UpToContext(ctx, db, dir, target); err != nil {
				return fmt.Errorf("goose up-to %d: %w", target, err)
			}
		default:
			if err := goose.DownToContext(ctx, db, dir, target); err != nil {
				return fmt.Errorf("goose down-to %d: %w", target, err)
			}
		}
		return nil
	})
}
