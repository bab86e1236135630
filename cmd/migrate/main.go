package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/angelmondragon/totem-backend/pkg/config"
	"github.com/angelmondragon/totem-backend/pkg/db"
	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/angelmondragon/totem-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
	seed    bool
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate|seed")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.BoolVar(&opts.seed, "seed", false, "load the demo menu after -cmd=up when the catalog is empty")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// create and validate only touch the filesystem.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("missing -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"driver": cfg.DB.Driver,
		"cmd":    opts.cmd,
		"dir":    opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}
	dialect := dbClient.Dialect()

	switch opts.cmd {
	case "up":
		if err := goose(ctx, logg, sqlDB, dialect, opts.dir, opts.cmd); err != nil {
			return err
		}
		if opts.seed {
			return seed(ctx, logg, dbClient)
		}
		return nil
	case "down", "status":
		return goose(ctx, logg, sqlDB, dialect, opts.dir, opts.cmd)
	case "version":
		if opts.version == "" {
			return fmt.Errorf("missing -version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dialect, opts.dir, opts.version)
	case "seed":
		return seed(ctx, logg, dbClient)
	}
	return fmt.Errorf("unknown -cmd value %q", opts.cmd)
}

func goose(ctx context.Context, logg *logger.Logger, sqlDB *sql.DB, dialect, dir, command string) error {
	logg.Info(ctx, "running goose "+command)
	if err := migrate.Run(ctx, sqlDB, dialect, dir, command); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

func seed(ctx context.Context, logg *logger.Logger, dbClient *db.Client) error {
	result, err := catalog.Seed(ctx, dbClient.DB())
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if result.Skipped {
		logg.Info(ctx, "catalog already has products, nothing seeded")
		return nil
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"categories":  result.Categories,
		"products":    result.Products,
		"complements": result.Complements,
	}), "catalog seeded")
	return nil
}
