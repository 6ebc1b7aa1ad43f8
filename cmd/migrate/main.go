package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/vendra/backend/internal/infrastructure/config"
	"github.com/vendra/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		target         string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations/<target>)")
	flag.StringVar(&target, "target", "catalog", "Database to migrate: catalog or satellite")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	var dbCfg config.DatabaseConfig
	switch target {
	case "catalog":
		dbCfg = cfg.Catalog
	case "satellite":
		dbCfg = cfg.Sync.Satellite
	default:
		log.Fatal("Unknown migration target", zap.String("target", target))
	}

	if migrationsPath == "" {
		migrationsPath = filepath.Join(defaultMigrationsPath, target)
	}
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}

	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	driver, err := mpg.WithInstance(db, &mpg.Config{})
	if err != nil {
		log.Fatal("Failed to create migration driver", zap.Error(err))
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+absPath, dbCfg.DBName, driver)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "drop":
		err = m.Drop()
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatal("Failed to read version", zap.Error(verr))
		}
		log.Info("Migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
	log.Info("Migration complete", zap.String("target", target), zap.String("command", command))
}

func printUsage() {
	fmt.Println(`Usage: migrate [-target catalog|satellite] [-path DIR] <command>

Commands:
  up       Apply all pending migrations
  down     Roll back the most recent migration
  drop     Drop everything in the database
  version  Print the current migration version`)
}
