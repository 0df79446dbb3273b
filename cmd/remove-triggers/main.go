package main

import (
	"flag"
	"log"

	"tenant_options_go/config"
	"tenant_options_go/db"
	"tenant_options_go/example"
	"tenant_options_go/logger"
	"tenant_options_go/models"
	"tenant_options_go/services"
)

func main() {
	app := flag.String("app", "", "remove triggers only for this app's catalogs; default is all")
	model := flag.String("model", "", "remove triggers only for this catalog (app.SelectionModel); default is all")
	dir := flag.String("dir", "", "migration directory (default from MIGRATION_DIR)")
	vendor := flag.String("vendor", "", "database vendor the drop statements target (default from config)")
	dryRun := flag.Bool("dry-run", false, "show what would be removed without writing files")
	interactive := flag.Bool("interactive", false, "confirm each removal migration before writing it")
	verbose := flag.Bool("verbose", false, "print the trigger names being removed")
	verify := flag.Bool("verify", false, "skip triggers that do not exist in the live database")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.Environment)
	defer logger.Sync()

	// Initialize database
	if err := db.Initialize(cfg.DBVendor, cfg.DBDSN, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := example.Register(); err != nil {
		log.Fatalf("Failed to register catalogs: %v", err)
	}
	if err := example.Migrate(db.DB, cfg.DBVendor); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if *dir == "" {
		*dir = cfg.MigrationDir
	}
	if *vendor == "" {
		*vendor = cfg.TriggerVendor()
	}

	remover, err := services.NewTriggerRemover(db.DB, *vendor, *dir)
	if err != nil {
		log.Fatalf("Failed to create trigger remover: %v", err)
	}
	remover.DryRun = *dryRun
	remover.Interactive = *interactive
	remover.Verbose = *verbose
	remover.Verify = *verify

	defs, err := models.FilterCatalogs(*app, *model)
	if err != nil {
		log.Fatalf("Failed to resolve catalogs: %v", err)
	}

	if err := remover.Remove(defs); err != nil {
		log.Fatalf("Failed to remove triggers: %v", err)
	}
}
