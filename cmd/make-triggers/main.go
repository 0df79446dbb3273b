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
	app := flag.String("app", "", "generate triggers only for this app's catalogs; default is all")
	model := flag.String("model", "", "generate triggers only for this catalog (app.SelectionModel); default is all")
	dir := flag.String("dir", "", "migration directory (default from MIGRATION_DIR)")
	vendor := flag.String("vendor", "", "database vendor to generate trigger SQL for (default from config)")
	force := flag.Bool("force", false, "regenerate triggers that already exist in migration history")
	dryRun := flag.Bool("dry-run", false, "show what would be generated without writing files")
	interactive := flag.Bool("interactive", false, "confirm each migration before writing it")
	verbose := flag.Bool("verbose", false, "print progress for every catalog")
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

	generator, err := services.NewTriggerGenerator(db.DB, *vendor, *dir)
	if err != nil {
		log.Fatalf("Failed to create trigger generator: %v", err)
	}
	generator.Force = *force
	generator.DryRun = *dryRun
	generator.Interactive = *interactive
	generator.Verbose = *verbose

	defs, err := models.FilterCatalogs(*app, *model)
	if err != nil {
		log.Fatalf("Failed to resolve catalogs: %v", err)
	}

	for _, def := range defs {
		if err := generator.Generate(def); err != nil {
			log.Fatalf("Failed to generate trigger for %s: %v", def.QualifiedName(), err)
		}
	}
}
