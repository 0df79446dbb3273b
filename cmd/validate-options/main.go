package main

import (
	"log"
	"os"

	"tenant_options_go/config"
	"tenant_options_go/db"
	"tenant_options_go/example"
	"tenant_options_go/logger"
	"tenant_options_go/models"
	"tenant_options_go/services"
)

func main() {
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

	report := services.AuditCatalogs(db.DB, models.Catalogs())
	report.Print(os.Stdout)
	if report.Fatal() {
		os.Exit(1)
	}
}
