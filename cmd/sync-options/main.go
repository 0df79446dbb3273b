package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"tenant_options_go/config"
	"tenant_options_go/db"
	"tenant_options_go/example"
	"tenant_options_go/logger"
	"tenant_options_go/models"
	"tenant_options_go/services"
)

func main() {
	app := flag.String("app", "", "sync only this app's catalogs; default is all")
	catalogName := flag.String("catalog", "", "sync only this catalog (app.OptionModel); default is all")
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

	defs, err := models.FilterCatalogs(*app, *catalogName)
	if err != nil {
		log.Fatalf("Failed to resolve catalogs: %v", err)
	}

	for _, def := range defs {
		fmt.Printf("Syncing default options for %s...\n", def.QualifiedName())

		actions, err := services.SyncDefaultOptions(db.DB, def)
		if err != nil {
			log.Fatalf("Failed to sync %s: %v", def.QualifiedName(), err)
		}
		printActions(actions)

		deleted, err := services.DeletedOptions(db.DB, def)
		if err != nil {
			log.Fatalf("Failed to list deleted options for %s: %v", def.QualifiedName(), err)
		}
		printDeleted(deleted, actions)

		custom, err := services.ActiveCustomOptions(db.DB, def)
		if err != nil {
			log.Fatalf("Failed to list custom options for %s: %v", def.QualifiedName(), err)
		}
		printCustom(custom)
		fmt.Println()
	}
}

func printActions(actions map[string]services.SyncAction) {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("  Default options:")
	for _, name := range names {
		fmt.Printf("    %-20s %s\n", name, actions[name])
	}
}

func printDeleted(deleted []models.Option, actions map[string]services.SyncAction) {
	if len(deleted) == 0 {
		return
	}
	fmt.Println("  Deleted options:")
	for _, option := range deleted {
		note := "pre-existing"
		if actions[option.Name] == services.SyncDeleted {
			note = "deleted by this sync"
		}
		fmt.Printf("    %-20s %s\n", option.Name, note)
	}
}

func printCustom(custom []models.Option) {
	if len(custom) == 0 {
		return
	}
	fmt.Println("  Active custom options:")
	for _, option := range custom {
		tenant := ""
		if option.TenantID != nil {
			tenant = *option.TenantID
		}
		fmt.Printf("    %-20s tenant=%s\n", option.Name, tenant)
	}
}
