package main

import (
	"flag"
	"fmt"
	"log"

	"tenant_options_go/config"
	"tenant_options_go/db"
	"tenant_options_go/example"
	"tenant_options_go/logger"
	"tenant_options_go/models"
	"tenant_options_go/services"
)

func main() {
	app := flag.String("app", "", "list only this app's catalogs; default is all")
	catalogName := flag.String("catalog", "", "list only this catalog (app.OptionModel); default is all")
	tenantID := flag.String("tenant", "", "show the options available to this tenant instead of the full catalog")
	selected := flag.Bool("selected", false, "with -tenant, show only the options in force for the tenant")
	includeDeleted := flag.Bool("include-deleted", false, "include soft-deleted options")
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
		options, err := loadOptions(def, *tenantID, *selected, *includeDeleted)
		if err != nil {
			log.Fatalf("Failed to list options for %s: %v", def.QualifiedName(), err)
		}

		fmt.Printf("%s (%d options)\n", def.QualifiedName(), len(options))
		for _, group := range groupByType(options) {
			fmt.Printf("  %s:\n", group.Type.Label())
			for _, option := range group.Options {
				state := "active"
				if !option.IsActive() {
					state = "deleted"
				}
				line := fmt.Sprintf("    %-20s state=%s", option.Name, state)
				if option.TenantID != nil {
					line += " tenant=" + *option.TenantID
				}
				fmt.Println(line)
			}
		}
		fmt.Println()
	}
}

type optionGroup struct {
	Type    models.OptionType
	Options []models.Option
}

// groupByType buckets options as mandatory, then optional, then custom,
// keeping the incoming order inside each bucket. Empty buckets are omitted.
func groupByType(options []models.Option) []optionGroup {
	byType := map[models.OptionType][]models.Option{}
	for _, option := range options {
		byType[option.OptionType] = append(byType[option.OptionType], option)
	}

	var groups []optionGroup
	for _, optionType := range []models.OptionType{
		models.OptionTypeMandatory,
		models.OptionTypeOptional,
		models.OptionTypeCustom,
	} {
		if bucket := byType[optionType]; len(bucket) > 0 {
			groups = append(groups, optionGroup{Type: optionType, Options: bucket})
		}
	}
	return groups
}

func loadOptions(def *models.Definition, tenantID string, selected, includeDeleted bool) ([]models.Option, error) {
	switch {
	case tenantID != "" && selected:
		return services.SelectedOptionsForTenant(db.DB, def, tenantID, includeDeleted)
	case tenantID != "":
		return services.OptionsForTenant(db.DB, def, tenantID, includeDeleted)
	case includeDeleted:
		active, err := services.ActiveOptions(db.DB, def)
		if err != nil {
			return nil, err
		}
		deleted, err := services.DeletedOptions(db.DB, def)
		if err != nil {
			return nil, err
		}
		return append(active, deleted...), nil
	default:
		return services.ActiveOptions(db.DB, def)
	}
}
