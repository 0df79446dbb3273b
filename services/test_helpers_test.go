package services

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tenant_options_go/db"
	"tenant_options_go/dialect"
	"tenant_options_go/models"
)

// setupCatalogTestDB opens an in-memory database with one catalog installed:
// projects.LabelOption over projects_label_options / projects_label_selections.
func setupCatalogTestDB() (*gorm.DB, *models.Definition) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		panic("failed to connect database")
	}
	gdb.AutoMigrate(&models.Tenant{}, &db.MigrationRecord{})

	def := testDefinition()
	if err := models.InstallCatalogSchema(gdb, dialect.SQLite, def); err != nil {
		panic(err)
	}
	return gdb, def
}

func testDefinition() *models.Definition {
	return &models.Definition{
		App:            "projects",
		OptionModel:    "LabelOption",
		SelectionModel: "LabelSelection",
		OptionTable:    "projects_label_options",
		SelectionTable: "projects_label_selections",
		TenantTable:    "tenants",
		DefaultOptions: map[string]models.OptionType{
			"Bug":     models.OptionTypeMandatory,
			"Feature": models.OptionTypeOptional,
			"Chore":   models.OptionTypeOptional,
		},
	}
}

func createTestTenant(gdb *gorm.DB, id, subdomain string) {
	gdb.Create(&models.Tenant{ID: id, Name: "Tenant " + subdomain, Subdomain: subdomain})
}

// seedDefaults runs the default-option sync and returns the created options
// keyed by name.
func seedDefaults(gdb *gorm.DB, def *models.Definition) map[string]models.Option {
	if _, err := SyncDefaultOptions(gdb, def); err != nil {
		panic(err)
	}
	options, err := ActiveOptions(gdb, def)
	if err != nil {
		panic(err)
	}
	byName := map[string]models.Option{}
	for _, option := range options {
		byName[option.Name] = option
	}
	return byName
}
