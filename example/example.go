// Package example ships two ready-made catalogs, task priorities and task
// statuses, used by the operator commands and as a template for hosts
// declaring their own catalogs.
package example

import (
	"gorm.io/gorm"

	"tenant_options_go/db"
	"tenant_options_go/models"
)

// TaskPriorities declares the priority catalog for the example app.
var TaskPriorities = &models.Definition{
	App:            "example",
	OptionModel:    "TaskPriorityOption",
	SelectionModel: "TaskPrioritySelection",
	OptionTable:    "example_task_priority_options",
	SelectionTable: "example_task_priority_selections",
	TenantTable:    "tenants",
	DefaultOptions: map[string]models.OptionType{
		"Critical": models.OptionTypeOptional,
		"High":     models.OptionTypeMandatory,
		"Medium":   models.OptionTypeOptional,
		"Low":      models.OptionTypeMandatory,
	},
}

// TaskStatuses declares the status catalog for the example app.
var TaskStatuses = &models.Definition{
	App:            "example",
	OptionModel:    "TaskStatusOption",
	SelectionModel: "TaskStatusSelection",
	OptionTable:    "example_task_status_options",
	SelectionTable: "example_task_status_selections",
	TenantTable:    "tenants",
	DefaultOptions: map[string]models.OptionType{
		"New":         models.OptionTypeMandatory,
		"In Progress": models.OptionTypeOptional,
		"Completed":   models.OptionTypeMandatory,
		"Archived":    models.OptionTypeMandatory,
	},
}

// Register adds the example catalogs to the registry.
func Register() error {
	for _, def := range []*models.Definition{TaskPriorities, TaskStatuses} {
		if err := models.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Migrate creates the supporting tables and the catalog tables for the
// example app. Safe to run repeatedly.
func Migrate(gdb *gorm.DB, vendor string) error {
	if err := gdb.AutoMigrate(&models.Tenant{}, &db.MigrationRecord{}); err != nil {
		return err
	}
	for _, def := range []*models.Definition{TaskPriorities, TaskStatuses} {
		if err := models.InstallCatalogSchema(gdb, vendor, def); err != nil {
			return err
		}
	}
	return nil
}
