package example

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tenant_options_go/models"
	"tenant_options_go/services"
)

func setupExampleTestDB(t *testing.T) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic("failed to connect database")
	}

	models.ResetRegistry()
	t.Cleanup(models.ResetRegistry)
	assert.NoError(t, Register())
	assert.NoError(t, Migrate(gdb, "sqlite"))
	return gdb
}

func TestRegisterAndMigrate(t *testing.T) {
	gdb := setupExampleTestDB(t)

	t.Run("CatalogsRegistered", func(t *testing.T) {
		defs := models.Catalogs()
		assert.Len(t, defs, 2)
		assert.Equal(t, "example.TaskPriorityOption", defs[0].QualifiedName())
		assert.Equal(t, "example.TaskStatusOption", defs[1].QualifiedName())
	})

	t.Run("TablesCreated", func(t *testing.T) {
		for _, table := range []string{
			"tenants",
			"migration_records",
			TaskPriorities.OptionTable,
			TaskPriorities.SelectionTable,
			TaskStatuses.OptionTable,
			TaskStatuses.SelectionTable,
		} {
			assert.True(t, gdb.Migrator().HasTable(table), table)
		}
	})

	t.Run("MigrateIsIdempotent", func(t *testing.T) {
		assert.NoError(t, Migrate(gdb, "sqlite"))
	})
}

func TestExampleDefaultsSync(t *testing.T) {
	gdb := setupExampleTestDB(t)

	actions, err := services.SyncDefaultOptions(gdb, TaskStatuses)
	assert.NoError(t, err)
	assert.Len(t, actions, 4)

	options, err := services.ActiveOptions(gdb, TaskStatuses)
	assert.NoError(t, err)
	assert.Len(t, options, 4)

	byName := map[string]models.OptionType{}
	for _, option := range options {
		byName[option.Name] = option.OptionType
	}
	assert.Equal(t, models.OptionTypeMandatory, byName["New"])
	assert.Equal(t, models.OptionTypeOptional, byName["In Progress"])
	assert.Equal(t, models.OptionTypeMandatory, byName["Completed"])
	assert.Equal(t, models.OptionTypeMandatory, byName["Archived"])

	report := services.AuditCatalogs(gdb, models.Catalogs())
	assert.False(t, report.Fatal())
}
