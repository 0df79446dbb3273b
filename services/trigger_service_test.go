package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"tenant_options_go/db"
	"tenant_options_go/dialect"
)

func TestValidateIdentifier(t *testing.T) {
	assert.True(t, ValidateIdentifier("projects_label_selections"))
	assert.True(t, ValidateIdentifier("schema1.table_2"))
	assert.False(t, ValidateIdentifier(""))
	assert.False(t, ValidateIdentifier("table; DROP TABLE users"))
	assert.False(t, ValidateIdentifier(`table"name`))
	assert.False(t, ValidateIdentifier("table name"))
}

func TestQuoteIdentifier(t *testing.T) {
	quoted, err := QuoteIdentifier("public.options")
	assert.NoError(t, err)
	assert.Equal(t, `"public"."options"`, quoted)

	_, err = QuoteIdentifier("bad;name")
	assert.Error(t, err)
}

func TestTriggerName(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		first, err := TriggerName("projects_label_selections", dialect.SQLite)
		assert.NoError(t, err)
		second, err := TriggerName("projects_label_selections", dialect.SQLite)
		assert.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Contains(t, first, "tenant_check")
	})

	t.Run("RespectsVendorLimits", func(t *testing.T) {
		long := strings.Repeat("selection_table_", 8)
		for _, vendor := range []string{dialect.SQLite, dialect.Postgres, dialect.MySQL, dialect.Oracle} {
			name, err := TriggerName(long, vendor)
			assert.NoError(t, err)
			assert.LessOrEqual(t, len(name), dialect.MaxIdentifierLength(vendor), vendor)
		}
	})

	t.Run("HashDerivedBeforeTruncation", func(t *testing.T) {
		long := strings.Repeat("selection_table_", 8)
		pg, _ := TriggerName(long, dialect.Postgres)
		oracle, _ := TriggerName(long, dialect.Oracle)
		assert.NotEqual(t, pg, oracle)
		assert.Equal(t, pg[len(pg)-10:], oracle[len(oracle)-10:])
	})

	t.Run("LeadingDigitGetsLetterPrefix", func(t *testing.T) {
		name, err := TriggerName("1selections", dialect.SQLite)
		assert.NoError(t, err)
		assert.Equal(t, byte('t'), name[0])
	})

	t.Run("RejectsUnsafeNames", func(t *testing.T) {
		_, err := TriggerName("bad;table", dialect.SQLite)
		assert.Error(t, err)
	})
}

func TestTriggerSQL(t *testing.T) {
	t.Run("SQLite", func(t *testing.T) {
		sql, err := TriggerSQL(dialect.SQLite, "trig", "selections", "options")
		assert.NoError(t, err)
		assert.Contains(t, sql, `BEFORE INSERT ON "selections"`)
		assert.Contains(t, sql, `SELECT tenant_id FROM "options" WHERE id = NEW.option_id`)
		assert.Contains(t, sql, "RAISE(FAIL")
	})

	t.Run("Postgres", func(t *testing.T) {
		sql, err := TriggerSQL(dialect.Postgres, "trig", "selections", "options")
		assert.NoError(t, err)
		assert.Contains(t, sql, "LANGUAGE plpgsql")
		assert.Contains(t, sql, `EXECUTE FUNCTION "trig_func"()`)
		assert.Contains(t, sql, "RAISE EXCEPTION")
	})

	t.Run("MySQL", func(t *testing.T) {
		sql, err := TriggerSQL(dialect.MySQL, "trig", "selections", "options")
		assert.NoError(t, err)
		assert.Contains(t, sql, "SIGNAL SQLSTATE '45000'")
		assert.Contains(t, sql, "BEFORE INSERT ON `selections`")
	})

	t.Run("Oracle", func(t *testing.T) {
		sql, err := TriggerSQL(dialect.Oracle, "trig", "selections", "options")
		assert.NoError(t, err)
		assert.Contains(t, sql, "RAISE_APPLICATION_ERROR(-20001")
	})

	t.Run("UnknownVendor", func(t *testing.T) {
		_, err := TriggerSQL("mssql", "trig", "selections", "options")
		assert.Error(t, err)
	})
}

func TestDropTriggerSQL(t *testing.T) {
	assert.Equal(t, "DROP TRIGGER IF EXISTS trig;", DropTriggerSQL(dialect.SQLite, "trig", "selections"))

	pg := DropTriggerSQL(dialect.Postgres, "trig", "selections")
	assert.Contains(t, pg, "DROP TRIGGER IF EXISTS trig ON selections;")
	assert.Contains(t, pg, "DROP FUNCTION IF EXISTS trig_func;")
}

func TestTriggerGenerator(t *testing.T) {
	gdb, def := setupCatalogTestDB()
	dir := t.TempDir()

	// Give the app some migration history so generated files chain after it.
	assert.NoError(t, db.RecordMigration(gdb, def.App, "0001_initial"))

	newGenerator := func() *TriggerGenerator {
		generator, err := NewTriggerGenerator(gdb, dialect.SQLite, dir)
		assert.NoError(t, err)
		generator.Out = io.Discard
		return generator
	}

	triggerName, err := TriggerName(def.SelectionTable, dialect.SQLite)
	assert.NoError(t, err)

	t.Run("WritesMigrationPair", func(t *testing.T) {
		assert.NoError(t, newGenerator().Generate(def))

		upPath := filepath.Join(dir, def.App, "0002_auto_trigger_labelselection.up.sql")
		downPath := filepath.Join(dir, def.App, "0002_auto_trigger_labelselection.down.sql")

		up, err := os.ReadFile(upPath)
		assert.NoError(t, err)
		assert.Contains(t, string(up), "CREATE TRIGGER")
		assert.Contains(t, string(up), triggerName)
		assert.Contains(t, string(up), "depends on: projects/0001_initial")

		down, err := os.ReadFile(downPath)
		assert.NoError(t, err)
		assert.Contains(t, string(down), "DROP TRIGGER IF EXISTS")
	})

	t.Run("SkipsExisting", func(t *testing.T) {
		assert.NoError(t, newGenerator().Generate(def))

		matches, _ := filepath.Glob(filepath.Join(dir, def.App, "*.up.sql"))
		assert.Len(t, matches, 1)
	})

	t.Run("ForceRegenerates", func(t *testing.T) {
		generator := newGenerator()
		generator.Force = true
		assert.NoError(t, generator.Generate(def))

		matches, _ := filepath.Glob(filepath.Join(dir, def.App, "*.up.sql"))
		assert.Len(t, matches, 2)
	})

	t.Run("DryRunWritesNothing", func(t *testing.T) {
		scratch := t.TempDir()
		generator, err := NewTriggerGenerator(gdb, dialect.SQLite, scratch)
		assert.NoError(t, err)
		generator.Out = io.Discard
		generator.DryRun = true
		assert.NoError(t, generator.Generate(def))

		matches, _ := filepath.Glob(filepath.Join(scratch, def.App, "*.sql"))
		assert.Empty(t, matches)
	})
}

func TestMigrationNumbering(t *testing.T) {
	assert.Equal(t, "0005_auto_trigger_label", nextMigrationName("0004_initial", "auto_trigger_label"))
	assert.Equal(t, "auto_trigger_label", nextMigrationName("", "auto_trigger_label"))
	assert.Equal(t, "auto_trigger_label", nextMigrationName("initial", "auto_trigger_label"))
	assert.Equal(t, 12, migrationNumber("0012_add_things"))
	assert.Equal(t, 0, migrationNumber("add_things"))
}

func TestTriggerEnforcement(t *testing.T) {
	gdb, def := setupCatalogTestDB()
	createTestTenant(gdb, "tenant-a", "alpha")
	createTestTenant(gdb, "tenant-b", "beta")

	optionB, err := CreateForTenant(gdb, def, "tenant-b", "Legal Hold")
	assert.NoError(t, err)

	triggerName, err := TriggerName(def.SelectionTable, dialect.SQLite)
	assert.NoError(t, err)
	triggerSQL, err := TriggerSQL(dialect.SQLite, triggerName, def.SelectionTable, def.OptionTable)
	assert.NoError(t, err)
	assert.NoError(t, gdb.Exec(triggerSQL).Error)

	t.Run("RawMismatchedInsertFails", func(t *testing.T) {
		err := gdb.Exec(
			"INSERT INTO "+def.SelectionTable+" (id, tenant_id, option_id) VALUES (?, ?, ?)",
			"sel-1", "tenant-a", optionB.ID,
		).Error
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Tenant mismatch")
	})

	t.Run("MatchingInsertSucceeds", func(t *testing.T) {
		err := gdb.Exec(
			"INSERT INTO "+def.SelectionTable+" (id, tenant_id, option_id) VALUES (?, ?, ?)",
			"sel-2", "tenant-b", optionB.ID,
		).Error
		assert.NoError(t, err)
	})
}
