package models

import (
	"fmt"

	"gorm.io/gorm"

	"tenant_options_go/dialect"
)

// The engine owns the DDL for option and selection tables instead of relying
// on AutoMigrate: the named check constraints and the partial unique indexes
// below must exist with exactly these names so the auditor can verify them
// and so bulk or raw writes cannot bypass the invariants.

// SchemaStatements returns the DDL that creates one catalog's option and
// selection tables for the given vendor, including:
//
//   - {app}_{option}_unique_name: case-insensitive unique option names per
//     tenant scope (NULL tenant is its own scope), active rows only
//   - {app}_{option}_tenant_check: CUSTOM options must carry a tenant,
//     MANDATORY/OPTIONAL must not
//   - {app}_{selection}_option_not_null / _tenant_not_null
//   - {app}_{selection}_unique_active_selection: one active selection per
//     (tenant, option)
//
// Statements are idempotent where the vendor allows it.
func SchemaStatements(vendor string, def *Definition) ([]string, error) {
	vendor, err := dialect.Normalize(vendor)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	optionNotNull, tenantNotNull, uniqueActive := def.SelectionConstraints()

	switch vendor {
	case dialect.SQLite:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	id TEXT PRIMARY KEY,
	created_at DATETIME,
	updated_at DATETIME,
	name VARCHAR(100) NOT NULL,
	option_type VARCHAR(3) NOT NULL DEFAULT 'do',
	tenant_id TEXT NULL REFERENCES %q(id),
	deleted DATETIME NULL,
	CONSTRAINT %q CHECK (
		(option_type = 'cu' AND tenant_id IS NOT NULL) OR
		(option_type IN ('dm', 'do') AND tenant_id IS NULL)
	)
);`, def.OptionTable, def.TenantTable, def.TenantCheckConstraint()),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %q ON %q (lower(name), coalesce(tenant_id, '')) WHERE deleted IS NULL;`,
				def.UniqueNameConstraint(), def.OptionTable),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	id TEXT PRIMARY KEY,
	created_at DATETIME,
	updated_at DATETIME,
	tenant_id TEXT REFERENCES %q(id),
	option_id TEXT REFERENCES %q(id),
	deleted DATETIME NULL,
	CONSTRAINT %q CHECK (option_id IS NOT NULL),
	CONSTRAINT %q CHECK (tenant_id IS NOT NULL)
);`, def.SelectionTable, def.TenantTable, def.OptionTable, optionNotNull, tenantNotNull),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %q ON %q (tenant_id, option_id) WHERE deleted IS NULL;`,
				uniqueActive, def.SelectionTable),
		}, nil

	case dialect.Postgres:
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	id uuid PRIMARY KEY,
	created_at timestamptz,
	updated_at timestamptz,
	name varchar(100) NOT NULL,
	option_type varchar(3) NOT NULL DEFAULT 'do',
	tenant_id uuid NULL REFERENCES %q(id),
	deleted timestamptz NULL,
	CONSTRAINT %q CHECK (
		(option_type = 'cu' AND tenant_id IS NOT NULL) OR
		(option_type IN ('dm', 'do') AND tenant_id IS NULL)
	)
);`, def.OptionTable, def.TenantTable, def.TenantCheckConstraint()),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %q ON %q (lower(name), coalesce(tenant_id::text, '')) WHERE deleted IS NULL;`,
				def.UniqueNameConstraint(), def.OptionTable),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	id uuid PRIMARY KEY,
	created_at timestamptz,
	updated_at timestamptz,
	tenant_id uuid REFERENCES %q(id),
	option_id uuid REFERENCES %q(id),
	deleted timestamptz NULL,
	CONSTRAINT %q CHECK (option_id IS NOT NULL),
	CONSTRAINT %q CHECK (tenant_id IS NOT NULL)
);`, def.SelectionTable, def.TenantTable, def.OptionTable, optionNotNull, tenantNotNull),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %q ON %q (tenant_id, option_id) WHERE deleted IS NULL;`,
				uniqueActive, def.SelectionTable),
		}, nil

	case dialect.MySQL:
		// MySQL has no partial indexes. The unique name index covers all
		// rows via functional key parts, and the active-selection rule
		// folds NULL deleted into a sentinel so two active rows collide
		// while historical rows stay distinct.
		return []string{
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n"+
				"	id char(36) PRIMARY KEY,\n"+
				"	created_at datetime(3) NULL,\n"+
				"	updated_at datetime(3) NULL,\n"+
				"	name varchar(100) NOT NULL,\n"+
				"	option_type varchar(3) NOT NULL DEFAULT 'do',\n"+
				"	tenant_id char(36) NULL,\n"+
				"	deleted datetime(3) NULL,\n"+
				"	CONSTRAINT `%s` CHECK (\n"+
				"		(option_type = 'cu' AND tenant_id IS NOT NULL) OR\n"+
				"		(option_type IN ('dm', 'do') AND tenant_id IS NULL)\n"+
				"	),\n"+
				"	UNIQUE KEY `%s` ((lower(name)), (coalesce(tenant_id, ''))),\n"+
				"	FOREIGN KEY (tenant_id) REFERENCES `%s`(id)\n"+
				");", def.OptionTable, def.TenantCheckConstraint(), def.UniqueNameConstraint(), def.TenantTable),
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n"+
				"	id char(36) PRIMARY KEY,\n"+
				"	created_at datetime(3) NULL,\n"+
				"	updated_at datetime(3) NULL,\n"+
				"	tenant_id char(36),\n"+
				"	option_id char(36),\n"+
				"	deleted datetime(3) NULL,\n"+
				"	CONSTRAINT `%s` CHECK (option_id IS NOT NULL),\n"+
				"	CONSTRAINT `%s` CHECK (tenant_id IS NOT NULL),\n"+
				"	UNIQUE KEY `%s` (tenant_id, option_id, (coalesce(deleted, '1970-01-01 00:00:00'))),\n"+
				"	FOREIGN KEY (tenant_id) REFERENCES `%s`(id),\n"+
				"	FOREIGN KEY (option_id) REFERENCES `%s`(id)\n"+
				");", def.SelectionTable, optionNotNull, tenantNotNull, uniqueActive, def.TenantTable, def.OptionTable),
		}, nil
	}

	return nil, fmt.Errorf("no schema template for vendor %q", vendor)
}

// InstallCatalogSchema executes the catalog DDL and records the installed
// constraint names on the definition for the auditor.
func InstallCatalogSchema(db *gorm.DB, vendor string, def *Definition) error {
	statements, err := SchemaStatements(vendor, def)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("installing schema for %s: %w", def.QualifiedName(), err)
		}
	}

	optionNotNull, tenantNotNull, uniqueActive := def.SelectionConstraints()
	for _, name := range []string{
		def.UniqueNameConstraint(),
		def.TenantCheckConstraint(),
		optionNotNull,
		tenantNotNull,
		uniqueActive,
	} {
		def.addConstraint(name)
	}
	return nil
}
