package services

import (
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"

	"tenant_options_go/models"
)

// AuditReport collects everything the configuration audit found. Errors
// are misconfigurations that make a catalog unusable; warnings are
// conditions worth an operator's attention but not fatal.
type AuditReport struct {
	Errors   []string
	Warnings []string
}

func (r *AuditReport) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *AuditReport) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Fatal reports whether the audit found errors.
func (r *AuditReport) Fatal() bool {
	return len(r.Errors) > 0
}

// Print writes a human-readable summary of the report.
func (r *AuditReport) Print(out io.Writer) {
	for _, message := range r.Errors {
		fmt.Fprintf(out, "ERROR: %s\n", message)
	}
	for _, message := range r.Warnings {
		fmt.Fprintf(out, "WARNING: %s\n", message)
	}
	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		fmt.Fprintln(out, "All catalogs passed validation.")
	}
}

// AuditCatalogs checks every given catalog definition against the live
// database and returns the combined report. A failing catalog never stops
// the audit: every catalog is scanned so operators see the full picture in
// one run.
func AuditCatalogs(db *gorm.DB, defs []*models.Definition) *AuditReport {
	report := &AuditReport{}
	for _, def := range defs {
		auditCatalog(db, def, report)
	}
	return report
}

func auditCatalog(db *gorm.DB, def *models.Definition, report *AuditReport) {
	label := def.QualifiedName()

	if err := def.Validate(); err != nil {
		report.errorf("%s: %v", label, err)
		return
	}

	for _, table := range []string{def.OptionTable, def.SelectionTable, def.TenantTable} {
		if !db.Migrator().HasTable(table) {
			report.errorf("%s: table %q does not exist in the database", label, table)
		}
	}

	if len(def.DefaultOptions) == 0 {
		report.warnf("%s: no default options are declared; tenants will only see their own custom options", label)
	}

	auditConstraints(def, report)
	auditDuplicateDefaults(db, def, report)
	auditOrphanedSelections(db, def, report)
}

// auditConstraints compares the constraint names the schema builder should
// have installed against the names actually recorded for the catalog.
func auditConstraints(def *models.Definition, report *AuditReport) {
	expected := []string{
		def.UniqueNameConstraint(),
		def.TenantCheckConstraint(),
	}
	optionNotNull, tenantNotNull, uniqueActive := def.SelectionConstraints()
	expected = append(expected, optionNotNull, tenantNotNull, uniqueActive)

	var missing []string
	for _, name := range expected {
		if !def.HasConstraint(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		report.warnf("%s: expected constraints not installed: %s",
			def.QualifiedName(), strings.Join(missing, ", "))
	}
}

// auditDuplicateDefaults flags active mandatory/optional options sharing a
// name case-insensitively. The unique index should prevent this, so a hit
// means rows predate the index or bypassed it.
func auditDuplicateDefaults(db *gorm.DB, def *models.Definition, report *AuditReport) {
	type duplicate struct {
		Name  string
		Count int64
	}
	var duplicates []duplicate
	err := db.Table(def.OptionTable).
		Select("lower(name) AS name, count(*) AS count").
		Scopes(Active()).
		Where("option_type IN ?", models.DefaultOptionTypes).
		Group("lower(name)").
		Having("count(*) > 1").
		Scan(&duplicates).Error
	if err != nil {
		report.warnf("%s: could not check for duplicate default names: %v", def.QualifiedName(), err)
		return
	}
	for _, dup := range duplicates {
		report.warnf("%s: %d active default options share the name %q",
			def.QualifiedName(), dup.Count, dup.Name)
	}
}

// auditOrphanedSelections flags active selections whose option was
// soft-deleted or removed. Such selections render as stale state in every
// tenant-facing listing.
func auditOrphanedSelections(db *gorm.DB, def *models.Definition, report *AuditReport) {
	var orphaned int64
	err := db.Table(def.SelectionTable+" AS s").
		Joins(fmt.Sprintf("LEFT JOIN %s AS o ON o.id = s.option_id", def.OptionTable)).
		Where("s.deleted IS NULL").
		Where("o.id IS NULL OR o.deleted IS NOT NULL").
		Count(&orphaned).Error
	if err != nil {
		report.warnf("%s: could not check for orphaned selections: %v", def.QualifiedName(), err)
		return
	}
	if orphaned > 0 {
		report.warnf("%s: %d active selections reference deleted or missing options",
			def.QualifiedName(), orphaned)
	}
}
