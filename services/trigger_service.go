package services

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"tenant_options_go/db"
	"tenant_options_go/dialect"
	"tenant_options_go/models"
)

// The trigger subsystem derives, per selection table, a BEFORE INSERT
// trigger that rejects rows whose tenant does not match the tenant of the
// referenced option. The triggers hold even when application validation is
// bypassed by bulk operations or raw SQL.
//
// Trigger installation is expressed as migration artifacts: a pair of
// {name}.up.sql / {name}.down.sql files under {migration-dir}/{app},
// chained to the app's previous migration.

// identifierRe matches safe SQL identifiers: alphanumerics, underscores and
// dots for schema-qualified names.
var identifierRe = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

// ValidateIdentifier reports whether the identifier is safe to interpolate
// into generated SQL.
func ValidateIdentifier(identifier string) bool {
	return identifier != "" && identifierRe.MatchString(identifier)
}

// QuoteIdentifier quotes an identifier, keeping schema qualification.
func QuoteIdentifier(identifier string) (string, error) {
	return quoteIdentifierWith(identifier, `"`)
}

func quoteIdentifierWith(identifier, quote string) (string, error) {
	if !ValidateIdentifier(identifier) {
		return "", fmt.Errorf("invalid identifier %q: only alphanumeric characters, underscores, and dots are allowed", identifier)
	}
	parts := strings.Split(identifier, ".")
	for i, part := range parts {
		parts[i] = quote + part + quote
	}
	return strings.Join(parts, "."), nil
}

// TriggerName derives the deterministic trigger name for a selection table:
// {table}_tenant_check_{sha1(table+"_tenant_check")[:10]}, re-prefixed with
// a letter if it would start with a digit or underscore, and truncated to
// the vendor's identifier limit minus the hash suffix.
func TriggerName(table, vendor string) (string, error) {
	maxLength := dialect.MaxIdentifierLength(vendor)

	cleaned := strings.NewReplacer(`"`, "", ".", "_").Replace(table)
	if !ValidateIdentifier(cleaned) {
		return "", fmt.Errorf("invalid table name %q: only alphanumeric characters, underscores, and dots are allowed", table)
	}

	base := cleaned + "_tenant_check"
	sum := sha1.Sum([]byte(base))
	hash := hex.EncodeToString(sum[:])[:10]

	// Trigger names must start with a letter.
	if base[0] == '_' || (base[0] >= '0' && base[0] <= '9') {
		base = "t" + base[:len(base)-1]
	}

	limit := maxLength - len(hash) - 1
	if len(base) > limit {
		base = base[:limit]
	}
	name := base + "_" + hash

	if !ValidateIdentifier(name) {
		return "", fmt.Errorf("generated trigger name %q contains invalid characters", name)
	}
	return name, nil
}

// TriggerSQL generates the vendor-specific trigger creating the tenant
// consistency check on a selection table. The subquery resolves the tenant
// of the referenced option from the catalog's option table.
func TriggerSQL(vendor, triggerName, selectionTable, optionTable string) (string, error) {
	vendor, err := normalizeTriggerVendor(vendor)
	if err != nil {
		return "", err
	}

	quote := `"`
	if vendor == dialect.MySQL {
		quote = "`"
	}
	trigger, err := quoteIdentifierWith(triggerName, quote)
	if err != nil {
		return "", err
	}
	selection, err := quoteIdentifierWith(selectionTable, quote)
	if err != nil {
		return "", err
	}
	option, err := quoteIdentifierWith(optionTable, quote)
	if err != nil {
		return "", err
	}

	switch vendor {
	case dialect.SQLite:
		return fmt.Sprintf(`DROP TRIGGER IF EXISTS %s;
CREATE TRIGGER %s
BEFORE INSERT ON %s
FOR EACH ROW
WHEN NEW.tenant_id != (SELECT tenant_id FROM %s WHERE id = NEW.option_id)
BEGIN
	SELECT RAISE(FAIL, 'Tenant mismatch between options and selections');
END;`, trigger, trigger, selection, option), nil

	case dialect.Postgres:
		function, err := quoteIdentifierWith(triggerName+"_func", quote)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s()
RETURNS TRIGGER AS $$
BEGIN
	IF NEW.tenant_id != (SELECT tenant_id FROM %s WHERE id = NEW.option_id) THEN
		RAISE EXCEPTION 'Tenant mismatch between options and selections';
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS %s ON %s;
CREATE TRIGGER %s
BEFORE INSERT ON %s
FOR EACH ROW
EXECUTE FUNCTION %s();`, function, option, trigger, selection, trigger, selection, function), nil

	case dialect.MySQL:
		return fmt.Sprintf(`DROP TRIGGER IF EXISTS %s;
CREATE TRIGGER %s
BEFORE INSERT ON %s
FOR EACH ROW
BEGIN
	DECLARE option_tenant_id CHAR(36);
	SELECT tenant_id INTO option_tenant_id FROM %s WHERE id = NEW.option_id;

	IF NEW.tenant_id != option_tenant_id THEN
		SIGNAL SQLSTATE '45000'
		SET MESSAGE_TEXT = 'Tenant mismatch between options and selections';
	END IF;
END;`, trigger, trigger, selection, option), nil

	case dialect.Oracle:
		return fmt.Sprintf(`CREATE OR REPLACE TRIGGER %s
BEFORE INSERT ON %s
FOR EACH ROW
DECLARE
	option_tenant_id VARCHAR2(36);
BEGIN
	SELECT tenant_id INTO option_tenant_id FROM %s WHERE id = :NEW.option_id;

	IF :NEW.tenant_id != option_tenant_id THEN
		RAISE_APPLICATION_ERROR(-20001, 'Tenant mismatch between options and selections');
	END IF;
END;`, trigger, selection, option), nil
	}

	return "", fmt.Errorf("unsupported database vendor: %q", vendor)
}

// DropTriggerSQL generates the statement removing a trigger. Postgres
// triggers are table-scoped and keep a companion function to drop.
func DropTriggerSQL(vendor, triggerName, selectionTable string) string {
	if vendor == dialect.Postgres {
		return fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s;\nDROP FUNCTION IF EXISTS %s_func;",
			triggerName, selectionTable, triggerName)
	}
	return fmt.Sprintf("DROP TRIGGER IF EXISTS %s;", triggerName)
}

// normalizeTriggerVendor accepts the vendors trigger SQL can be generated
// for, which includes oracle even though no connection driver exists for it.
func normalizeTriggerVendor(vendor string) (string, error) {
	if vendor == dialect.Oracle {
		return dialect.Oracle, nil
	}
	return dialect.Normalize(vendor)
}

// TriggerGenerator creates trigger migrations for selection tables.
type TriggerGenerator struct {
	DB           *gorm.DB
	Vendor       string
	MigrationDir string

	Force       bool
	DryRun      bool
	Interactive bool
	Verbose     bool

	Out io.Writer
	In  io.Reader

	// lastGenerated chains consecutive migrations produced in one run.
	lastGenerated map[string]string
}

// NewTriggerGenerator validates the vendor and prepares a generator.
func NewTriggerGenerator(gdb *gorm.DB, vendor, migrationDir string) (*TriggerGenerator, error) {
	normalized, err := normalizeTriggerVendor(vendor)
	if err != nil {
		return nil, err
	}
	return &TriggerGenerator{
		DB:            gdb,
		Vendor:        normalized,
		MigrationDir:  migrationDir,
		Out:           os.Stdout,
		In:            os.Stdin,
		lastGenerated: map[string]string{},
	}, nil
}

// Generate produces the trigger migration for one catalog. Unless forced,
// generation is skipped when the trigger name is already present in the
// app's migration history (applied records or on-disk files).
func (g *TriggerGenerator) Generate(def *models.Definition) error {
	triggerName, err := TriggerName(def.SelectionTable, g.Vendor)
	if err != nil {
		return err
	}

	if g.Verbose {
		fmt.Fprintf(g.Out, "\nProcessing model: '%s' in app: '%s' with table: '%s'\n",
			def.SelectionModel, def.App, def.SelectionTable)
	}

	if !g.Force {
		if existing := g.triggerExists(def.App, triggerName); existing != "" {
			if g.Verbose {
				fmt.Fprintf(g.Out, "Skipping trigger creation for model '%s', which already exists at:\n\t%s\n",
					def.SelectionModel, existing)
			} else {
				fmt.Fprintf(g.Out, "Trigger '%s' for model '%s' already exists. Skipping...\n",
					triggerName, def.SelectionModel)
			}
			return nil
		}
	}

	lastMigration := g.lastMigration(def.App)
	migrationName := nextMigrationName(lastMigration, "auto_trigger_"+strings.ToLower(def.SelectionModel))
	upPath := filepath.Join(g.MigrationDir, def.App, migrationName+".up.sql")
	downPath := filepath.Join(g.MigrationDir, def.App, migrationName+".down.sql")

	triggerSQL, err := TriggerSQL(g.Vendor, triggerName, def.SelectionTable, def.OptionTable)
	if err != nil {
		return err
	}
	upContent := migrationHeader(def.App, lastMigration) + triggerSQL + "\n"
	downContent := migrationHeader(def.App, lastMigration) + DropTriggerSQL(g.Vendor, triggerName, def.SelectionTable) + "\n"

	if g.DryRun {
		fmt.Fprintf(g.Out, "[DRY RUN] Migration would be created: %s\n", upPath)
		if g.Verbose {
			fmt.Fprintf(g.Out, "[DRY RUN] Migration content:\n%s", upContent)
		}
		return nil
	}

	if g.Interactive && !confirm(g.In, g.Out, fmt.Sprintf("Do you want to create a migration for %s? (y/n): ", def.SelectionModel)) {
		fmt.Fprintf(g.Out, "Migration creation for %s skipped by user.\n", def.SelectionModel)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(upPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(upPath, []byte(upContent), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(downPath, []byte(downContent), 0o644); err != nil {
		return err
	}
	g.lastGenerated[def.App] = migrationName

	fmt.Fprintf(g.Out, "Migration created: %s\n", upPath)
	return nil
}

// lastMigration resolves the most recent migration name for an app,
// preferring migrations generated earlier in this run, then applied
// records, then on-disk files.
func (g *TriggerGenerator) lastMigration(app string) string {
	if name, ok := g.lastGenerated[app]; ok {
		return name
	}
	if g.DB != nil {
		if name, err := db.LastMigration(g.DB, app); err == nil && name != "" {
			if diskName := latestMigrationOnDisk(filepath.Join(g.MigrationDir, app)); migrationNumber(diskName) > migrationNumber(name) {
				return diskName
			}
			return name
		}
	}
	return latestMigrationOnDisk(filepath.Join(g.MigrationDir, app))
}

// triggerExists scans migration history for the trigger name: first the
// recorded (applied) migrations, then every on-disk migration file for the
// app. Returns the file that contains the trigger, or "".
func (g *TriggerGenerator) triggerExists(app, triggerName string) string {
	appDir := filepath.Join(g.MigrationDir, app)

	if g.DB != nil {
		if records, err := db.MigrationsForApp(g.DB, app); err == nil {
			for _, record := range records {
				path := filepath.Join(appDir, record.Name+".up.sql")
				if g.Verbose {
					fmt.Fprintf(g.Out, "Checking migration file for trigger %s: %s\n", triggerName, path)
				}
				if fileContains(path, triggerName) {
					return path
				}
			}
		}
	}

	matches, _ := filepath.Glob(filepath.Join(appDir, "*.up.sql"))
	for _, path := range matches {
		if fileContains(path, triggerName) {
			return path
		}
	}
	return ""
}

func fileContains(path, needle string) bool {
	content, err := os.ReadFile(path)
	return err == nil && strings.Contains(string(content), needle)
}

// migrationNumberRe captures the zero-padded sequence prefix of a
// migration name.
var migrationNumberRe = regexp.MustCompile(`^(\d+)_`)

func migrationNumber(name string) int {
	match := migrationNumberRe.FindStringSubmatch(name)
	if match == nil {
		return 0
	}
	n, _ := strconv.Atoi(match[1])
	return n
}

// nextMigrationName numbers the new migration after its predecessor, or
// leaves it unnumbered when the app has no numbered history.
func nextMigrationName(lastMigration, suffix string) string {
	if lastMigration != "" {
		if n := migrationNumber(lastMigration); n > 0 || migrationNumberRe.MatchString(lastMigration) {
			return fmt.Sprintf("%04d_%s", n+1, suffix)
		}
	}
	return suffix
}

// latestMigrationOnDisk returns the highest-numbered migration base name in
// a directory, or "" when none exist.
func latestMigrationOnDisk(dir string) string {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	best := ""
	bestNumber := -1
	for _, path := range matches {
		name := strings.TrimSuffix(filepath.Base(path), ".up.sql")
		if n := migrationNumber(name); n > bestNumber {
			best = name
			bestNumber = n
		}
	}
	return best
}

func migrationHeader(app, lastMigration string) string {
	header := fmt.Sprintf("-- Generated by tenant-options on %s\n", time.Now().Format("2006-01-02 15:04"))
	if lastMigration != "" {
		header += fmt.Sprintf("-- depends on: %s/%s\n", app, lastMigration)
	}
	return header + "\n"
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	reader := bufio.NewReader(in)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
