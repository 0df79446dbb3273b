package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gorm.io/gorm"

	"tenant_options_go/db"
	"tenant_options_go/dialect"
	"tenant_options_go/models"
)

// TriggerInfo identifies one trigger found in migration history.
type TriggerInfo struct {
	TriggerName   string
	MigrationFile string
	Model         string
	App           string
}

// dropTriggerRe extracts trigger identifiers from previously generated
// migration content.
var dropTriggerRe = regexp.MustCompile(`DROP TRIGGER IF EXISTS ([^;]+);`)

// TriggerRemover scans migration files for triggers created by the
// generator and emits consolidated removal migrations, one per app.
type TriggerRemover struct {
	DB           *gorm.DB
	Vendor       string
	MigrationDir string

	DryRun      bool
	Interactive bool
	Verbose     bool
	// Verify checks that each trigger actually exists in the live
	// database before including it in the removal migration.
	Verify bool

	Out io.Writer
	In  io.Reader
}

// NewTriggerRemover prepares a remover for the given vendor and directory.
func NewTriggerRemover(gdb *gorm.DB, vendor, migrationDir string) (*TriggerRemover, error) {
	normalized, err := normalizeTriggerVendor(vendor)
	if err != nil {
		return nil, err
	}
	return &TriggerRemover{
		DB:           gdb,
		Vendor:       normalized,
		MigrationDir: migrationDir,
		Out:          os.Stdout,
		In:           os.Stdin,
	}, nil
}

// FindTriggersForModel scans the app's migration files whose names match
// the model's generated-trigger naming and collects every dropped trigger
// identifier they mention.
func (r *TriggerRemover) FindTriggersForModel(app, model string) ([]TriggerInfo, error) {
	appDir := filepath.Join(r.MigrationDir, app)
	matches, err := filepath.Glob(filepath.Join(appDir, "*.sql"))
	if err != nil {
		return nil, err
	}

	namePattern := "auto_trigger_" + strings.ToLower(model)
	seen := map[string]bool{}
	var triggers []TriggerInfo

	for _, path := range matches {
		if !strings.Contains(filepath.Base(path), namePattern) {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		for _, match := range dropTriggerRe.FindAllStringSubmatch(string(content), -1) {
			name := normalizeTriggerIdentifier(match[1])
			key := name + "|" + path
			if seen[key] {
				continue
			}
			seen[key] = true
			triggers = append(triggers, TriggerInfo{
				TriggerName:   name,
				MigrationFile: path,
				Model:         model,
				App:           app,
			})
		}
	}
	return triggers, nil
}

// normalizeTriggerIdentifier strips quoting and the postgres "ON table"
// suffix from a captured DROP TRIGGER target.
func normalizeTriggerIdentifier(raw string) string {
	name := strings.TrimSpace(raw)
	if idx := strings.Index(strings.ToUpper(name), " ON "); idx >= 0 {
		name = name[:idx]
	}
	return strings.Trim(name, "`\" ")
}

// Remove finds the triggers for the given catalogs and writes one removal
// migration per app. The reverse migration is a no-op: dropping a trigger
// has no meaningful undo SQL.
func (r *TriggerRemover) Remove(defs []*models.Definition) error {
	byApp := map[string][]TriggerInfo{}
	for _, def := range defs {
		triggers, err := r.FindTriggersForModel(def.App, def.SelectionModel)
		if err != nil {
			return err
		}
		byApp[def.App] = append(byApp[def.App], triggers...)
	}

	total := 0
	for _, triggers := range byApp {
		total += len(triggers)
	}
	if total == 0 {
		fmt.Fprintln(r.Out, "No triggers found to remove.")
		return nil
	}

	apps := make([]string, 0, len(byApp))
	for app := range byApp {
		apps = append(apps, app)
	}
	sort.Strings(apps)

	for _, app := range apps {
		if len(byApp[app]) == 0 {
			continue
		}
		if err := r.createRemovalMigration(app, byApp[app]); err != nil {
			return err
		}
	}
	return nil
}

func (r *TriggerRemover) createRemovalMigration(app string, triggers []TriggerInfo) error {
	names := uniqueTriggerNames(triggers)

	if r.Verify && r.DB != nil {
		kept := names[:0]
		for _, name := range names {
			exists, err := TriggerExistsInDatabase(r.DB, r.Vendor, name)
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintf(r.Out, "Trigger '%s' not found in database. Skipping...\n", name)
				continue
			}
			kept = append(kept, name)
		}
		names = kept
		if len(names) == 0 {
			fmt.Fprintf(r.Out, "No existing triggers to remove for app '%s'.\n", app)
			return nil
		}
	}

	lastMigration := r.lastMigration(app)
	migrationName := nextMigrationName(lastMigration, "remove_triggers")
	upPath := filepath.Join(r.MigrationDir, app, migrationName+".up.sql")
	downPath := filepath.Join(r.MigrationDir, app, migrationName+".down.sql")

	if r.DryRun {
		fmt.Fprintf(r.Out, "[DRY RUN] Would create migration: %s\n", upPath)
		if r.Verbose {
			fmt.Fprintf(r.Out, "[DRY RUN] Would remove triggers: %s\n", strings.Join(names, ", "))
		}
		return nil
	}

	if r.Interactive {
		prompt := fmt.Sprintf("\nWill remove the following triggers from %s:\n  %s\nProceed? (y/n): ",
			app, strings.Join(names, "\n  "))
		if !confirm(r.In, r.Out, prompt) {
			fmt.Fprintf(r.Out, "Migration creation for app '%s' skipped by user.\n", app)
			return nil
		}
	}

	var drops []string
	tableByTrigger := selectionTableByTrigger(triggers, r.Vendor)
	for _, name := range names {
		table := tableByTrigger[name]
		// Postgres drops are table-scoped; a name no registered catalog
		// re-derives (e.g. generated under another vendor's truncation)
		// cannot be dropped safely, so it is skipped rather than emitted
		// as malformed SQL.
		if r.Vendor == dialect.Postgres && table == "" {
			fmt.Fprintf(r.Out, "Trigger '%s' does not match any registered catalog. Skipping...\n", name)
			continue
		}
		drops = append(drops, DropTriggerSQL(r.Vendor, name, table))
	}
	if len(drops) == 0 {
		fmt.Fprintf(r.Out, "No removable triggers for app '%s'.\n", app)
		return nil
	}
	upContent := migrationHeader(app, lastMigration) + strings.Join(drops, "\n") + "\n"
	downContent := migrationHeader(app, lastMigration) +
		"-- No reverse operation: dropping a trigger has no meaningful undo.\n"

	if err := os.MkdirAll(filepath.Dir(upPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(upPath, []byte(upContent), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(downPath, []byte(downContent), 0o644); err != nil {
		return err
	}

	fmt.Fprintf(r.Out, "Created migration: %s\n", upPath)
	return nil
}

func (r *TriggerRemover) lastMigration(app string) string {
	if r.DB != nil {
		if name, err := db.LastMigration(r.DB, app); err == nil && name != "" {
			if diskName := latestMigrationOnDisk(filepath.Join(r.MigrationDir, app)); migrationNumber(diskName) > migrationNumber(name) {
				return diskName
			}
			return name
		}
	}
	return latestMigrationOnDisk(filepath.Join(r.MigrationDir, app))
}

func uniqueTriggerNames(triggers []TriggerInfo) []string {
	seen := map[string]bool{}
	var names []string
	for _, trigger := range triggers {
		if !seen[trigger.TriggerName] {
			seen[trigger.TriggerName] = true
			names = append(names, trigger.TriggerName)
		}
	}
	sort.Strings(names)
	return names
}

// selectionTableByTrigger recovers, per trigger name, the selection table
// it guards by re-deriving trigger names from registered catalogs. Needed
// only for the postgres table-scoped DROP syntax; unknown names map to "".
func selectionTableByTrigger(triggers []TriggerInfo, vendor string) map[string]string {
	tables := map[string]string{}
	for _, def := range models.Catalogs() {
		if name, err := TriggerName(def.SelectionTable, vendor); err == nil {
			tables[name] = def.SelectionTable
		}
	}
	result := map[string]string{}
	for _, trigger := range triggers {
		result[trigger.TriggerName] = tables[trigger.TriggerName]
	}
	return result
}

// TriggerExistsInDatabase checks the live database for a trigger by name.
func TriggerExistsInDatabase(gdb *gorm.DB, vendor, name string) (bool, error) {
	var count int64
	var err error
	switch vendor {
	case dialect.SQLite:
		err = gdb.Raw("SELECT count(*) FROM sqlite_master WHERE type = 'trigger' AND name = ?", name).Scan(&count).Error
	case dialect.Postgres:
		err = gdb.Raw("SELECT count(*) FROM pg_trigger WHERE tgname = ?", strings.ToLower(name)).Scan(&count).Error
	case dialect.MySQL:
		err = gdb.Raw("SELECT count(*) FROM information_schema.triggers WHERE trigger_name = ?", name).Scan(&count).Error
	default:
		return false, fmt.Errorf("cannot verify triggers for vendor %q", vendor)
	}
	return count > 0, err
}
