package models

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Definition binds one option catalog to its concrete tables. It replaces
// runtime discovery of concrete types: each catalog is declared explicitly
// and registered once at startup.
type Definition struct {
	// App groups catalogs the way migration directories are grouped.
	App string
	// OptionModel and SelectionModel are the logical type names used in
	// constraint names, migration file names and operator output.
	OptionModel    string
	SelectionModel string

	OptionTable    string
	SelectionTable string
	TenantTable    string

	// DefaultOptions is the static catalog of mandatory/optional defaults
	// synchronized into storage by SyncDefaultOptions.
	DefaultOptions map[string]OptionType

	// Constraints holds the names of the database constraints the schema
	// builder installed for this catalog. The auditor checks expected
	// names against this set.
	Constraints []string
}

// QualifiedName returns the "app.OptionModel" identifier for the catalog.
func (d *Definition) QualifiedName() string {
	return d.App + "." + d.OptionModel
}

// optionIdent returns the lowercased option model identifier used in
// synthesized constraint names.
func (d *Definition) optionIdent() string {
	return strings.ToLower(d.OptionModel)
}

func (d *Definition) selectionIdent() string {
	return strings.ToLower(d.SelectionModel)
}

// UniqueNameConstraint is the expected name of the case-insensitive unique
// index over option names.
func (d *Definition) UniqueNameConstraint() string {
	return fmt.Sprintf("%s_%s_unique_name", d.App, d.optionIdent())
}

// TenantCheckConstraint is the expected name of the check constraint
// enforcing the option_type/tenant pairing.
func (d *Definition) TenantCheckConstraint() string {
	return fmt.Sprintf("%s_%s_tenant_check", d.App, d.optionIdent())
}

// SelectionConstraints returns the expected constraint names on the
// selection table: option_not_null, tenant_not_null, unique_active_selection.
func (d *Definition) SelectionConstraints() (optionNotNull, tenantNotNull, uniqueActive string) {
	optionNotNull = fmt.Sprintf("%s_%s_option_not_null", d.App, d.selectionIdent())
	tenantNotNull = fmt.Sprintf("%s_%s_tenant_not_null", d.App, d.selectionIdent())
	uniqueActive = fmt.Sprintf("%s_%s_unique_active_selection", d.App, d.selectionIdent())
	return
}

// HasConstraint reports whether the schema builder declared the named
// constraint for this catalog.
func (d *Definition) HasConstraint(name string) bool {
	for _, c := range d.Constraints {
		if c == name {
			return true
		}
	}
	return false
}

// addConstraint records a declared constraint name, once.
func (d *Definition) addConstraint(name string) {
	if !d.HasConstraint(name) {
		d.Constraints = append(d.Constraints, name)
	}
}

// Validate checks that the definition names everything the engine needs.
func (d *Definition) Validate() error {
	switch {
	case d.App == "":
		return fmt.Errorf("catalog definition is missing an app label")
	case d.OptionModel == "":
		return fmt.Errorf("catalog definition in app %q is missing an option model name", d.App)
	case d.SelectionModel == "":
		return fmt.Errorf("%s: selection model name not set", d.QualifiedName())
	case d.OptionTable == "":
		return fmt.Errorf("%s: option table not set", d.QualifiedName())
	case d.SelectionTable == "":
		return fmt.Errorf("%s: selection table not set", d.QualifiedName())
	case d.TenantTable == "":
		return fmt.Errorf("%s: tenant table not set", d.QualifiedName())
	}
	for name, optionType := range d.DefaultOptions {
		if !optionType.IsDefault() {
			return fmt.Errorf("%s: default option %q has invalid type %q", d.QualifiedName(), name, optionType)
		}
	}
	return nil
}

// registry is the process-wide set of registered catalogs. Explicit
// Register/Reset lifecycle, no reflection.
type registry struct {
	mu     sync.RWMutex
	byName map[string]*Definition
	tables map[string]string // table name -> catalog that claimed it
}

var catalogs = &registry{
	byName: map[string]*Definition{},
	tables: map[string]string{},
}

// Register adds a catalog definition. It fails if the definition is
// incomplete, if the qualified name was already registered, or if another
// catalog already claimed one of its tables.
func Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	catalogs.mu.Lock()
	defer catalogs.mu.Unlock()

	name := def.QualifiedName()
	if _, exists := catalogs.byName[name]; exists {
		return fmt.Errorf("catalog %s is already registered", name)
	}
	for _, table := range []string{def.OptionTable, def.SelectionTable} {
		if owner, claimed := catalogs.tables[table]; claimed {
			return fmt.Errorf("table %q is already registered by catalog %s", table, owner)
		}
	}

	catalogs.byName[name] = def
	catalogs.tables[def.OptionTable] = name
	catalogs.tables[def.SelectionTable] = name
	return nil
}

// MustRegister registers a catalog and panics on error. Intended for
// startup wiring where a bad definition is a programming error.
func MustRegister(def *Definition) {
	if err := Register(def); err != nil {
		panic(err)
	}
}

// Catalogs returns all registered definitions sorted by qualified name.
func Catalogs() []*Definition {
	catalogs.mu.RLock()
	defer catalogs.mu.RUnlock()

	defs := make([]*Definition, 0, len(catalogs.byName))
	for _, def := range catalogs.byName {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].QualifiedName() < defs[j].QualifiedName()
	})
	return defs
}

// CatalogsForApp returns the registered definitions for one app label.
func CatalogsForApp(app string) []*Definition {
	var defs []*Definition
	for _, def := range Catalogs() {
		if def.App == app {
			defs = append(defs, def)
		}
	}
	return defs
}

// Lookup finds a catalog by qualified name ("app.OptionModel"). The
// selection model name is accepted too, since operator commands address
// triggers by selection model.
func Lookup(qualified string) (*Definition, bool) {
	catalogs.mu.RLock()
	defer catalogs.mu.RUnlock()

	if def, ok := catalogs.byName[qualified]; ok {
		return def, true
	}
	for _, def := range catalogs.byName {
		if def.App+"."+def.SelectionModel == qualified {
			return def, true
		}
	}
	return nil, false
}

// FilterCatalogs resolves the catalogs addressed by an app label and/or a
// qualified model name. Empty filters match everything; when both are set
// the named catalog must belong to the app.
func FilterCatalogs(app, qualified string) ([]*Definition, error) {
	if qualified != "" {
		def, ok := Lookup(qualified)
		if !ok {
			return nil, fmt.Errorf("unknown catalog %q", qualified)
		}
		if app != "" && def.App != app {
			return nil, fmt.Errorf("catalog %q does not belong to app %q", qualified, app)
		}
		return []*Definition{def}, nil
	}
	if app != "" {
		defs := CatalogsForApp(app)
		if len(defs) == 0 {
			return nil, fmt.Errorf("no catalogs registered for app %q", app)
		}
		return defs, nil
	}
	return Catalogs(), nil
}

// ResetRegistry clears all registered catalogs. Used by tests and by hosts
// that re-register on reload.
func ResetRegistry() {
	catalogs.mu.Lock()
	defer catalogs.mu.Unlock()
	catalogs.byName = map[string]*Definition{}
	catalogs.tables = map[string]string{}
}
