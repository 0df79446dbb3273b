package services

import (
	"gorm.io/gorm"

	"tenant_options_go/models"
)

// Composable predicates over option and selection tables. They are plain
// gorm scopes so callers can stack them: db.Table(t).Scopes(Active(), CustomOptions()).

// Active keeps rows that have not been soft-deleted
func Active() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("deleted IS NULL")
	}
}

// Deleted keeps rows that have been soft-deleted
func Deleted() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("deleted IS NOT NULL")
	}
}

// CustomOptions keeps tenant-authored options only
func CustomOptions() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("option_type = ?", models.OptionTypeCustom)
	}
}

// ActiveOptions returns all non-deleted options in a catalog, sorted by name.
func ActiveOptions(db *gorm.DB, def *models.Definition) ([]models.Option, error) {
	var options []models.Option
	err := db.Table(def.OptionTable).Scopes(Active()).Order("name ASC").Find(&options).Error
	return options, err
}

// DeletedOptions returns all soft-deleted options in a catalog.
func DeletedOptions(db *gorm.DB, def *models.Definition) ([]models.Option, error) {
	var options []models.Option
	err := db.Table(def.OptionTable).Scopes(Deleted()).Order("name ASC").Find(&options).Error
	return options, err
}

// ActiveCustomOptions returns the non-deleted custom options in a catalog.
func ActiveCustomOptions(db *gorm.DB, def *models.Definition) ([]models.Option, error) {
	var options []models.Option
	err := db.Table(def.OptionTable).Scopes(Active(), CustomOptions()).Order("name ASC").Find(&options).Error
	return options, err
}

// OptionsForTenant returns every option available to a tenant: all
// mandatory and optional defaults plus the custom options the tenant owns.
// Deleted options are excluded unless includeDeleted is set.
func OptionsForTenant(db *gorm.DB, def *models.Definition, tenantID string, includeDeleted bool) ([]models.Option, error) {
	query := db.Table(def.OptionTable).Where(
		db.Where("option_type IN ?", []models.OptionType{models.OptionTypeMandatory, models.OptionTypeOptional}).
			Or("option_type = ? AND tenant_id = ?", models.OptionTypeCustom, tenantID),
	)
	if !includeDeleted {
		query = query.Scopes(Active())
	}

	var options []models.Option
	err := query.Order("name ASC").Find(&options).Error
	return options, err
}

// SelectedOptionsForTenant returns the options in force for a tenant:
// every mandatory default, unconditionally, plus the optional and
// tenant-owned custom options that have an active selection row.
//
// Mandatory options bypass the selection join entirely: they are
// structurally guaranteed and appear selected even when no selection row
// exists for them.
func SelectedOptionsForTenant(db *gorm.DB, def *models.Definition, tenantID string, includeDeleted bool) ([]models.Option, error) {
	selectedIDs := db.Table(def.SelectionTable).
		Select("option_id").
		Where("tenant_id = ? AND deleted IS NULL", tenantID)

	selectable := db.Where("option_type = ?", models.OptionTypeOptional).
		Or("option_type = ? AND tenant_id = ?", models.OptionTypeCustom, tenantID)

	query := db.Table(def.OptionTable).Where(
		db.Where("option_type = ?", models.OptionTypeMandatory).
			Or(db.Where("id IN (?)", selectedIDs).Where(selectable)),
	)
	if !includeDeleted {
		query = query.Scopes(Active())
	}

	var options []models.Option
	err := query.Order("name ASC").Find(&options).Error
	return options, err
}

// GetOption loads one option by id, regardless of deletion state.
func GetOption(db *gorm.DB, def *models.Definition, id string) (*models.Option, error) {
	var option models.Option
	if err := db.Table(def.OptionTable).Where("id = ?", id).First(&option).Error; err != nil {
		return nil, err
	}
	return &option, nil
}

// ActiveSelections returns the non-deleted selections for a tenant.
func ActiveSelections(db *gorm.DB, def *models.Definition, tenantID string) ([]models.Selection, error) {
	var selections []models.Selection
	err := db.Table(def.SelectionTable).
		Scopes(Active()).
		Where("tenant_id = ?", tenantID).
		Find(&selections).Error
	return selections, err
}
