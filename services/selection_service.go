package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tenant_options_go/logger"
	"tenant_options_go/models"

	"go.uber.org/zap"
)

// SelectionPolicy carries the configurable selection rules. It is passed in
// explicitly rather than read from a global so hosts can scope policy per
// request or per catalog.
type SelectionPolicy struct {
	// AllowDeleted permits selecting a soft-deleted option. Off by
	// default: selecting a retired option is almost always a stale form
	// submission.
	AllowDeleted bool
}

// SelectOption records that a tenant opted into an option. If an active
// selection already exists it is returned unchanged; otherwise a new row is
// inserted, even when a soft-deleted row for the same pair exists, so that
// selection history is preserved.
func SelectOption(db *gorm.DB, def *models.Definition, tenantID, optionID string, policy SelectionPolicy) (*models.Selection, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: selection requires a tenant", ErrNoTenantProvided)
	}
	if optionID == "" {
		return nil, fmt.Errorf("%w: selection requires an option", ErrInvalidArgument)
	}

	option, err := GetOption(db, def, optionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: option %q does not exist", ErrValidation, optionID)
	}
	if err != nil {
		return nil, err
	}
	if err := validateSelection(db, def, option, tenantID, policy); err != nil {
		return nil, err
	}

	var existing models.Selection
	err = db.Table(def.SelectionTable).
		Where("tenant_id = ? AND option_id = ? AND deleted IS NULL", tenantID, optionID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	selection := models.Selection{TenantID: tenantID, OptionID: optionID}
	if err := db.Table(def.SelectionTable).Create(&selection).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: concurrent selection of option %q: %v", ErrIntegrity, optionID, err)
		}
		return nil, err
	}
	return &selection, nil
}

// validateSelection enforces the rules checked before every selection write:
// the option must be selectable by this tenant (its owner, or tenant-less),
// and must not be soft-deleted unless policy allows it.
func validateSelection(db *gorm.DB, def *models.Definition, option *models.Option, tenantID string, policy SelectionPolicy) error {
	if option.TenantID != nil && *option.TenantID != tenantID {
		return fmt.Errorf("%w: the custom option %q belongs to another tenant and is not available to tenant %q",
			ErrValidation, option.Name, tenantID)
	}
	if !option.IsActive() && !policy.AllowDeleted {
		available, err := OptionsForTenant(db, def, tenantID, false)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: option %q has been deleted; %d active options are available to this tenant",
			ErrValidation, option.Name, len(available))
	}
	return nil
}

// DeselectOption soft-deletes the tenant's active selection of an option.
// Idempotent: deselecting something never selected is a no-op.
func DeselectOption(db *gorm.DB, def *models.Definition, tenantID, optionID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: deselection requires a tenant", ErrNoTenantProvided)
	}
	return db.Table(def.SelectionTable).
		Where("tenant_id = ? AND option_id = ? AND deleted IS NULL", tenantID, optionID).
		Update("deleted", time.Now()).Error
}

// UndeleteSelections clears the deleted marker on every matching selection.
func UndeleteSelections(db *gorm.DB, def *models.Definition, ids ...string) (int64, error) {
	result := db.Table(def.SelectionTable).Where("id IN ?", ids).Update("deleted", nil)
	return result.RowsAffected, result.Error
}

// HardDeleteSelection physically removes a selection row.
func HardDeleteSelection(db *gorm.DB, def *models.Definition, id string) error {
	return db.Table(def.SelectionTable).Where("id = ?", id).Delete(&models.Selection{}).Error
}

// SaveSelections replaces a tenant's selections with the given option set
// in one transaction: active optional/custom selections missing from the
// new set are soft-deleted, new entries are inserted. Mandatory options are
// structurally selected and are ignored here in both directions.
//
// A store-level integrity failure rolls the whole operation back, is logged
// as a warning, and is NOT returned: a selection save races harmlessly with
// concurrent saves and must not abort a user-facing flow. Validation errors
// still propagate.
func SaveSelections(db *gorm.DB, def *models.Definition, tenantID string, optionIDs []string, policy SelectionPolicy) error {
	if tenantID == "" {
		return fmt.Errorf("%w: selections require a tenant", ErrNoTenantProvided)
	}

	desired := map[string]bool{}
	for _, id := range optionIDs {
		desired[id] = true
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		current, err := ActiveSelections(tx, def, tenantID)
		if err != nil {
			return err
		}
		active := map[string]bool{}
		for _, selection := range current {
			active[selection.OptionID] = true
		}

		// Deselect removed options, but never mandatory ones.
		for _, selection := range current {
			if desired[selection.OptionID] {
				continue
			}
			option, err := GetOption(tx, def, selection.OptionID)
			if err != nil {
				return err
			}
			if option.OptionType == models.OptionTypeMandatory {
				continue
			}
			if err := DeselectOption(tx, def, tenantID, selection.OptionID); err != nil {
				return err
			}
		}

		// Select added options. Mandatory options need no selection row.
		for _, id := range optionIDs {
			if active[id] {
				continue
			}
			option, err := GetOption(tx, def, id)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: option %q does not exist", ErrValidation, id)
			}
			if err != nil {
				return err
			}
			if option.OptionType == models.OptionTypeMandatory {
				continue
			}
			if _, err := SelectOption(tx, def, tenantID, id, policy); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil && errors.Is(err, ErrIntegrity) {
		logger.L().Warn("problem creating or deleting selections",
			zap.String("catalog", def.QualifiedName()),
			zap.String("tenant", tenantID),
			zap.Error(err))
		return nil
	}
	return err
}

// SelectionOptionsForTenant resolves the available options for a tenant
// through a selection catalog, mirroring OptionsForTenant on the option side.
func SelectionOptionsForTenant(db *gorm.DB, def *models.Definition, tenantID string, includeDeleted bool) ([]models.Option, error) {
	return OptionsForTenant(db, def, tenantID, includeDeleted)
}

// SelectionSelectedOptionsForTenant resolves the selected options for a
// tenant through a selection catalog.
func SelectionSelectedOptionsForTenant(db *gorm.DB, def *models.Definition, tenantID string, includeDeleted bool) ([]models.Option, error) {
	return SelectedOptionsForTenant(db, def, tenantID, includeDeleted)
}
