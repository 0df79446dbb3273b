package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"tenant_options_go/logger"
	"tenant_options_go/models"

	"go.uber.org/zap"
)

// SyncAction describes what SyncDefaultOptions did with one option name.
type SyncAction string

const (
	SyncCreated  SyncAction = "created"
	SyncVerified SyncAction = "verified"
	SyncDeleted  SyncAction = "deleted"
)

// CreateMandatory creates a tenant-less mandatory option.
func CreateMandatory(db *gorm.DB, def *models.Definition, name string) (*models.Option, error) {
	return createOption(db, def, &models.Option{Name: name, OptionType: models.OptionTypeMandatory})
}

// CreateOptional creates a tenant-less optional option.
func CreateOptional(db *gorm.DB, def *models.Definition, name string) (*models.Option, error) {
	return createOption(db, def, &models.Option{Name: name, OptionType: models.OptionTypeOptional})
}

// CreateForTenant creates a custom option owned by the given tenant.
func CreateForTenant(db *gorm.DB, def *models.Definition, tenantID, name string) (*models.Option, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: CreateForTenant requires a tenant", ErrInvalidArgument)
	}
	return createOption(db, def, &models.Option{Name: name, OptionType: models.OptionTypeCustom, TenantID: &tenantID})
}

func createOption(db *gorm.DB, def *models.Definition, option *models.Option) (*models.Option, error) {
	if err := validateOption(db, def, option); err != nil {
		return nil, err
	}
	if err := db.Table(def.OptionTable).Create(option).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: option name %q already exists: %v", ErrIntegrity, option.Name, err)
		}
		return nil, err
	}
	return option, nil
}

// validateOption enforces the invariants checked before every option write:
// the option_type/tenant pairing, the rule that custom options may not
// shadow default names, and active-name uniqueness within the tenant scope.
// The database constraints back these up for writes that bypass the
// repository.
func validateOption(db *gorm.DB, def *models.Definition, option *models.Option) error {
	if !option.OptionType.Valid() {
		return fmt.Errorf("%w: unknown option type %q", ErrValidation, option.OptionType)
	}
	if option.OptionType == models.OptionTypeCustom && option.TenantID == nil {
		return fmt.Errorf("%w: custom options must belong to a tenant", ErrValidation)
	}
	if option.OptionType.IsDefault() && option.TenantID != nil {
		return fmt.Errorf("%w: %s options cannot belong to a tenant", ErrValidation, option.OptionType.Label())
	}

	if option.OptionType == models.OptionTypeCustom {
		var shadowed int64
		err := db.Table(def.OptionTable).
			Where("lower(name) = lower(?)", option.Name).
			Where("option_type IN ?", models.DefaultOptionTypes).
			Count(&shadowed).Error
		if err != nil {
			return err
		}
		if shadowed > 0 {
			return fmt.Errorf("%w: a custom option cannot have the same name as a mandatory or optional option", ErrValidation)
		}
	}

	// Active-name uniqueness within the option's tenant scope. NULL tenant
	// is a scope of its own.
	duplicates := db.Table(def.OptionTable).
		Scopes(Active()).
		Where("lower(name) = lower(?)", option.Name).
		Where("id <> ?", option.ID)
	if option.TenantID != nil {
		duplicates = duplicates.Where("tenant_id = ?", *option.TenantID)
	} else {
		duplicates = duplicates.Where("tenant_id IS NULL")
	}
	var count int64
	if err := duplicates.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: an active option named %q already exists in this scope", ErrValidation, option.Name)
	}
	return nil
}

// SoftDeleteOption marks an option as deleted. Idempotent: an already
// deleted option is left untouched. Selections referencing the option are
// NOT touched; they keep working as historical state.
func SoftDeleteOption(db *gorm.DB, def *models.Definition, id string) error {
	return db.Table(def.OptionTable).
		Where("id = ? AND deleted IS NULL", id).
		Update("deleted", time.Now()).Error
}

// UndeleteOption clears the deleted marker on one option.
func UndeleteOption(db *gorm.DB, def *models.Definition, id string) error {
	return db.Table(def.OptionTable).Where("id = ?", id).Update("deleted", nil).Error
}

// UndeleteOptions clears the deleted marker on every matching option and
// returns the number of rows restored.
func UndeleteOptions(db *gorm.DB, def *models.Definition, ids ...string) (int64, error) {
	result := db.Table(def.OptionTable).Where("id IN ?", ids).Update("deleted", nil)
	return result.RowsAffected, result.Error
}

// HardDeleteOption physically removes an option row together with every
// selection referencing it, in one transaction. Selections survive an
// option's soft delete as history, but not the removal of their foreign
// key target.
func HardDeleteOption(db *gorm.DB, def *models.Definition, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		err := tx.Table(def.SelectionTable).
			Where("option_id = ?", id).
			Delete(&models.Selection{}).Error
		if err != nil {
			return err
		}
		return tx.Table(def.OptionTable).Where("id = ?", id).Delete(&models.Option{}).Error
	})
}

// SyncDefaultOptions reconciles storage with the catalog's static
// default-options table:
//
//   - every declared default is upserted by (name, option_type) and
//     undeleted if it had been retired
//   - a declared default whose type is not mandatory or optional fails the
//     sync with ErrInvalidDefaultOption
//   - every active mandatory/optional option whose name is no longer
//     declared is soft-deleted
//
// The returned map records the action taken per option name. Running the
// sync again without changing the defaults is a no-op (all "verified").
func SyncDefaultOptions(db *gorm.DB, def *models.Definition) (map[string]SyncAction, error) {
	names := make([]string, 0, len(def.DefaultOptions))
	for name := range def.DefaultOptions {
		names = append(names, name)
	}
	sort.Strings(names)

	actions := map[string]SyncAction{}
	for _, name := range names {
		optionType := def.DefaultOptions[name]
		if !optionType.IsDefault() {
			return nil, fmt.Errorf("%w: defaults must be mandatory or optional, got option_type = %q for %q",
				ErrInvalidDefaultOption, optionType, name)
		}

		var existing models.Option
		err := db.Table(def.OptionTable).
			Where("name = ? AND option_type = ?", name, optionType).
			First(&existing).Error
		switch {
		case err == nil:
			if !existing.IsActive() {
				if err := UndeleteOption(db, def, existing.ID); err != nil {
					return nil, err
				}
			}
			actions[name] = SyncVerified
		case errors.Is(err, gorm.ErrRecordNotFound):
			option := models.Option{Name: name, OptionType: optionType}
			if err := db.Table(def.OptionTable).Create(&option).Error; err != nil {
				if isUniqueViolation(err) {
					return nil, fmt.Errorf("%w: default option %q collides with an existing active name: %v",
						ErrIntegrity, name, err)
				}
				return nil, err
			}
			actions[name] = SyncCreated
		default:
			return nil, err
		}
	}

	// Retire defaults that are no longer declared.
	var retired []models.Option
	query := db.Table(def.OptionTable).
		Scopes(Active()).
		Where("option_type IN ?", models.DefaultOptionTypes)
	if len(names) > 0 {
		query = query.Where("name NOT IN ?", names)
	}
	if err := query.Find(&retired).Error; err != nil {
		return nil, err
	}
	for _, option := range retired {
		if err := SoftDeleteOption(db, def, option.ID); err != nil {
			return nil, err
		}
		actions[option.Name] = SyncDeleted
	}

	logger.L().Debug("synchronized default options",
		zap.String("catalog", def.QualifiedName()),
		zap.Int("declared", len(names)),
		zap.Int("retired", len(retired)))
	return actions, nil
}
