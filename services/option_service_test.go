package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tenant_options_go/models"
)

func TestCreateOptionValidation(t *testing.T) {
	gdb, def := setupCatalogTestDB()
	createTestTenant(gdb, "tenant-a", "alpha")
	createTestTenant(gdb, "tenant-b", "beta")
	seedDefaults(gdb, def)

	t.Run("CustomRequiresTenant", func(t *testing.T) {
		_, err := CreateForTenant(gdb, def, "", "Orphan")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("CustomCannotShadowDefaultName", func(t *testing.T) {
		_, err := CreateForTenant(gdb, def, "tenant-a", "Feature")
		assert.ErrorIs(t, err, ErrValidation)

		// Case-insensitive.
		_, err = CreateForTenant(gdb, def, "tenant-a", "feature")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("DuplicateActiveNameSameTenant", func(t *testing.T) {
		_, err := CreateForTenant(gdb, def, "tenant-a", "Design Review")
		assert.NoError(t, err)

		_, err = CreateForTenant(gdb, def, "tenant-a", "design review")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("SameNameAllowedAcrossTenants", func(t *testing.T) {
		_, err := CreateForTenant(gdb, def, "tenant-b", "Design Review")
		assert.NoError(t, err)
	})

	t.Run("DuplicateDefaultName", func(t *testing.T) {
		_, err := CreateOptional(gdb, def, "Feature")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("NameReusableAfterSoftDelete", func(t *testing.T) {
		option, err := CreateForTenant(gdb, def, "tenant-a", "Retro")
		assert.NoError(t, err)
		assert.NoError(t, SoftDeleteOption(gdb, def, option.ID))

		_, err = CreateForTenant(gdb, def, "tenant-a", "Retro")
		assert.NoError(t, err)
	})
}

func TestOptionLifecycle(t *testing.T) {
	gdb, def := setupCatalogTestDB()
	createTestTenant(gdb, "tenant-a", "alpha")

	option, err := CreateForTenant(gdb, def, "tenant-a", "Design Review")
	assert.NoError(t, err)
	assert.NotEmpty(t, option.ID)

	t.Run("SoftDeleteIsIdempotent", func(t *testing.T) {
		assert.NoError(t, SoftDeleteOption(gdb, def, option.ID))

		first, err := GetOption(gdb, def, option.ID)
		assert.NoError(t, err)
		assert.False(t, first.IsActive())

		assert.NoError(t, SoftDeleteOption(gdb, def, option.ID))
		second, err := GetOption(gdb, def, option.ID)
		assert.NoError(t, err)
		assert.Equal(t, first.Deleted.UnixNano(), second.Deleted.UnixNano())
	})

	t.Run("UndeleteKeepsPrimaryKey", func(t *testing.T) {
		assert.NoError(t, UndeleteOption(gdb, def, option.ID))

		restored, err := GetOption(gdb, def, option.ID)
		assert.NoError(t, err)
		assert.True(t, restored.IsActive())
		assert.Equal(t, option.ID, restored.ID)
	})

	t.Run("UndeleteManyReportsCount", func(t *testing.T) {
		other, err := CreateForTenant(gdb, def, "tenant-a", "Retro")
		assert.NoError(t, err)
		assert.NoError(t, SoftDeleteOption(gdb, def, option.ID))
		assert.NoError(t, SoftDeleteOption(gdb, def, other.ID))

		restored, err := UndeleteOptions(gdb, def, option.ID, other.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), restored)
	})
}

func TestHardDeleteOption(t *testing.T) {
	gdb, def := setupCatalogTestDB()
	createTestTenant(gdb, "tenant-a", "alpha")

	option, err := CreateForTenant(gdb, def, "tenant-a", "Design Review")
	assert.NoError(t, err)
	selection, err := SelectOption(gdb, def, "tenant-a", option.ID, SelectionPolicy{})
	assert.NoError(t, err)

	t.Run("SoftDeleteDoesNotCascade", func(t *testing.T) {
		assert.NoError(t, SoftDeleteOption(gdb, def, option.ID))

		var row models.Selection
		assert.NoError(t, gdb.Table(def.SelectionTable).Where("id = ?", selection.ID).First(&row).Error)
		assert.True(t, row.IsActive())
	})

	assert.NoError(t, HardDeleteOption(gdb, def, option.ID))

	t.Run("RowIsGone", func(t *testing.T) {
		_, err := GetOption(gdb, def, option.ID)
		assert.Error(t, err)
	})

	t.Run("SelectionsRemovedWithOption", func(t *testing.T) {
		var count int64
		gdb.Table(def.SelectionTable).Where("id = ?", selection.ID).Count(&count)
		assert.Equal(t, int64(0), count)
	})
}

func TestSyncDefaultOptions(t *testing.T) {
	gdb, def := setupCatalogTestDB()

	t.Run("FirstRunCreatesAll", func(t *testing.T) {
		actions, err := SyncDefaultOptions(gdb, def)
		assert.NoError(t, err)
		assert.Equal(t, SyncCreated, actions["Bug"])
		assert.Equal(t, SyncCreated, actions["Feature"])
		assert.Equal(t, SyncCreated, actions["Chore"])
	})

	t.Run("RepeatRunsAreIdempotent", func(t *testing.T) {
		second, err := SyncDefaultOptions(gdb, def)
		assert.NoError(t, err)
		third, err := SyncDefaultOptions(gdb, def)
		assert.NoError(t, err)
		assert.Equal(t, second, third)
		for name, action := range second {
			assert.Equal(t, SyncVerified, action, name)
		}
	})

	t.Run("RemovedDefaultIsRetired", func(t *testing.T) {
		delete(def.DefaultOptions, "Chore")

		actions, err := SyncDefaultOptions(gdb, def)
		assert.NoError(t, err)
		assert.Equal(t, SyncDeleted, actions["Chore"])

		deleted, err := DeletedOptions(gdb, def)
		assert.NoError(t, err)
		assert.Equal(t, []string{"Chore"}, optionNames(deleted))
	})

	t.Run("RestoredDefaultIsUndeleted", func(t *testing.T) {
		def.DefaultOptions["Chore"] = models.OptionTypeOptional

		actions, err := SyncDefaultOptions(gdb, def)
		assert.NoError(t, err)
		assert.Equal(t, SyncVerified, actions["Chore"])

		deleted, err := DeletedOptions(gdb, def)
		assert.NoError(t, err)
		assert.Empty(t, deleted)
	})

	t.Run("CustomOptionsUntouched", func(t *testing.T) {
		createTestTenant(gdb, "tenant-a", "alpha")
		custom, err := CreateForTenant(gdb, def, "tenant-a", "Design Review")
		assert.NoError(t, err)

		actions, err := SyncDefaultOptions(gdb, def)
		assert.NoError(t, err)
		assert.NotContains(t, actions, "Design Review")

		fetched, err := GetOption(gdb, def, custom.ID)
		assert.NoError(t, err)
		assert.True(t, fetched.IsActive())
	})

	t.Run("NameCollisionSurfacesAsIntegrity", func(t *testing.T) {
		// An active row holding a declared default's name under a different
		// type is not found by the (name, type) upsert lookup, so the
		// create hits the unique name index.
		assert.NoError(t, gdb.Exec(
			"INSERT INTO "+def.OptionTable+" (id, name, option_type) VALUES (?, ?, ?)",
			"clash-1", "Launchpad", "do",
		).Error)
		def.DefaultOptions["Launchpad"] = models.OptionTypeMandatory
		defer func() {
			delete(def.DefaultOptions, "Launchpad")
			gdb.Exec("DELETE FROM " + def.OptionTable + " WHERE id = 'clash-1'")
		}()

		_, err := SyncDefaultOptions(gdb, def)
		assert.ErrorIs(t, err, ErrIntegrity)
	})

	t.Run("RejectsNonDefaultType", func(t *testing.T) {
		def.DefaultOptions["Rogue"] = models.OptionTypeCustom
		defer delete(def.DefaultOptions, "Rogue")

		_, err := SyncDefaultOptions(gdb, def)
		assert.ErrorIs(t, err, ErrInvalidDefaultOption)
	})
}
