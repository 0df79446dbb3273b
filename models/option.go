package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Option is the row shape shared by every option catalog table. The table a
// given row lives in is decided by the catalog Definition, so queries always
// go through db.Table(def.OptionTable).
//
// Soft deletion is tracked with the nullable Deleted timestamp rather than
// gorm.DeletedAt: deleted rows must stay visible to the query layer
// (include_deleted semantics, undelete) instead of being scoped out globally.
type Option struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name       string     `gorm:"size:100;not null" json:"name"`
	OptionType OptionType `gorm:"size:3;not null;default:do" json:"option_type"`

	// TenantID is set if and only if OptionType is custom.
	TenantID *string `gorm:"type:uuid" json:"tenant_id,omitempty"`

	// Deleted marks the option as soft-deleted. Nil means active.
	Deleted *time.Time `json:"deleted,omitempty"`
}

// BeforeCreate hook to generate UUID
func (o *Option) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// IsActive reports whether the option has not been soft-deleted
func (o *Option) IsActive() bool {
	return o.Deleted == nil
}
