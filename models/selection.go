package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Selection records that a tenant has opted into an optional or custom
// option. Like Option, the concrete table comes from the catalog Definition.
//
// Selections are historical: deselecting soft-deletes the row, and selecting
// again later inserts a new row instead of resurrecting the old one.
type Selection struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TenantID string `gorm:"type:uuid;not null" json:"tenant_id"`
	OptionID string `gorm:"type:uuid;not null" json:"option_id"`

	// Deleted marks the selection as soft-deleted. Nil means active.
	Deleted *time.Time `json:"deleted,omitempty"`
}

// BeforeCreate hook to generate UUID
func (s *Selection) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// IsActive reports whether the selection has not been soft-deleted
func (s *Selection) IsActive() bool {
	return s.Deleted == nil
}
