package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is the identity boundary options and selections are scoped to.
// Only its primary key matters to this engine; host applications own any
// further attributes.
type Tenant struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name      string `gorm:"size:100;not null" json:"name"`
	Subdomain string `gorm:"size:100;uniqueIndex;not null" json:"subdomain"`
}

// BeforeCreate hook to generate UUID
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Tenant model
func (Tenant) TableName() string {
	return "tenants"
}
