package models

import (
	"time"

	"gorm.io/gorm"
)

// Organization represents a tenant: a farm or farming company whose members
// keep diaries against its things (fields and greenhouses).
type Organization struct {
	gorm.Model
	Name     string `gorm:"not null"`
	Slug     string `gorm:"uniqueIndex:idx_organizations_slug_not_deleted,where:deleted_at IS NULL;not null"`
	Timezone string `gorm:"not null;default:'UTC'"` // IANA name, used for digest rendering and scheduling

	// Associations
	Things   []Thing   `gorm:"constraint:OnDelete:CASCADE;"`
	Diaries  []Diary   `gorm:"constraint:OnDelete:CASCADE;"`
	Channels []Channel `gorm:"constraint:OnDelete:CASCADE;"`
}

// Location resolves the organization's timezone, falling back to UTC when the
// stored name is empty or invalid.
func (o *Organization) Location() *time.Location {
	if o.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
