package models

import (
	"gorm.io/gorm"
)

// Thing kind constants
const (
	ThingKindField      = "field"
	ThingKindGreenhouse = "greenhouse"
)

// Thing represents a managed plot: an open field or a greenhouse that diary
// entries can reference.
type Thing struct {
	gorm.Model
	OrganizationID uint   `gorm:"not null;index"`
	Name           string `gorm:"not null"`
	Kind           string `gorm:"not null;default:'field'"` // enum: 'field' or 'greenhouse'
	AreaSqm        *float64
	Memo           string `gorm:"type:text"`
}
