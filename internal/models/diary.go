package models

import (
	"gorm.io/gorm"
)

// Diary represents one work record for one calendar day. Title, work type,
// duration, and author are all optional: a quick note with just a date is a
// valid record.
type Diary struct {
	gorm.Model
	OrganizationID uint   `gorm:"not null;index:idx_diaries_org_date,priority:1"`
	Date           string `gorm:"not null;index:idx_diaries_org_date,priority:2"` // YYYY-MM-DD, the aggregation key
	Title          *string
	WorkType       *string
	DurationHours  *float64
	AuthorID       *uint `gorm:"index"`
	Author         *User `gorm:"foreignKey:AuthorID"`
	Memo           string `gorm:"type:text"`

	// A diary may reference zero, one, or many things.
	Things []Thing `gorm:"many2many:diary_things;constraint:OnDelete:CASCADE;"`
}
