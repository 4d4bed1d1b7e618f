package models

import (
	"gorm.io/gorm"
)

// User represents a member of an organization who can author diaries.
type User struct {
	gorm.Model
	Email          string `gorm:"uniqueIndex:idx_users_email_not_deleted,where:deleted_at IS NULL;not null"`
	Name           string `gorm:"not null;default:''"`
	OrganizationID uint   `gorm:"not null;index"`
	Organization   Organization
}
