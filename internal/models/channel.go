package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Channel kind constants
const (
	ChannelKindWebhook = "webhook"
)

// ChannelNotifications holds the per-channel notification flags stored in the
// Notifications JSONB column.
type ChannelNotifications struct {
	DailyDigest bool `json:"daily_digest"`
}

// Channel represents a configured outbound destination owned by an
// organization. The webhook URL is encrypted at rest; only the dispatch path
// and the registration path ever see the plaintext.
type Channel struct {
	gorm.Model
	OrganizationID      uint           `gorm:"not null;index"`
	Name                string         `gorm:"not null"`
	Kind                string         `gorm:"not null;default:'webhook'"`
	EncryptedWebhookURL string         `gorm:"column:encrypted_webhook_url;type:text;not null"`
	Notifications       datatypes.JSON `gorm:"type:jsonb"`
	Enabled             bool           `gorm:"not null;default:true"`
}

// WantsDailyDigest reports whether this channel is eligible for daily digest
// delivery. Malformed or missing flags mean not eligible.
func (c *Channel) WantsDailyDigest() bool {
	if !c.Enabled || len(c.Notifications) == 0 {
		return false
	}
	var flags ChannelNotifications
	if err := json.Unmarshal(c.Notifications, &flags); err != nil {
		return false
	}
	return flags.DailyDigest
}
