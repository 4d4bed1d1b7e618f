// Package channels provides the HTTP surface for managing an organization's
// outbound notification channels. Webhook URLs are encrypted before they
// reach the database and are never returned by any read endpoint.
package channels

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/agrinote/agrinote/internal/apperror"
	"github.com/agrinote/agrinote/internal/crypto"
	"github.com/agrinote/agrinote/internal/digest"
	"github.com/agrinote/agrinote/internal/models"
	"github.com/agrinote/agrinote/internal/worker"
)

const maskedURL = "********"

// createChannelRequest is the registration body. The webhook URL is validated
// as a URL by the binding and the notification flags against the embedded
// JSON Schema.
type createChannelRequest struct {
	Name          string                 `json:"name" binding:"required,min=1,max=100"`
	WebhookURL    string                 `json:"webhook_url" binding:"required,url"`
	Notifications map[string]interface{} `json:"notifications" binding:"required"`
}

// channelResponse is the read shape: no credential material, masked or
// otherwise derived.
type channelResponse struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Kind          string          `json:"kind"`
	WebhookURL    string          `json:"webhook_url"` // always masked
	Notifications json.RawMessage `json:"notifications"`
	Enabled       bool            `json:"enabled"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toResponse(ch models.Channel) channelResponse {
	return channelResponse{
		ID:            ch.ID,
		Name:          ch.Name,
		Kind:          ch.Kind,
		WebhookURL:    maskedURL,
		Notifications: json.RawMessage(ch.Notifications),
		Enabled:       ch.Enabled,
		CreatedAt:     ch.CreatedAt,
	}
}

// RegisterChannelHandler creates a channel: validates the request, encrypts
// the webhook URL via the vault, and persists the channel.
func RegisterChannelHandler(db *gorm.DB, vault *crypto.Vault) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := loadOrganization(c, db)
		if !ok {
			return
		}

		var req createChannelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if details := apperror.CustomValidationError(err); len(details) > 0 {
				c.JSON(http.StatusBadRequest, gin.H{"errors": details})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := validateNotifications(req.Notifications); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		encrypted, err := vault.Encrypt(c.Request.Context(), req.WebhookURL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encrypt webhook URL"})
			return
		}

		flagsJSON, err := json.Marshal(req.Notifications)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notifications"})
			return
		}

		channel := models.Channel{
			OrganizationID:      org.ID,
			Name:                req.Name,
			Kind:                models.ChannelKindWebhook,
			EncryptedWebhookURL: encrypted,
			Notifications:       datatypes.JSON(flagsJSON),
			Enabled:             true,
		}

		if err := db.WithContext(c.Request.Context()).Create(&channel).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create channel"})
			return
		}

		c.JSON(http.StatusCreated, toResponse(channel))
	}
}

// ListChannelsHandler lists the organization's channels with credentials
// masked.
func ListChannelsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := loadOrganization(c, db)
		if !ok {
			return
		}

		var channels []models.Channel
		err := db.WithContext(c.Request.Context()).
			Where("organization_id = ?", org.ID).
			Order("created_at ASC").
			Find(&channels).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list channels"})
			return
		}

		out := make([]channelResponse, 0, len(channels))
		for _, ch := range channels {
			out = append(out, toResponse(ch))
		}
		c.JSON(http.StatusOK, gin.H{"channels": out})
	}
}

// DeleteChannelHandler removes one of the organization's channels.
func DeleteChannelHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := loadOrganization(c, db)
		if !ok {
			return
		}

		result := db.WithContext(c.Request.Context()).
			Where("organization_id = ?", org.ID).
			Delete(&models.Channel{}, c.Param("id"))
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete channel"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// TestChannelHandler decrypts one channel's credential and sends a small test
// payload so an operator can verify the destination before the nightly run.
func TestChannelHandler(db *gorm.DB, vault *crypto.Vault, sender digest.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := loadOrganization(c, db)
		if !ok {
			return
		}

		var channel models.Channel
		err := db.WithContext(c.Request.Context()).
			Where("organization_id = ?", org.ID).
			First(&channel, c.Param("id")).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}

		webhookURL, err := vault.Decrypt(c.Request.Context(), channel.EncryptedWebhookURL)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "stored credential cannot be decrypted"})
			return
		}

		payload := digest.Payload{
			Title:       "AgriNote test notification",
			Color:       0x43A047,
			Timestamp:   time.Now().UTC(),
			Description: "This channel is set up correctly.",
			Footer:      "AgriNote daily digest",
		}

		if err := sender.Send(c.Request.Context(), webhookURL, payload); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "delivered"})
	}
}

// TriggerDigestHandler enqueues a digest run for the organization on the
// given date (default: today in the organization's timezone). The actual
// dispatch happens on the worker.
func TriggerDigestHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		org, ok := loadOrganization(c, db)
		if !ok {
			return
		}

		date := c.Query("date")
		if date == "" {
			date = time.Now().In(org.Location()).Format("2006-01-02")
		} else if _, err := time.Parse("2006-01-02", date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}

		if err := worker.EnqueueSendDigest(org.ID, date); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue digest"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "enqueued", "date": date})
	}
}

// loadOrganization resolves the :orgID path parameter. On failure it writes
// the error response and returns ok=false.
func loadOrganization(c *gin.Context, db *gorm.DB) (models.Organization, bool) {
	var org models.Organization
	if err := db.WithContext(c.Request.Context()).First(&org, c.Param("orgID")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
		return models.Organization{}, false
	}
	return org, true
}
