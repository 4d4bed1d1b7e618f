package channels

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agrinote/agrinote/internal/crypto"
	"github.com/agrinote/agrinote/internal/models"
)

const testWebhookURL = "https://hooks.example.com/T123/secret-token"

func setupHandlerTest(t *testing.T) (*gorm.DB, *crypto.Vault, models.Organization) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Organization{}, &models.Channel{}))

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	vault, err := crypto.NewVault(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)

	org := models.Organization{Name: "Test Farm", Slug: "test-farm", Timezone: "UTC"}
	require.NoError(t, db.Create(&org).Error)

	return db, vault, org
}

func channelRouter(db *gorm.DB, vault *crypto.Vault) *gin.Engine {
	r := gin.New()
	r.POST("/api/orgs/:orgID/channels", RegisterChannelHandler(db, vault))
	r.GET("/api/orgs/:orgID/channels", ListChannelsHandler(db))
	r.DELETE("/api/orgs/:orgID/channels/:id", DeleteChannelHandler(db))
	return r
}

func registerBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"name":          "Field alerts",
		"webhook_url":   testWebhookURL,
		"notifications": map[string]any{"daily_digest": true},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestRegisterChannelEncryptsAtRest(t *testing.T) {
	db, vault, org := setupHandlerTest(t)
	router := channelRouter(db, vault)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/orgs/%d/channels", org.ID), registerBody(t))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The response never echoes the plaintext URL.
	assert.NotContains(t, w.Body.String(), testWebhookURL)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, maskedURL, resp["webhook_url"])

	// At rest the URL is ciphertext that only the vault can recover.
	var stored models.Channel
	require.NoError(t, db.Where("organization_id = ?", org.ID).First(&stored).Error)
	assert.NotEqual(t, testWebhookURL, stored.EncryptedWebhookURL)
	assert.NotContains(t, stored.EncryptedWebhookURL, "secret-token")

	plaintext, err := vault.Decrypt(req.Context(), stored.EncryptedWebhookURL)
	require.NoError(t, err)
	assert.Equal(t, testWebhookURL, plaintext)
}

func TestRegisterChannelRejectsBadFlags(t *testing.T) {
	db, vault, org := setupHandlerTest(t)
	router := channelRouter(db, vault)

	body, err := json.Marshal(map[string]any{
		"name":          "Field alerts",
		"webhook_url":   testWebhookURL,
		"notifications": map[string]any{"daily_digest": "yes"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/orgs/%d/channels", org.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Channel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListChannelsMasksCredentials(t *testing.T) {
	db, vault, org := setupHandlerTest(t)
	router := channelRouter(db, vault)

	create := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/orgs/%d/channels", org.ID), registerBody(t))
	create.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	list := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/orgs/%d/channels", org.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, list)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), testWebhookURL)

	var resp struct {
		Channels []struct {
			Name       string `json:"name"`
			WebhookURL string `json:"webhook_url"`
		} `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Channels, 1)
	assert.Equal(t, "Field alerts", resp.Channels[0].Name)
	assert.Equal(t, maskedURL, resp.Channels[0].WebhookURL)
}

func TestDeleteChannel(t *testing.T) {
	db, vault, org := setupHandlerTest(t)
	router := channelRouter(db, vault)

	create := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/orgs/%d/channels", org.ID), registerBody(t))
	create.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, create)
	require.Equal(t, http.StatusCreated, w.Code)

	var stored models.Channel
	require.NoError(t, db.Where("organization_id = ?", org.ID).First(&stored).Error)

	del := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/orgs/%d/channels/%d", org.ID, stored.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, del)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Deleting again is a 404.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/orgs/%d/channels/%d", org.ID, stored.ID), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
