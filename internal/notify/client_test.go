package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agrinote/agrinote/internal/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() digest.Payload {
	return digest.Payload{
		Title:       "Daily Field Report — 2025-06-01 (Sun)",
		Color:       0x43A047,
		Timestamp:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Description: "Entries: 2 / Total: 3 h / Fields: 1",
		Sections: []digest.Section{
			{Name: "Work types", Value: "🌾 harvesting ×2 (3 h)"},
		},
		Footer: "AgriNote daily digest",
		URL:    "https://app.example.com/diaries?date=2025-06-01",
	}
}

func TestClientSendWireFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewClient(0).Send(context.Background(), srv.URL, testPayload())
	require.NoError(t, err)

	embeds, ok := got["embeds"].([]any)
	require.True(t, ok, "body must carry an embeds array")
	require.Len(t, embeds, 1)

	e := embeds[0].(map[string]any)
	assert.Equal(t, "Daily Field Report — 2025-06-01 (Sun)", e["title"])
	assert.Equal(t, float64(0x43A047), e["color"])
	assert.Equal(t, "2025-06-01T00:00:00Z", e["timestamp"])
	assert.Equal(t, "Entries: 2 / Total: 3 h / Fields: 1", e["description"])
	assert.Equal(t, "https://app.example.com/diaries?date=2025-06-01", e["url"])

	fields := e["fields"].([]any)
	require.Len(t, fields, 1)
	field := fields[0].(map[string]any)
	assert.Equal(t, "Work types", field["name"])
	assert.Equal(t, "🌾 harvesting ×2 (3 h)", field["value"])

	footer := e["footer"].(map[string]any)
	assert.Equal(t, "AgriNote daily digest", footer["text"])

	// Thumbnail was not set, so the key is omitted entirely.
	_, hasThumbnail := e["thumbnail"]
	assert.False(t, hasThumbnail)
}

func TestClientSendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown webhook", http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient(0).Send(context.Background(), srv.URL, testPayload())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Contains(t, statusErr.Body, "unknown webhook")
}

func TestClientSendErrorOmitsWebhookURL(t *testing.T) {
	// The request URL is a decrypted credential; a transport failure must
	// not echo it back through the error chain.
	secretPath := "/api/webhooks/123456/secret-token"

	t.Run("unreachable destination", func(t *testing.T) {
		err := NewClient(time.Second).Send(context.Background(),
			"http://127.0.0.1:1"+secretPath, testPayload())
		require.Error(t, err)
		assert.NotContains(t, err.Error(), secretPath)
	})

	t.Run("malformed destination", func(t *testing.T) {
		err := NewClient(time.Second).Send(context.Background(),
			"http://bad host"+secretPath, testPayload())
		require.Error(t, err)
		assert.NotContains(t, err.Error(), secretPath)
	})
}

func TestClientSendUnreachable(t *testing.T) {
	// Grab a port that is guaranteed closed by the time we dial it.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(time.Second).Send(context.Background(), url, testPayload())
	assert.Error(t, err)
}
