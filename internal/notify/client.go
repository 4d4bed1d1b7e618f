package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agrinote/agrinote/internal/digest"
)

// StatusError reports a destination that answered with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.Code, e.Body)
}

// Client posts digest payloads to webhook destinations. It implements
// digest.Sender.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a webhook client with the given per-request timeout.
// A zero timeout falls back to 15 seconds so one unresponsive destination
// cannot stall a settle-all fan-out indefinitely.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send serializes the payload into the chat-webhook embed format and POSTs it
// to webhookURL. The URL is a decrypted credential and must never appear in
// errors or logs; failures reference only the destination's response.
func (c *Client) Send(ctx context.Context, webhookURL string, p digest.Payload) error {
	body, err := json.Marshal(webhookBody{Embeds: []embed{toEmbed(p)}})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", stripRequestURL(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", stripRequestURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	return nil
}

// stripRequestURL drops the *url.Error wrapper net/http puts around
// transport failures: its message embeds the full request URL, which here is
// the decrypted credential. Only the inner cause may surface.
func stripRequestURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func toEmbed(p digest.Payload) embed {
	e := embed{
		Title:       p.Title,
		Color:       p.Color,
		Timestamp:   p.Timestamp.Format(time.RFC3339),
		Description: p.Description,
		URL:         p.URL,
	}
	for _, s := range p.Sections {
		e.Fields = append(e.Fields, embedField{Name: s.Name, Value: s.Value, Inline: s.Inline})
	}
	if p.Footer != "" {
		e.Footer = &embedFooter{Text: p.Footer}
	}
	if p.ThumbnailURL != "" {
		e.Thumbnail = &embedMedia{URL: p.ThumbnailURL}
	}
	return e
}
