// Package notify delivers digest payloads to chat-webhook destinations.
package notify

// webhookBody is the wire envelope the destination expects.
type webhookBody struct {
	Embeds []embed `json:"embeds"`
}

// embed is one rich message block in the chat-webhook JSON format.
type embed struct {
	Title       string       `json:"title"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Description string       `json:"description"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
	URL         string       `json:"url,omitempty"`
	Thumbnail   *embedMedia  `json:"thumbnail,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embedMedia struct {
	URL string `json:"url"`
}
