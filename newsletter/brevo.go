// Package newsletter talks to the Brevo REST API: contact subscription for
// the mailing list and one email campaign per published post.
package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const defaultAPIBase = "https://api.brevo.com/v3"

type Client struct {
	apiKey      string
	listID      int
	senderEmail string
	siteBaseURL string
	apiBase     string
	httpClient  *http.Client
}

// PostData carries the fields of a published post that the announcement
// email needs.
type PostData struct {
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	PublishDate time.Time `json:"publishDate,omitempty"`
}

// Stats mirrors Brevo's list statistics.
type Stats struct {
	TotalSubscribers  int `json:"totalSubscribers"`
	TotalBlacklisted  int `json:"totalBlacklisted"`
	UniqueSubscribers int `json:"uniqueSubscribers"`
}

func NewClient(apiKey string, listID int, senderEmail, siteBaseURL string) *Client {
	return &Client{
		apiKey:      apiKey,
		listID:      listID,
		senderEmail: senderEmail,
		siteBaseURL: siteBaseURL,
		apiBase:     defaultAPIBase,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SetAPIBase overrides the Brevo endpoint. Used by tests.
func (c *Client) SetAPIBase(base string) {
	c.apiBase = base
}

// Subscribe adds a contact to the mailing list. An already-subscribed
// address is treated as success.
func (c *Client) Subscribe(ctx context.Context, email, firstName string) error {
	payload := map[string]interface{}{
		"email":         email,
		"attributes":    map[string]string{"FIRSTNAME": firstName},
		"listIds":       []int{c.listID},
		"updateEnabled": true,
	}

	status, body, err := c.do(ctx, http.MethodPost, "/contacts", payload)
	if err != nil {
		return err
	}
	if status >= 200 && status < 300 {
		log.Printf("Newsletter subscription added: %s", email)
		return nil
	}
	if status == http.StatusBadRequest && bytes.Contains(body, []byte("duplicate")) {
		log.Printf("Newsletter subscription already exists: %s", email)
		return nil
	}
	return fmt.Errorf("brevo contact creation returned %d: %s", status, body)
}

// SendPostCampaign creates an email campaign announcing the post and sends
// it immediately. Returns the campaign id.
func (c *Client) SendPostCampaign(ctx context.Context, post PostData) (int64, error) {
	payload := map[string]interface{}{
		"name":        fmt.Sprintf("Blog Post: %s", post.Title),
		"subject":     fmt.Sprintf("Yeni Blog Yazısı: %s", post.Title),
		"sender":      map[string]string{"name": "No Life Anime", "email": c.senderEmail},
		"htmlContent": c.renderPostEmail(post),
		"recipients":  map[string][]int{"listIds": {c.listID}},
	}

	status, body, err := c.do(ctx, http.MethodPost, "/emailCampaigns", payload)
	if err != nil {
		return 0, err
	}
	if status < 200 || status >= 300 {
		return 0, fmt.Errorf("brevo campaign creation returned %d: %s", status, body)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, fmt.Errorf("brevo campaign response: %w", err)
	}

	status, body, err = c.do(ctx, http.MethodPost, fmt.Sprintf("/emailCampaigns/%d/sendNow", created.ID), nil)
	if err != nil {
		return created.ID, err
	}
	if status < 200 || status >= 300 {
		return created.ID, fmt.Errorf("brevo campaign send returned %d: %s", status, body)
	}

	log.Printf("Newsletter campaign %d sent for post %q", created.ID, post.Title)
	return created.ID, nil
}

// ListStats fetches subscription statistics for the configured list.
func (c *Client) ListStats(ctx context.Context) (*Stats, error) {
	status, body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/contacts/lists/%d", c.listID), nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("brevo list lookup returned %d: %s", status, body)
	}

	var stats Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("brevo list response: %w", err)
	}
	return &stats, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
