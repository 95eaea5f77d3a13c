// internal/highlevel/client.go
package highlevel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CallError carries a CRM API failure for the caller to surface.
type CallError struct {
	Status int
	Body   string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("highlevel: call failed: status=%d body=%s", e.Status, e.Body)
}

// Client talks to the GoHighLevel REST API. The api key is per call since
// each sub-account authenticates with its own key.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// FindOrCreateContactByPhone creates the contact and returns its id. A
// duplicate-contact rejection embeds the existing contact id in the error
// metadata; that is a success, not a failure.
func (c *Client) FindOrCreateContactByPhone(ctx context.Context, apiKey, phone, locationID string) (string, error) {
	payload := map[string]any{"phone": phone}
	if locationID != "" {
		payload["locationId"] = locationID
	}
	out, err := c.call(ctx, apiKey, http.MethodPost, "/v1/contacts/", payload)
	if err != nil {
		var callErr *CallError
		if errors.As(err, &callErr) {
			if id := duplicateContactID(callErr.Body); id != "" {
				return id, nil
			}
		}
		return "", err
	}
	if id := contactIDFrom(out); id != "" {
		return id, nil
	}
	return "", &CallError{Status: http.StatusOK, Body: "contact id missing from response"}
}

// EnsureConversation returns an open conversation id for the contact,
// creating one when none exists.
func (c *Client) EnsureConversation(ctx context.Context, apiKey, contactID, locationID string) (string, error) {
	out, err := c.call(ctx, apiKey, http.MethodGet, "/v1/conversations/?contactId="+url.QueryEscape(contactID), nil)
	if err == nil {
		if convs, ok := out["conversations"].([]any); ok && len(convs) > 0 {
			if m, ok := convs[0].(map[string]any); ok {
				if id, ok := m["id"].(string); ok && id != "" {
					return id, nil
				}
			}
		}
	}
	payload := map[string]any{"contactId": contactID}
	if locationID != "" {
		payload["locationId"] = locationID
	}
	out, err = c.call(ctx, apiKey, http.MethodPost, "/v1/conversations/", payload)
	if err != nil {
		return "", err
	}
	if id, ok := out["id"].(string); ok && id != "" {
		return id, nil
	}
	return "", &CallError{Status: http.StatusOK, Body: "conversation id missing from response"}
}

// CreateConversationMessage posts a message into the contact's conversation
// thread and returns the CRM message id. When a location id is supplied the
// conversation is resolved (or created) first.
func (c *Client) CreateConversationMessage(ctx context.Context, apiKey, contactID, text string, mediaURLs []string, channelType, locationID string) (string, error) {
	payload := map[string]any{
		"contactId": contactID,
		"type":      channelType,
	}
	if locationID != "" {
		convID, err := c.EnsureConversation(ctx, apiKey, contactID, locationID)
		if err != nil {
			return "", err
		}
		payload["conversationId"] = convID
	}
	if text != "" {
		payload["message"] = text
	}
	if len(mediaURLs) > 0 {
		payload["attachments"] = mediaURLs
	}
	out, err := c.call(ctx, apiKey, http.MethodPost, "/v1/conversations/messages", payload)
	if err != nil {
		return "", err
	}
	for _, key := range []string{"messageId", "id"} {
		if id, ok := out[key].(string); ok && id != "" {
			return id, nil
		}
	}
	return "", &CallError{Status: http.StatusOK, Body: "message id missing from response"}
}

// UpdateMessageStatus relays a provider delivery/read event onto the CRM
// message.
func (c *Client) UpdateMessageStatus(ctx context.Context, apiKey, crmMessageID, status string) error {
	path := "/v1/conversations/messages/" + url.PathEscape(crmMessageID) + "/status"
	_, err := c.call(ctx, apiKey, http.MethodPut, path, map[string]any{"status": status})
	return err
}

// AddTags attaches tags to a contact.
func (c *Client) AddTags(ctx context.Context, apiKey, contactID string, tags []string) error {
	path := "/v1/contacts/" + url.PathEscape(contactID) + "/tags"
	_, err := c.call(ctx, apiKey, http.MethodPost, path, map[string]any{"tags": tags})
	return err
}

// RemoveTags detaches tags from a contact.
func (c *Client) RemoveTags(ctx context.Context, apiKey, contactID string, tags []string) error {
	path := "/v1/contacts/" + url.PathEscape(contactID) + "/tags"
	_, err := c.call(ctx, apiKey, http.MethodDelete, path, map[string]any{"tags": tags})
	return err
}

func (c *Client) call(ctx context.Context, apiKey, method, path string, payload map[string]any) (map[string]any, error) {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("highlevel: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("highlevel: upstream unreachable: %w", err)
	}
	defer resp.Body.Close()
	respBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &CallError{Status: resp.StatusCode, Body: string(respBytes)}
	}
	var out map[string]any
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return map[string]any{}, nil
	}
	return out, nil
}

// duplicateContactID digs the existing contact id out of a duplicate-contact
// rejection body. The id has been observed both at the top level and nested
// inside per-field error metadata.
func duplicateContactID(body string) string {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return ""
	}
	if id, ok := parsed["contactId"].(string); ok && id != "" {
		return id
	}
	for _, v := range parsed {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := m["contactId"].(string); ok && id != "" {
			return id
		}
		if meta, ok := m["meta"].(map[string]any); ok {
			if id, ok := meta["contactId"].(string); ok && id != "" {
				return id
			}
		}
	}
	return ""
}

func contactIDFrom(out map[string]any) string {
	if contact, ok := out["contact"].(map[string]any); ok {
		if id, ok := contact["id"].(string); ok && id != "" {
			return id
		}
	}
	if id, ok := out["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
