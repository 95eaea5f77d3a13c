// internal/ultramsg/client.go
package ultramsg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SendError carries the upstream failure for the caller to surface.
type SendError struct {
	Status int
	Body   string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("ultramsg: send failed: status=%d body=%s", e.Status, e.Body)
}

// Client talks to the Ultramsg instance API. Credentials are per call, not
// per client, since every tenant carries its own instance and token.
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

// SendText posts a plain chat message.
func (c *Client) SendText(ctx context.Context, instanceID, token, to, body, referenceID string) (map[string]any, error) {
	form := url.Values{"to": {to}, "body": {body}}
	return c.send(ctx, instanceID, token, "chat", form, referenceID)
}

// SendImage posts an image with an optional caption.
func (c *Client) SendImage(ctx context.Context, instanceID, token, to, imageURL, caption, referenceID string) (map[string]any, error) {
	form := url.Values{"to": {to}, "image": {imageURL}, "caption": {caption}}
	return c.send(ctx, instanceID, token, "image", form, referenceID)
}

// SendDocument posts a document link.
func (c *Client) SendDocument(ctx context.Context, instanceID, token, to, documentURL, caption, referenceID string) (map[string]any, error) {
	form := url.Values{"to": {to}, "document": {documentURL}, "caption": {caption}}
	if name := fileNameFromURL(documentURL); name != "" {
		form.Set("filename", name)
	}
	return c.send(ctx, instanceID, token, "document", form, referenceID)
}

// SendAudio posts an audio link. The provider ignores captions on audio.
func (c *Client) SendAudio(ctx context.Context, instanceID, token, to, audioURL, referenceID string) (map[string]any, error) {
	form := url.Values{"to": {to}, "audio": {audioURL}}
	return c.send(ctx, instanceID, token, "audio", form, referenceID)
}

// SendVideo posts a video with an optional caption.
func (c *Client) SendVideo(ctx context.Context, instanceID, token, to, videoURL, caption, referenceID string) (map[string]any, error) {
	form := url.Values{"to": {to}, "video": {videoURL}, "caption": {caption}}
	return c.send(ctx, instanceID, token, "video", form, referenceID)
}

// GetQRCode fetches the pairing QR for an instance. Pure passthrough.
func (c *Client) GetQRCode(ctx context.Context, instanceID, token string) (map[string]any, error) {
	full := fmt.Sprintf("%s/%s/instance/qrCode?token=%s", c.baseURL, url.PathEscape(instanceID), url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("ultramsg: build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) send(ctx context.Context, instanceID, token, kind string, form url.Values, referenceID string) (map[string]any, error) {
	form.Set("token", token)
	if referenceID != "" {
		form.Set("referenceId", referenceID)
	}
	full := fmt.Sprintf("%s/%s/messages/%s", c.baseURL, url.PathEscape(instanceID), kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, full, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ultramsg: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ultramsg: upstream unreachable: %w", err)
	}
	defer resp.Body.Close()
	respBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SendError{Status: resp.StatusCode, Body: string(respBytes)}
	}
	var out map[string]any
	if err := json.Unmarshal(respBytes, &out); err != nil {
		// Some provider endpoints answer with bare text on success.
		return map[string]any{"raw": string(respBytes)}, nil
	}
	return out, nil
}

func fileNameFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
