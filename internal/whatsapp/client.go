package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"wabridge/internal/domain"
)

// ErrNotConfigured reports missing Cloud API credentials.
var ErrNotConfigured = errors.New("whatsapp api credentials not configured")

// ClassifyMedia maps a hosted media link to a payload type by substring, the
// way the provider's link payloads are keyed: "image" or "video" anywhere in
// the URL wins, anything else is sent as a document.
func ClassifyMedia(mediaURL string) domain.MediaType {
	switch {
	case strings.Contains(mediaURL, "image"):
		return domain.MediaImage
	case strings.Contains(mediaURL, "video"):
		return domain.MediaVideo
	default:
		return domain.MediaDocument
	}
}

type SendRequest struct {
	To       string
	Body     string
	MediaURL string
}

type SendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type mediaPayload struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type textPayload struct {
	Body string `json:"body"`
}

// Client talks to the WhatsApp Cloud API for a single business phone id.
type Client struct {
	AccessToken string
	PhoneID     string
	BaseURL     string
	APIVersion  string
	HTTP        *http.Client
}

func (c *Client) Configured() bool {
	return c.AccessToken != "" && c.PhoneID != ""
}

// Send posts one message. Exactly one payload shape goes out: a media payload
// when req.MediaURL is set (caption = body), a text payload otherwise.
// Returns the decoded response, HTTP status and raw body; only status 200
// counts as delivered to the API.
func (c *Client) Send(ctx context.Context, req SendRequest) (SendResponse, int, []byte, error) {
	if !c.Configured() {
		return SendResponse{}, 0, nil, ErrNotConfigured
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                req.To,
	}
	if req.MediaURL != "" {
		mt := string(ClassifyMedia(req.MediaURL))
		payload["type"] = mt
		payload[mt] = mediaPayload{Link: req.MediaURL, Caption: req.Body}
	} else {
		payload["type"] = "text"
		payload["text"] = textPayload{Body: req.Body}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SendResponse{}, 0, nil, err
	}

	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}
	version := c.APIVersion
	if version == "" {
		version = "v18.0"
	}
	endpoint := baseURL + "/" + version + "/" + c.PhoneID + "/messages"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return SendResponse{}, 0, nil, fmt.Errorf("build send request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return SendResponse{}, 0, nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	var out SendResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode != http.StatusOK {
		if out.Error != nil && out.Error.Message != "" {
			return out, resp.StatusCode, raw, errors.New(out.Error.Message)
		}
		return out, resp.StatusCode, raw, errors.New("whatsapp send failed")
	}
	return out, resp.StatusCode, raw, nil
}
