package domain

import "errors"

type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
)

// SendMessageRequest is what the presentation layer submits to send one
// outbound message. MediaFile names a local file and is rejected; only
// externally hosted MediaURL links are supported.
type SendMessageRequest struct {
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	OrderID   int64  `json:"orderId"`
	MediaFile string `json:"mediaFile,omitempty"`
	MediaURL  string `json:"mediaUrl,omitempty"`
}

func (r SendMessageRequest) Validate() error {
	if r.Phone == "" {
		return ErrMissingFields
	}
	if r.Message == "" && r.MediaURL == "" && r.MediaFile == "" {
		return ErrMissingFields
	}
	return nil
}

type BroadcastRequest struct {
	Message  string `json:"message"`
	MediaURL string `json:"mediaUrl,omitempty"`
}

func (r BroadcastRequest) Validate() error {
	if r.Message == "" && r.MediaURL == "" {
		return ErrMissingFields
	}
	return nil
}

var ErrMissingFields = errors.New("missing required fields")

type SendMessageResponse struct {
	MessageID int64  `json:"messageId"`
	MediaURL  string `json:"mediaUrl,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
}

// BroadcastResult reports per-recipient outcomes; a failed recipient never
// aborts the remaining ones.
type BroadcastResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
