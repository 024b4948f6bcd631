package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"wabridge/internal/domain"
	"wabridge/internal/observability"
	"wabridge/internal/whatsapp"
)

// ErrMediaUploadUnsupported rejects local file uploads; only externally
// hosted media links are accepted.
var ErrMediaUploadUnsupported = errors.New("media upload not implemented, use a hosted media url")

// DeliveryError reports retry exhaustion, carrying the last error payload
// observed from the API.
type DeliveryError struct {
	Attempts  int
	LastError string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to send message after %d attempts: %s", e.Attempts, e.LastError)
}

// Delivery is the metadata a successful send hands back to the caller, who
// owns persisting the sent message.
type Delivery struct {
	MediaURL  string
	MediaType string
}

type Sender interface {
	Configured() bool
	Send(ctx context.Context, req whatsapp.SendRequest) (whatsapp.SendResponse, int, []byte, error)
}

// Dispatcher sends one outbound message with bounded retries. Every failed
// attempt waits a fixed delay and retries; transient and permanent failures
// are deliberately not distinguished.
type Dispatcher struct {
	Sender     Sender
	Attempts   int
	RetryDelay time.Duration
	Limiter    *rate.Limiter
}

const (
	defaultAttempts   = 3
	defaultRetryDelay = 2 * time.Second
)

func (d *Dispatcher) Send(ctx context.Context, req domain.SendMessageRequest) (Delivery, error) {
	if !d.Sender.Configured() {
		return Delivery{}, whatsapp.ErrNotConfigured
	}
	if req.MediaFile != "" {
		return Delivery{}, ErrMediaUploadUnsupported
	}

	var delivery Delivery
	if req.MediaURL != "" {
		delivery = Delivery{MediaURL: req.MediaURL, MediaType: string(whatsapp.ClassifyMedia(req.MediaURL))}
	}

	attempts := d.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	delay := d.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var lastErr string
	for attempt := 1; attempt <= attempts; attempt++ {
		if d.Limiter != nil {
			if err := d.Limiter.Wait(ctx); err != nil {
				return Delivery{}, err
			}
		}

		start := time.Now()
		_, status, raw, err := d.Sender.Send(ctx, whatsapp.SendRequest{
			To:       req.Phone,
			Body:     req.Message,
			MediaURL: req.MediaURL,
		})
		observability.WASendLatency.Observe(time.Since(start).Seconds())

		if err == nil && status == 200 {
			observability.WASend.WithLabelValues("ok", strconv.Itoa(status)).Inc()
			return delivery, nil
		}

		observability.WASend.WithLabelValues("error", strconv.Itoa(status)).Inc()
		if len(raw) > 0 {
			lastErr = string(raw)
		} else if err != nil {
			lastErr = err.Error()
		} else {
			lastErr = "unexpected status " + strconv.Itoa(status)
		}

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return Delivery{}, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return Delivery{}, &DeliveryError{Attempts: attempts, LastError: lastErr}
}
