package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"wabridge/internal/domain"
	"wabridge/internal/whatsapp"
)

// fakeSender serves a scripted sequence of statuses, one per attempt.
type fakeSender struct {
	statuses   []int
	calls      int
	configured bool
}

func (f *fakeSender) Configured() bool { return f.configured }

func (f *fakeSender) Send(ctx context.Context, req whatsapp.SendRequest) (whatsapp.SendResponse, int, []byte, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	status := f.statuses[idx]
	if status == 200 {
		return whatsapp.SendResponse{}, 200, []byte(`{"messages":[{"id":"wamid.ok"}]}`), nil
	}
	return whatsapp.SendResponse{}, status, []byte(`{"error":{"message":"boom"}}`), errors.New("boom")
}

func TestSendNotConfigured(t *testing.T) {
	d := &Dispatcher{Sender: &fakeSender{}}
	_, err := d.Send(context.Background(), domain.SendMessageRequest{Phone: "1", Message: "x"})
	if !errors.Is(err, whatsapp.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSendRejectsLocalMedia(t *testing.T) {
	d := &Dispatcher{Sender: &fakeSender{configured: true}}
	_, err := d.Send(context.Background(), domain.SendMessageRequest{
		Phone: "1", Message: "x", MediaFile: "/tmp/photo.jpg",
	})
	if !errors.Is(err, ErrMediaUploadUnsupported) {
		t.Fatalf("expected ErrMediaUploadUnsupported, got %v", err)
	}
}

func TestSendRetriesThenExhausts(t *testing.T) {
	sender := &fakeSender{configured: true, statuses: []int{500, 500}}
	d := &Dispatcher{Sender: sender, Attempts: 2}

	start := time.Now()
	_, err := d.Send(context.Background(), domain.SendMessageRequest{Phone: "1", Message: "x"})
	elapsed := time.Since(start)

	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if de.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", de.Attempts)
	}
	if sender.calls != 2 {
		t.Errorf("api calls = %d, want 2", sender.calls)
	}
	if de.LastError == "" {
		t.Errorf("last error payload should be carried")
	}
	// One inter-attempt wait at the default fixed delay.
	if elapsed < 2*time.Second {
		t.Errorf("cumulative delay = %v, want >= 2s", elapsed)
	}
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	sender := &fakeSender{configured: true, statuses: []int{500, 200}}
	d := &Dispatcher{Sender: sender, Attempts: 3, RetryDelay: 10 * time.Millisecond}

	delivery, err := d.Send(context.Background(), domain.SendMessageRequest{Phone: "1", Message: "x"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sender.calls != 2 {
		t.Errorf("api calls = %d, want 2", sender.calls)
	}
	if delivery.MediaURL != "" || delivery.MediaType != "" {
		t.Errorf("text send should carry no media metadata: %+v", delivery)
	}
}

func TestSendFirstTrySucceeds(t *testing.T) {
	sender := &fakeSender{configured: true, statuses: []int{200}}
	d := &Dispatcher{Sender: sender, Attempts: 3, RetryDelay: 10 * time.Millisecond}

	start := time.Now()
	if _, err := d.Send(context.Background(), domain.SendMessageRequest{Phone: "1", Message: "x"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sender.calls != 1 {
		t.Errorf("api calls = %d, want 1", sender.calls)
	}
	if time.Since(start) > time.Second {
		t.Errorf("success should not wait out the retry delay")
	}
}

func TestSendMediaMetadata(t *testing.T) {
	sender := &fakeSender{configured: true, statuses: []int{200}}
	d := &Dispatcher{Sender: sender, Attempts: 1, RetryDelay: 10 * time.Millisecond}

	delivery, err := d.Send(context.Background(), domain.SendMessageRequest{
		Phone: "1", Message: "cap", MediaURL: "https://cdn.example.com/files/report.pdf",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if delivery.MediaType != "document" {
		t.Errorf("media type = %q, want document", delivery.MediaType)
	}
	if delivery.MediaURL != "https://cdn.example.com/files/report.pdf" {
		t.Errorf("media url = %q", delivery.MediaURL)
	}
}

func TestSendContextCanceledDuringWait(t *testing.T) {
	sender := &fakeSender{configured: true, statuses: []int{500, 500}}
	d := &Dispatcher{Sender: sender, Attempts: 2, RetryDelay: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.Send(ctx, domain.SendMessageRequest{Phone: "1", Message: "x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if sender.calls != 1 {
		t.Errorf("api calls = %d, want 1 (second attempt never starts)", sender.calls)
	}
}
