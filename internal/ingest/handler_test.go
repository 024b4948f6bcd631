package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"wabridge/internal/store"
	"wabridge/internal/store/sqlite"
)

func newTestHandler(t *testing.T) (*Handler, *sqlite.Store) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := sqlite.New(db)
	return &Handler{Processor: &Processor{Store: s}, VerifyToken: "secret-token"}, s
}

func newTestRouter(t *testing.T) (*mux.Router, *sqlite.Store) {
	t.Helper()
	h, s := newTestHandler(t)
	r := mux.NewRouter()
	h.Register(r)
	return r, s
}

func TestVerifyHandshake(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "12345" {
		t.Errorf("body = %q, want the raw challenge", rec.Body.String())
	}
}

func TestVerifyRejectsBadToken(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "12345") {
		t.Errorf("challenge must not be echoed on rejection")
	}
}

func TestEventMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestEventPersistsInboundFromUnknownPhone(t *testing.T) {
	r, s := newTestRouter(t)
	ctx := context.Background()

	body := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "e1", "changes": [{
			"field": "messages",
			"value": {"messages": [{"id": "wamid.in1", "from": "911234567890", "text": {"body": "hi there"}}]}
		}]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	orders, err := s.ListOrders(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected one placeholder order, got %d", len(orders))
	}
	if orders[0].CustomerName != "Unknown" || orders[0].OrderNumber != "N/A" {
		t.Errorf("placeholder fields = %q / %q", orders[0].CustomerName, orders[0].OrderNumber)
	}

	msgs, err := s.MessagesByPhone(ctx, "911234567890")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if msgs[0].Message != "hi there" {
		t.Errorf("message body = %q", msgs[0].Message)
	}
	if msgs[0].Direction != "received" || msgs[0].Status != "received" {
		t.Errorf("direction/status = %q/%q", msgs[0].Direction, msgs[0].Status)
	}
	if msgs[0].OrderID != orders[0].ID {
		t.Errorf("message linked to order %d, want %d", msgs[0].OrderID, orders[0].ID)
	}
}

func TestEventReusesKnownOrder(t *testing.T) {
	r, s := newTestRouter(t)
	ctx := context.Background()

	if err := s.UpsertOrders(ctx, []store.OrderUpsert{{
		ID: 55, Phone: "918013508258", CustomerName: "Asha Rao", OrderNumber: "55", Date: "2025-08-01T10:00:00.000Z",
	}}); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	body := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "e1", "changes": [{
			"field": "messages",
			"value": {"messages": [{"id": "wamid.in2", "from": "918013508258", "text": {"body": "order update?"}}]}
		}]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	orders, err := s.ListOrders(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("known phone must not grow a placeholder, got %d orders", len(orders))
	}

	msgs, err := s.MessagesByPhone(ctx, "918013508258")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].OrderID != 55 {
		t.Errorf("message should attach to the existing order: %+v", msgs)
	}
}

func TestEventMediaPriority(t *testing.T) {
	r, s := newTestRouter(t)
	ctx := context.Background()

	body := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "e1", "changes": [{
			"field": "messages",
			"value": {"messages": [{
				"id": "wamid.in3", "from": "911234567890",
				"text": {"body": "see pic"},
				"image": {"link": "https://cdn.example.com/a.jpg"},
				"document": {"link": "https://cdn.example.com/a.pdf"}
			}]}
		}]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	msgs, err := s.MessagesByPhone(ctx, "911234567890")
	if err != nil || len(msgs) != 1 {
		t.Fatalf("messages: len=%d err=%v", len(msgs), err)
	}
	if msgs[0].MediaType != "image" || msgs[0].MediaURL != "https://cdn.example.com/a.jpg" {
		t.Errorf("image should win over document: %+v", msgs[0])
	}
}

func TestEventStatusesOnlyPersistsNothing(t *testing.T) {
	r, s := newTestRouter(t)
	ctx := context.Background()

	body := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "e1", "changes": [{
			"field": "messages",
			"value": {"statuses": [{"id": "wamid.out1", "status": "delivered", "recipient_id": "918013508258"}]}
		}]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	msgs, err := s.AllMessages(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("status callbacks must not persist messages, got %d", len(msgs))
	}
}

func TestEventIgnoresOtherObjects(t *testing.T) {
	r, s := newTestRouter(t)
	ctx := context.Background()

	body := `{
		"object": "page",
		"entry": [{"id": "e1", "changes": [{
			"field": "messages",
			"value": {"messages": [{"id": "wamid.x", "from": "911234567890", "text": {"body": "nope"}}]}
		}]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	orders, err := s.ListOrders(ctx)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("foreign objects must not persist anything")
	}
}

func TestRootLiveness(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "live") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
