package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadyzAllChecksPass(t *testing.T) {
	h := Readyz(time.Second, ReadyzCheck{
		Name:  "db",
		Check: func(ctx context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ready" {
		t.Errorf("body = %v", body)
	}
}

func TestReadyzNamesFailingCheck(t *testing.T) {
	var secondRan bool
	h := Readyz(time.Second,
		ReadyzCheck{Name: "db", Check: func(ctx context.Context) error { return errors.New("locked") }},
		ReadyzCheck{Name: "feed", Check: func(ctx context.Context) error { secondRan = true; return nil }},
	)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["failed"] != "db" {
		t.Errorf("failed = %q, want the failing check's name", body["failed"])
	}
	if secondRan {
		t.Errorf("first failure should short-circuit later checks")
	}
}

func TestReadyzAppliesTimeout(t *testing.T) {
	h := Readyz(10*time.Millisecond, ReadyzCheck{
		Name: "slow",
		Check: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
				return nil
			}
		},
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 once the probe deadline passes", rec.Code)
	}
}
