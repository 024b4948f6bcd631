// mock-graph is a stand-in for the WhatsApp Cloud API used in local testing.
// It accepts the same send endpoint as the real thing, serves configurable
// outcomes, and can replay an inbound message to a webhook listener.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
)

type config struct {
	Port        string `envconfig:"PORT" default:"8082"`
	AccessToken string `envconfig:"MOCK_ACCESS_TOKEN" default:"mock_token"`

	// Comma-separated outcome sequence served round-robin:
	// ok, server_error, bad_request, timeout.
	OutcomesRaw string `envconfig:"MOCK_OUTCOMES" default:"ok"`
	DelayMs     int    `envconfig:"MOCK_DELAY_MS" default:"0"`

	// Webhook listener to replay inbound messages to.
	WebhookURL string `envconfig:"MOCK_WEBHOOK_URL" default:"http://localhost:10000/webhook"`

	Outcomes []string
	Delay    time.Duration
}

type server struct {
	cfg    config
	idx    uint64
	client *http.Client
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	cfg.Outcomes = parseCSV(cfg.OutcomesRaw)
	cfg.Delay = time.Duration(cfg.DelayMs) * time.Millisecond

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h).With("service", "mock-graph"))

	s := &server{cfg: cfg, client: &http.Client{Timeout: 5 * time.Second}}

	router := mux.NewRouter()
	router.HandleFunc("/{version}/{phoneID}/messages", s.handleSend).Methods(http.MethodPost)
	router.HandleFunc("/simulate/inbound", s.handleSimulateInbound).Methods(http.MethodPost)

	slog.Info("mock graph listening", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		slog.Error("mock graph server failed", "err", err)
		os.Exit(1)
	}
}

func (s *server) handleSend(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if auth != "Bearer "+s.cfg.AccessToken {
		writeError(w, http.StatusUnauthorized, 190, "Invalid OAuth access token")
		return
	}

	var payload struct {
		MessagingProduct string `json:"messaging_product"`
		To               string `json:"to"`
		Type             string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, 100, "Invalid parameter")
		return
	}
	if payload.MessagingProduct != "whatsapp" || payload.To == "" {
		writeError(w, http.StatusBadRequest, 100, "Invalid parameter")
		return
	}

	if s.cfg.Delay > 0 {
		time.Sleep(s.cfg.Delay)
	}

	n := atomic.AddUint64(&s.idx, 1)
	outcome := s.cfg.Outcomes[int(n-1)%len(s.cfg.Outcomes)]
	switch outcome {
	case "server_error":
		writeError(w, http.StatusInternalServerError, 1, "An unknown error occurred")
	case "bad_request":
		writeError(w, http.StatusBadRequest, 131026, "Message undeliverable")
	case "timeout":
		time.Sleep(35 * time.Second)
		writeError(w, http.StatusGatewayTimeout, 0, "timeout")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"messaging_product": "whatsapp",
			"contacts":          []map[string]string{{"wa_id": payload.To}},
			"messages":          []map[string]string{{"id": fmt.Sprintf("wamid.MOCK%06d", n)}},
		})
	}
}

// handleSimulateInbound posts a minimal "messages" envelope to the configured
// webhook listener, the shape the Cloud API delivers for a customer reply.
func (s *server) handleSimulateInbound(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From     string `json:"from"`
		Body     string `json:"body"`
		MediaURL string `json:"mediaUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.From == "" {
		writeError(w, http.StatusBadRequest, 100, "from is required")
		return
	}

	message := map[string]any{
		"from": req.From,
		"id":   fmt.Sprintf("wamid.INBOUND%d", atomic.AddUint64(&s.idx, 1)),
		"text": map[string]string{"body": req.Body},
	}
	if req.MediaURL != "" {
		kind := "document"
		if strings.Contains(req.MediaURL, "image") {
			kind = "image"
		} else if strings.Contains(req.MediaURL, "video") {
			kind = "video"
		}
		message[kind] = map[string]string{"link": req.MediaURL}
	}

	envelope := map[string]any{
		"object": "whatsapp_business_account",
		"entry": []map[string]any{{
			"changes": []map[string]any{{
				"field": "messages",
				"value": map[string]any{"messages": []map[string]any{message}},
			}},
		}},
	}

	b, _ := json.Marshal(envelope)
	resp, err := s.client.Post(s.cfg.WebhookURL, "application/json", bytes.NewReader(b))
	if err != nil {
		slog.Error("inbound replay failed", "url", s.cfg.WebhookURL, "err", err)
		writeError(w, http.StatusBadGateway, 0, err.Error())
		return
	}
	defer resp.Body.Close()

	writeJSON(w, http.StatusOK, map[string]any{"delivered": true, "webhookStatus": resp.StatusCode})
}

func writeError(w http.ResponseWriter, status, code int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": msg, "type": "OAuthException", "code": code},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"ok"}
	}
	return out
}
