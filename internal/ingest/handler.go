package ingest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler exposes the webhook HTTP surface: the subscription handshake, the
// event receiver and a liveness root.
type Handler struct {
	Processor   *Processor
	VerifyToken string
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/webhook", h.handleVerify).Methods(http.MethodGet)
	r.HandleFunc("/webhook", h.handleEvent).Methods(http.MethodPost)
	r.HandleFunc("/", h.handleRoot).Methods(http.MethodGet)
}

// handleVerify answers the provider's subscription handshake. It echoes the
// challenge on a token match and never touches the store.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == h.VerifyToken {
		slog.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}

	slog.Warn("webhook verification failed", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
}

// handleEvent acknowledges every parseable delivery with 200 so the provider
// never retry-storms; per-message failures are swallowed inside the
// processor. Only a malformed top-level body yields a 500.
func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		slog.Error("webhook envelope parse failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.Processor.ProcessEnvelope(r.Context(), env)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("WhatsApp webhook is live"))
}
