package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"wabridge/internal/dispatch"
	"wabridge/internal/domain"
	"wabridge/internal/service"
	"wabridge/internal/whatsapp"
	"wabridge/internal/woo"
)

// API is the HTTP surface the presentation layer drives. Every route maps
// onto one bridge service operation.
type API struct {
	Svc *service.BridgeService
}

func (a *API) Register(r *mux.Router) {
	r.HandleFunc("/v1/orders", a.handleListOrders).Methods(http.MethodGet)
	r.HandleFunc("/v1/orders/sync", a.handleSyncOrders).Methods(http.MethodPost)
	r.HandleFunc("/v1/orders/{id}", a.handleGetOrder).Methods(http.MethodGet)

	r.HandleFunc("/v1/messages", a.handleMessages).Methods(http.MethodGet)
	r.HandleFunc("/v1/messages", a.handleSendMessage).Methods(http.MethodPost)
	r.HandleFunc("/v1/messages", a.handleClearChat).Methods(http.MethodDelete)
	r.HandleFunc("/v1/messages/exists", a.handleMessageExists).Methods(http.MethodGet)

	r.HandleFunc("/v1/broadcast", a.handleBroadcast).Methods(http.MethodPost)

	r.HandleFunc("/v1/templates", a.handleListTemplates).Methods(http.MethodGet)
	r.HandleFunc("/v1/templates", a.handleAddTemplate).Methods(http.MethodPost)
	r.HandleFunc("/v1/templates/{id}", a.handleGetTemplate).Methods(http.MethodGet)
	r.HandleFunc("/v1/templates/{id}", a.handleDeleteTemplate).Methods(http.MethodDelete)
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := a.Svc.Orders(r.Context())
	if err != nil {
		slog.Error("list orders failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	order, found, err := a.Svc.Order(r.Context(), id)
	if err != nil {
		slog.Error("get order failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if !found {
		http.Error(w, ErrNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleSyncOrders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
			return
		}
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	orders, err := a.Svc.SyncOrders(r.Context(), req.Page)
	if err != nil {
		var fe *woo.FetchError
		if errors.As(err, &fe) {
			slog.Error("order sync failed", "err", err, "page", req.Page)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		slog.Error("order sync store failed", "err", err, "page", req.Page)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// handleMessages serves one phone's thread oldest-first when ?phone= is
// given, the global log newest-first otherwise.
func (a *API) handleMessages(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone != "" {
		msgs, err := a.Svc.MessageHistory(r.Context(), phone)
		if err != nil {
			slog.Error("message history failed", "err", err, "phone", phone)
			http.Error(w, ErrDependency, http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
		return
	}

	msgs, err := a.Svc.MessageLog(r.Context())
	if err != nil {
		slog.Error("message log failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (a *API) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := a.Svc.SendMessage(r.Context(), req)
	if err != nil {
		slog.Error("send message failed", "err", err, "phone", req.Phone)
		http.Error(w, err.Error(), sendErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleClearChat(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		http.Error(w, ErrMissingPhone, http.StatusBadRequest)
		return
	}
	deleted, err := a.Svc.ClearChat(r.Context(), phone)
	if err != nil {
		slog.Error("clear chat failed", "err", err, "phone", phone)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// handleMessageExists answers a point dedup query: does a message with this
// exact phone, text and created_at already exist.
func (a *API) handleMessageExists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	phone := q.Get("phone")
	if phone == "" {
		http.Error(w, ErrMissingPhone, http.StatusBadRequest)
		return
	}

	exists, err := a.Svc.MessageExists(r.Context(), phone, q.Get("message"), q.Get("created_at"))
	if err != nil {
		slog.Error("message exists check failed", "err", err, "phone", phone)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (a *API) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req domain.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := a.Svc.Broadcast(r.Context(), req)
	if err != nil {
		slog.Error("broadcast failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := a.Svc.Templates(r.Context())
	if err != nil {
		slog.Error("list templates failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (a *API) handleAddTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateName string `json:"template_name"`
		TemplateText string `json:"template_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if req.TemplateName == "" || req.TemplateText == "" {
		http.Error(w, domain.ErrMissingFields.Error(), http.StatusBadRequest)
		return
	}

	id, err := a.Svc.AddTemplate(r.Context(), req.TemplateName, req.TemplateText)
	if err != nil {
		slog.Error("add template failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (a *API) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	tpl, found, err := a.Svc.Template(r.Context(), id)
	if err != nil {
		slog.Error("get template failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if !found {
		http.Error(w, ErrNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (a *API) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	if err := a.Svc.DeleteTemplate(r.Context(), id); err != nil {
		slog.Error("delete template failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sendErrorStatus maps dispatch failures: configuration problems are the
// operator's to fix (500), unsupported media is a caller mistake (400), and
// retry exhaustion is an upstream failure (502).
func sendErrorStatus(err error) int {
	var de *dispatch.DeliveryError
	switch {
	case errors.Is(err, whatsapp.ErrNotConfigured):
		return http.StatusInternalServerError
	case errors.Is(err, dispatch.ErrMediaUploadUnsupported):
		return http.StatusBadRequest
	case errors.As(err, &de):
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
