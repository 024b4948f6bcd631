package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wabridge_api_requests_total", Help: "API requests"},
		[]string{"endpoint", "status"},
	)
	OrderSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wabridge_order_sync_total", Help: "Order feed sync outcomes"},
		[]string{"result"},
	)
	OrdersSynced = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "wabridge_orders_synced_total", Help: "Orders upserted from the feed"},
	)
	WASend = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wabridge_whatsapp_send_total", Help: "WhatsApp send outcomes"},
		[]string{"result", "http_status"},
	)
	WASendLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "wabridge_whatsapp_send_latency_seconds", Help: "WhatsApp send latency"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wabridge_webhook_events_total", Help: "Inbound webhook changes by field"},
		[]string{"field"},
	)
	InboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wabridge_inbound_messages_total", Help: "Inbound message ingestion outcomes"},
		[]string{"result"},
	)
	Broadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wabridge_broadcast_recipients_total", Help: "Broadcast per-recipient outcomes"},
		[]string{"result"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, OrderSyncs, OrdersSynced, WASend, WASendLatency,
		WebhookEvents, InboundMessages, Broadcasts)
}
