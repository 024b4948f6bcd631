package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"wabridge/internal/domain"
	"wabridge/internal/observability"
	"wabridge/internal/store"
	"wabridge/internal/util"
)

type Store interface {
	GetOrderByPhone(ctx context.Context, phone string) (store.Order, bool, error)
	InsertOrder(ctx context.Context, o store.OrderUpsert) (int64, error)
	InsertMessage(ctx context.Context, in store.MessageInsert) (int64, error)
}

// Processor appends inbound webhook messages to the shared store. A failure
// for one message is logged and must not abort the rest of the delivery.
type Processor struct {
	Store Store
}

// ProcessEnvelope walks one webhook delivery. Only "messages" changes
// persist; other fields ("statuses", echoes) are counted and logged only.
func (p *Processor) ProcessEnvelope(ctx context.Context, env Envelope) {
	if env.Object != "whatsapp_business_account" {
		slog.Warn("webhook envelope for unexpected object", "object", env.Object)
		return
	}

	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			observability.WebhookEvents.WithLabelValues(change.Field).Inc()

			if change.Field != "messages" {
				slog.Info("webhook change observed, not persisted", "field", change.Field)
				continue
			}

			for _, st := range change.Value.Statuses {
				slog.Info("delivery status observed", "message_id", st.ID, "status", st.Status)
			}

			for _, msg := range change.Value.Messages {
				if err := p.ingest(ctx, msg); err != nil {
					observability.InboundMessages.WithLabelValues("error").Inc()
					slog.Error("inbound message ingest failed", "err", err, "from", msg.From)
					continue
				}
				observability.InboundMessages.WithLabelValues("ok").Inc()
				slog.Info("inbound message saved", "from", msg.From)
			}
		}
	}
}

// ingest resolves the sender's order (synthesizing a placeholder when the
// phone is unknown) and appends the message with the ingestion timestamp.
func (p *Processor) ingest(ctx context.Context, msg InboundMessage) error {
	phone := msg.From
	if phone == "" {
		return fmt.Errorf("inbound message without sender")
	}

	orderID, err := p.resolveOrder(ctx, phone)
	if err != nil {
		return fmt.Errorf("resolve order: %w", err)
	}

	mediaURL, mediaType := msg.media()
	_, err = p.Store.InsertMessage(ctx, store.MessageInsert{
		OrderID:   orderID,
		Phone:     phone,
		Message:   msg.body(),
		Direction: string(domain.DirectionReceived),
		Status:    string(domain.DirectionReceived),
		MediaURL:  mediaURL,
		MediaType: mediaType,
		CreatedAt: util.ISONow(),
	})
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (p *Processor) resolveOrder(ctx context.Context, phone string) (int64, error) {
	order, found, err := p.Store.GetOrderByPhone(ctx, phone)
	if err != nil {
		return 0, err
	}
	if found {
		return order.ID, nil
	}

	id, err := p.Store.InsertOrder(ctx, store.OrderUpsert{
		Phone:        phone,
		CustomerName: "Unknown",
		OrderNumber:  "N/A",
		Date:         util.ISONow(),
	})
	if err != nil {
		return 0, err
	}
	slog.Info("placeholder order created", "phone", phone, "order_id", id)
	return id, nil
}
