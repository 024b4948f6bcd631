package service

import (
	"context"
	"log/slog"

	"github.com/sony/gobreaker"

	"wabridge/internal/dispatch"
	"wabridge/internal/domain"
	"wabridge/internal/observability"
	"wabridge/internal/store"
	"wabridge/internal/util"
	"wabridge/internal/woo"
)

type Store interface {
	UpsertOrders(ctx context.Context, orders []store.OrderUpsert) error
	GetOrder(ctx context.Context, id int64) (store.Order, bool, error)
	ListOrders(ctx context.Context) ([]store.Order, error)
	LastSyncedOrderID(ctx context.Context) (int64, error)
	InsertMessage(ctx context.Context, in store.MessageInsert) (int64, error)
	MessagesByPhone(ctx context.Context, phone string) ([]store.Message, error)
	AllMessages(ctx context.Context) ([]store.Message, error)
	MessageExists(ctx context.Context, phone, text, createdAt string) (bool, error)
	DeleteMessagesByPhone(ctx context.Context, phone string) (int64, error)
	Templates(ctx context.Context) ([]store.Template, error)
	GetTemplate(ctx context.Context, id int64) (store.Template, bool, error)
	AddTemplate(ctx context.Context, name, text string) (int64, error)
	DeleteTemplate(ctx context.Context, id int64) error
}

type OrderFeed interface {
	FetchOrders(ctx context.Context, page, perPage int, sinceID int64) ([]woo.Order, error)
}

type Dispatcher interface {
	Send(ctx context.Context, req domain.SendMessageRequest) (dispatch.Delivery, error)
}

// BridgeService is the core the presentation layer calls into: order sync,
// outbound send (dispatch then record), broadcast, history and templates.
type BridgeService struct {
	Store      Store
	Feed       OrderFeed
	Dispatcher Dispatcher
	PageSize   int

	// Breaker guards broadcast sends so a downed provider is not hammered
	// once per remaining recipient.
	Breaker *gobreaker.CircuitBreaker
}

// SyncOrders reconciles one feed page into the store. The stored high-water
// id is passed upstream so already-synced orders are not refetched; an empty
// page means the feed is exhausted and nothing is written.
func (s *BridgeService) SyncOrders(ctx context.Context, page int) ([]woo.Order, error) {
	sinceID, err := s.Store.LastSyncedOrderID(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := s.Feed.FetchOrders(ctx, page, s.PageSize, sinceID)
	if err != nil {
		observability.OrderSyncs.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(orders) == 0 {
		observability.OrderSyncs.WithLabelValues("empty").Inc()
		return []woo.Order{}, nil
	}

	upserts := make([]store.OrderUpsert, 0, len(orders))
	for _, o := range orders {
		upserts = append(upserts, store.OrderUpsert{
			ID:           o.ID,
			Phone:        o.Phone,
			CustomerName: o.CustomerName,
			OrderNumber:  o.OrderNumber,
			Date:         o.Date,
		})
	}
	if err := s.Store.UpsertOrders(ctx, upserts); err != nil {
		observability.OrderSyncs.WithLabelValues("error").Inc()
		return nil, err
	}

	observability.OrderSyncs.WithLabelValues("ok").Inc()
	observability.OrdersSynced.Add(float64(len(orders)))
	return orders, nil
}

// SendMessage dispatches one outbound message and, only after a confirmed
// send, records it with direction=sent.
func (s *BridgeService) SendMessage(ctx context.Context, req domain.SendMessageRequest) (domain.SendMessageResponse, error) {
	delivery, err := s.Dispatcher.Send(ctx, req)
	if err != nil {
		return domain.SendMessageResponse{}, err
	}

	id, err := s.Store.InsertMessage(ctx, store.MessageInsert{
		OrderID:   req.OrderID,
		Phone:     req.Phone,
		Message:   req.Message,
		Direction: string(domain.DirectionSent),
		Status:    string(domain.DirectionSent),
		MediaURL:  delivery.MediaURL,
		MediaType: delivery.MediaType,
		CreatedAt: util.ISONow(),
	})
	if err != nil {
		return domain.SendMessageResponse{}, err
	}

	return domain.SendMessageResponse{
		MessageID: id,
		MediaURL:  delivery.MediaURL,
		MediaType: delivery.MediaType,
	}, nil
}

// Broadcast sends one message to every known customer with a phone number.
// A per-recipient failure is logged and counted, never fatal to the loop.
func (s *BridgeService) Broadcast(ctx context.Context, req domain.BroadcastRequest) (domain.BroadcastResult, error) {
	orders, err := s.Store.ListOrders(ctx)
	if err != nil {
		return domain.BroadcastResult{}, err
	}

	var result domain.BroadcastResult
	for _, order := range orders {
		if order.Phone == "" {
			continue
		}

		_, err := s.sendGuarded(ctx, domain.SendMessageRequest{
			Phone:    order.Phone,
			Message:  req.Message,
			OrderID:  order.ID,
			MediaURL: req.MediaURL,
		})
		if err != nil {
			result.Failed++
			observability.Broadcasts.WithLabelValues("error").Inc()
			slog.Error("broadcast send failed", "phone", order.Phone, "err", err)
			continue
		}
		result.Sent++
		observability.Broadcasts.WithLabelValues("ok").Inc()
	}
	return result, nil
}

func (s *BridgeService) sendGuarded(ctx context.Context, req domain.SendMessageRequest) (domain.SendMessageResponse, error) {
	if s.Breaker == nil {
		return s.SendMessage(ctx, req)
	}
	resp, err := s.Breaker.Execute(func() (any, error) {
		return s.SendMessage(ctx, req)
	})
	if err != nil {
		return domain.SendMessageResponse{}, err
	}
	return resp.(domain.SendMessageResponse), nil
}

func (s *BridgeService) MessageHistory(ctx context.Context, phone string) ([]store.Message, error) {
	return s.Store.MessagesByPhone(ctx, phone)
}

func (s *BridgeService) MessageLog(ctx context.Context) ([]store.Message, error) {
	return s.Store.AllMessages(ctx)
}

func (s *BridgeService) ClearChat(ctx context.Context, phone string) (int64, error) {
	return s.Store.DeleteMessagesByPhone(ctx, phone)
}

// MessageExists reports whether a message with this exact phone, text and
// timestamp is already stored. Callers use it to dedupe before re-recording.
func (s *BridgeService) MessageExists(ctx context.Context, phone, text, createdAt string) (bool, error) {
	return s.Store.MessageExists(ctx, phone, text, createdAt)
}

func (s *BridgeService) Orders(ctx context.Context) ([]store.Order, error) {
	return s.Store.ListOrders(ctx)
}

func (s *BridgeService) Order(ctx context.Context, id int64) (store.Order, bool, error) {
	return s.Store.GetOrder(ctx, id)
}

func (s *BridgeService) Templates(ctx context.Context) ([]store.Template, error) {
	return s.Store.Templates(ctx)
}

func (s *BridgeService) Template(ctx context.Context, id int64) (store.Template, bool, error) {
	return s.Store.GetTemplate(ctx, id)
}

func (s *BridgeService) AddTemplate(ctx context.Context, name, text string) (int64, error) {
	return s.Store.AddTemplate(ctx, name, text)
}

func (s *BridgeService) DeleteTemplate(ctx context.Context, id int64) error {
	return s.Store.DeleteTemplate(ctx, id)
}
