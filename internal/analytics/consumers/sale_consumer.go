// Package consumers wires the analytics service into the event streams it
// watches: POS sales and inventory disposals, both of which stale any
// cached classification for the affected pharmacy.
package consumers

import (
	"context"

	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/messaging"
)

// MatrixInvalidator drops cached classifications for a pharmacy.
type MatrixInvalidator interface {
	InvalidatePharmacy(ctx context.Context, pharmacyID string) error
}

// SaleEventHandler handles sale and disposal events. Every event it knows
// about invalidates the cached matrix for the affected pharmacy; the next
// matrix read recomputes from source data.
type SaleEventHandler struct {
	invalidator MatrixInvalidator
	logger      *logger.Logger
}

// NewSaleEventHandler creates a new sale event handler
func NewSaleEventHandler(invalidator MatrixInvalidator, log *logger.Logger) *SaleEventHandler {
	return &SaleEventHandler{
		invalidator: invalidator,
		logger:      log,
	}
}

// HandleEvent routes incoming events to the appropriate handler
func (h *SaleEventHandler) HandleEvent(ctx context.Context, event *messaging.Event) error {
	switch event.Type {
	case messaging.EventSaleCompleted:
		return h.handleSaleCompleted(ctx, event)
	case messaging.EventSaleVoided:
		return h.handleSaleVoided(ctx, event)
	case messaging.EventBatchDisposed:
		return h.handleBatchDisposed(ctx, event)
	default:
		h.logger.Warn().Str("event_type", event.Type).Msg("unknown event type received")
		return nil
	}
}

func (h *SaleEventHandler) handleSaleCompleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.SaleCompletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	h.logger.Info().
		Str("sale_id", data.SaleID).
		Str("pharmacy_id", data.PharmacyID).
		Msg("received sale completed event")

	return h.invalidator.InvalidatePharmacy(ctx, data.PharmacyID)
}

func (h *SaleEventHandler) handleSaleVoided(ctx context.Context, event *messaging.Event) error {
	var data messaging.SaleCompletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	h.logger.Info().
		Str("sale_id", data.SaleID).
		Str("pharmacy_id", data.PharmacyID).
		Msg("received sale voided event")

	return h.invalidator.InvalidatePharmacy(ctx, data.PharmacyID)
}

func (h *SaleEventHandler) handleBatchDisposed(ctx context.Context, event *messaging.Event) error {
	var data messaging.BatchDisposedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	h.logger.Info().
		Str("lot_id", data.LotID).
		Str("pharmacy_id", data.PharmacyID).
		Msg("received batch disposed event")

	return h.invalidator.InvalidatePharmacy(ctx, data.PharmacyID)
}

// SaleEventConsumer consumes POS and disposal events to keep the matrix
// cache honest.
type SaleEventConsumer struct {
	consumer *messaging.Consumer
	handler  *SaleEventHandler
	logger   *logger.Logger
}

// NewSaleEventConsumer creates a new sale event consumer
func NewSaleEventConsumer(rmq *messaging.RabbitMQ, invalidator MatrixInvalidator, log *logger.Logger) (*SaleEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "analytics-service.sale-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangePOSEvents, "pos.sale.#"); err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(messaging.ExchangeInventoryEvents, "inventory.batch.#"); err != nil {
		return nil, err
	}

	handler := NewSaleEventHandler(invalidator, log)

	consumer.RegisterHandler(messaging.EventSaleCompleted, handler.HandleEvent)
	consumer.RegisterHandler(messaging.EventSaleVoided, handler.HandleEvent)
	consumer.RegisterHandler(messaging.EventBatchDisposed, handler.HandleEvent)

	return &SaleEventConsumer{
		consumer: consumer,
		handler:  handler,
		logger:   log,
	}, nil
}

// Start starts consuming messages
func (c *SaleEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}
