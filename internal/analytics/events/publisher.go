package events

import (
	"context"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/messaging"
)

// AnalyticsEventPublisher publishes analytics-related events
type AnalyticsEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewAnalyticsEventPublisher creates a new analytics event publisher
func NewAnalyticsEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*AnalyticsEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAnalyticsEvents, "analytics-service", log)
	if err != nil {
		return nil, err
	}

	return &AnalyticsEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishMatrixComputed announces a freshly computed classification so
// downstream dashboards and report schedulers can react.
func (p *AnalyticsEventPublisher) PublishMatrixComputed(ctx context.Context, snapshot *domain.MatrixSnapshot) {
	if p == nil {
		return
	}

	cellCounts := make(map[string]int, len(snapshot.Classification.CellCount))
	for key, count := range snapshot.Classification.CellCount {
		cellCounts[string(key)] = count
	}

	data := messaging.MatrixComputedEvent{
		PharmacyID: snapshot.PharmacyID,
		WindowFrom: snapshot.Window.From,
		WindowTo:   snapshot.Window.To,
		Classified: len(snapshot.Classification.Items),
		CellCounts: cellCounts,
	}

	if err := p.publisher.Publish(ctx, messaging.EventMatrixComputed, data); err != nil {
		p.logger.Error().Err(err).Str("pharmacy_id", snapshot.PharmacyID).Msg("failed to publish matrix computed event")
	}
}

// PublishBatchIntegrity reports a lot whose movement counters do not add
// up, so the owning subsystem can reconcile.
func (p *AnalyticsEventPublisher) PublishBatchIntegrity(ctx context.Context, pharmacyID string, lot domain.Lot) {
	if p == nil {
		return
	}

	delivered := 0
	if lot.DeliveredQty != nil {
		delivered = *lot.DeliveredQty
	}

	data := messaging.BatchIntegrityEvent{
		PharmacyID:   pharmacyID,
		LotID:        lot.ID,
		ProductID:    lot.ProductID,
		DeliveredQty: delivered,
		SoldQty:      lot.SoldQty,
		DisposedQty:  lot.DisposedQty,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchIntegrity, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish batch integrity event")
	}
}
