package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// POS events (published by the point-of-sale service, consumed here)
	EventSaleCompleted = "pos.sale.completed"
	EventSaleVoided    = "pos.sale.voided"

	// Disposal events (published by the disposal workflow)
	EventBatchDisposed = "inventory.batch.disposed"

	// Analytics events (published by this service)
	EventMatrixComputed      = "analytics.matrix.computed"
	EventBatchIntegrity      = "analytics.batch.integrity"
	EventReferenceDataIssue  = "analytics.reference_data.missing"
)

// Exchange names
const (
	ExchangePOSEvents       = "pos.events"
	ExchangeInventoryEvents = "inventory.events"
	ExchangeAnalyticsEvents = "analytics.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// SaleCompletedEvent is published by the POS when a sale reaches a
// completed/paid status. Only the fields this service needs are modeled.
type SaleCompletedEvent struct {
	SaleID      string    `json:"sale_id"`
	PharmacyID  string    `json:"pharmacy_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// BatchDisposedEvent is published when stock is written off from a lot.
type BatchDisposedEvent struct {
	LotID      string `json:"lot_id"`
	PharmacyID string `json:"pharmacy_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
}

// MatrixComputedEvent is published after a classification run.
type MatrixComputedEvent struct {
	PharmacyID string         `json:"pharmacy_id"`
	WindowFrom time.Time      `json:"window_from"`
	WindowTo   time.Time      `json:"window_to"`
	Classified int            `json:"classified"`
	CellCounts map[string]int `json:"cell_counts"`
}

// BatchIntegrityEvent is published for a lot whose recorded counters are
// inconsistent (sold + disposed exceeding delivered).
type BatchIntegrityEvent struct {
	PharmacyID   string `json:"pharmacy_id"`
	LotID        string `json:"lot_id"`
	ProductID    string `json:"product_id"`
	DeliveredQty int    `json:"delivered_qty"`
	SoldQty      int    `json:"sold_qty"`
	DisposedQty  int    `json:"disposed_qty"`
}
