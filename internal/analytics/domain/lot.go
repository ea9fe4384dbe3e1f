package domain

import "time"

// Lot is one discrete delivery of a product, tracked separately for expiry
// and quantity purposes. The sold and disposed counters are maintained by
// the POS and disposal subsystems and only ever increase; this service reads
// a snapshot and never mutates them.
type Lot struct {
	ID           string     `db:"id" json:"id"`
	ProductID    string     `db:"product_id" json:"product_id"`
	ProductName  string     `db:"product_name" json:"product_name"`
	BatchNumber  string     `db:"batch_number" json:"batch_number"`
	DeliveredQty *int       `db:"delivered_qty" json:"delivered_qty"`
	SoldQty      int        `db:"sold_qty" json:"sold_qty"`
	DisposedQty  int        `db:"disposed_qty" json:"disposed_qty"`
	ExpiryDate   *time.Time `db:"expiry_date" json:"expiry_date"`
	ReceivedDate time.Time  `db:"received_date" json:"received_date"`
}

// BatchState classifies a lot for display.
type BatchState string

const (
	BatchStateExpired      BatchState = "expired"
	BatchStateExpiringSoon BatchState = "expiring_soon"
	BatchStateSafe         BatchState = "safe"
)

// BatchAvailability is the derived sellable position of one lot.
type BatchAvailability struct {
	LotID           string     `json:"lot_id"`
	ProductID       string     `json:"product_id"`
	ProductName     string     `json:"product_name"`
	BatchNumber     string     `json:"batch_number"`
	DeliveredNet    int        `json:"delivered_net"`
	AvailableQty    int        `json:"available_qty"`
	IsExpired       bool       `json:"is_expired"`
	State           BatchState `json:"state"`
	ExpiryDate      time.Time  `json:"expiry_date"`
	DaysUntilExpiry int        `json:"days_until_expiry"`
}
