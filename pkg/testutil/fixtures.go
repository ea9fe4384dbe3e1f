package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
)

// ProductFixture represents test product data
type ProductFixture struct {
	ID           string
	PharmacyID   string
	CategoryID   string
	Name         string
	CategoryName string
	CostPrice    decimal.Decimal
	Criticality  *string
	IsActive     bool
	CreatedAt    time.Time
}

// SaleFixture represents a completed sale with its lines
type SaleFixture struct {
	ID          string
	PharmacyID  string
	Status      string
	CompletedAt time.Time
	Lines       []domain.SaleLine
}

// LotFixture represents test lot data
type LotFixture struct {
	ID           string
	PharmacyID   string
	ProductID    string
	BatchNumber  string
	DeliveredQty *int
	SoldQty      int
	DisposedQty  int
	ExpiryDate   *time.Time
	ReceivedDate time.Time
	IsActive     bool
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Product creates a product fixture with defaults
func (f *FixtureFactory) Product(opts ...func(*ProductFixture)) ProductFixture {
	seq := f.nextSeq()
	crit := "E"

	product := ProductFixture{
		ID:           uuid.New().String(),
		PharmacyID:   uuid.New().String(),
		CategoryID:   uuid.New().String(),
		Name:         fmt.Sprintf("Product %d", seq),
		CategoryName: "general",
		CostPrice:    decimal.NewFromFloat(9.99),
		Criticality:  &crit,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(&product)
	}

	return product
}

// WithPharmacy sets the product's pharmacy
func WithPharmacy(pharmacyID string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.PharmacyID = pharmacyID
	}
}

// WithCost sets the product's unit cost
func WithCost(cost decimal.Decimal) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.CostPrice = cost
	}
}

// WithCriticality sets the product's V/E/D label; pass nil for unlabeled
func WithCriticality(label *string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Criticality = label
	}
}

// CompletedSale creates a completed sale fixture with one line per product
func (f *FixtureFactory) CompletedSale(pharmacyID string, completedAt time.Time, lines ...domain.SaleLine) SaleFixture {
	return SaleFixture{
		ID:          uuid.New().String(),
		PharmacyID:  pharmacyID,
		Status:      "completed",
		CompletedAt: completedAt,
		Lines:       lines,
	}
}

// Lot creates a lot fixture with defaults
func (f *FixtureFactory) Lot(opts ...func(*LotFixture)) LotFixture {
	seq := f.nextSeq()
	delivered := 100
	expiry := time.Now().AddDate(1, 0, 0)

	lot := LotFixture{
		ID:           uuid.New().String(),
		PharmacyID:   uuid.New().String(),
		ProductID:    uuid.New().String(),
		BatchNumber:  fmt.Sprintf("B-%04d", seq),
		DeliveredQty: &delivered,
		ExpiryDate:   &expiry,
		ReceivedDate: time.Now().AddDate(0, -1, 0),
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(&lot)
	}

	return lot
}

// WithCounters sets the lot's movement counters
func WithCounters(delivered, sold, disposed int) func(*LotFixture) {
	return func(l *LotFixture) {
		l.DeliveredQty = &delivered
		l.SoldQty = sold
		l.DisposedQty = disposed
	}
}

// WithExpiry sets the lot's expiry date; pass nil for a lot missing one
func WithExpiry(expiry *time.Time) func(*LotFixture) {
	return func(l *LotFixture) {
		l.ExpiryDate = expiry
	}
}
