package repository

import (
	"context"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/pkg/database"
)

// LotRepository reads batch records with their movement counters. The
// counters are owned by the POS and disposal subsystems; this repository
// never writes them.
type LotRepository struct {
	db *database.DB
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *database.DB) *LotRepository {
	return &LotRepository{db: db}
}

// ListByPharmacy returns every active lot for the pharmacy, earliest expiry
// first so the deliveries view naturally reads in first-expired-first-out
// order. Lots without an expiry date sort last.
func (r *LotRepository) ListByPharmacy(ctx context.Context, pharmacyID string) ([]domain.Lot, error) {
	var lots []domain.Lot
	query := `
		SELECT l.id, l.product_id, p.name AS product_name, l.batch_number,
		       l.delivered_qty, l.sold_qty, l.disposed_qty, l.expiry_date, l.received_date
		FROM lots l
		JOIN products p ON p.id = l.product_id
		WHERE l.pharmacy_id = $1 AND l.is_active = true
		ORDER BY l.expiry_date NULLS LAST, l.received_date
	`
	if err := r.db.SelectContext(ctx, &lots, query, pharmacyID); err != nil {
		return nil, database.QueryError(err, "lots")
	}
	return lots, nil
}

// ListByProduct returns the pharmacy's active lots for one product,
// earliest expiry first.
func (r *LotRepository) ListByProduct(ctx context.Context, pharmacyID, productID string) ([]domain.Lot, error) {
	var lots []domain.Lot
	query := `
		SELECT l.id, l.product_id, p.name AS product_name, l.batch_number,
		       l.delivered_qty, l.sold_qty, l.disposed_qty, l.expiry_date, l.received_date
		FROM lots l
		JOIN products p ON p.id = l.product_id
		WHERE l.pharmacy_id = $1 AND l.product_id = $2 AND l.is_active = true
		ORDER BY l.expiry_date NULLS LAST, l.received_date
	`
	if err := r.db.SelectContext(ctx, &lots, query, pharmacyID, productID); err != nil {
		return nil, database.QueryError(err, "lots")
	}
	return lots, nil
}

// GetByID returns one lot.
func (r *LotRepository) GetByID(ctx context.Context, pharmacyID, lotID string) (*domain.Lot, error) {
	var lot domain.Lot
	query := `
		SELECT l.id, l.product_id, p.name AS product_name, l.batch_number,
		       l.delivered_qty, l.sold_qty, l.disposed_qty, l.expiry_date, l.received_date
		FROM lots l
		JOIN products p ON p.id = l.product_id
		WHERE l.pharmacy_id = $1 AND l.id = $2
	`
	if err := r.db.GetContext(ctx, &lot, query, pharmacyID, lotID); err != nil {
		return nil, database.QueryError(err, "lot")
	}
	return &lot, nil
}
