package repository

import (
	"context"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/pkg/database"
)

// SalesRepository reads completed sale lines from the POS tables.
type SalesRepository struct {
	db *database.DB
}

// NewSalesRepository creates a new sales repository
func NewSalesRepository(db *database.DB) *SalesRepository {
	return &SalesRepository{db: db}
}

// CompletedLines returns every line of a completed sale for the pharmacy
// whose completion time falls inside the closed window. Sales still open,
// voided or refunded never contribute to consumption.
func (r *SalesRepository) CompletedLines(ctx context.Context, pharmacyID string, window domain.Window) ([]domain.SaleLine, error) {
	var lines []domain.SaleLine
	query := `
		SELECT sl.product_id, sl.quantity, sl.unit_cost, s.completed_at
		FROM sale_lines sl
		JOIN sales s ON s.id = sl.sale_id
		WHERE s.pharmacy_id = $1
		  AND s.status = 'completed'
		  AND s.completed_at >= $2
		  AND s.completed_at <= $3
		ORDER BY s.completed_at, sl.product_id
	`
	if err := r.db.SelectContext(ctx, &lines, query, pharmacyID, window.From, window.To); err != nil {
		return nil, database.QueryError(err, "sale lines")
	}
	return lines, nil
}
