package repository

import (
	"context"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/pkg/database"
)

// ProductRepository reads the product catalog: unit costs for valuation and
// the clinically assigned criticality labels.
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// CostCatalog returns the active catalog keyed by product ID.
func (r *ProductRepository) CostCatalog(ctx context.Context, pharmacyID string) (map[string]domain.ProductCost, error) {
	var rows []domain.ProductCost
	query := `
		SELECT p.id, p.name, c.name AS category_name, p.cost_price
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.pharmacy_id = $1 AND p.is_active = true
	`
	if err := r.db.SelectContext(ctx, &rows, query, pharmacyID); err != nil {
		return nil, database.QueryError(err, "products")
	}

	catalog := make(map[string]domain.ProductCost, len(rows))
	for _, row := range rows {
		catalog[row.ProductID] = row
	}
	return catalog, nil
}

// criticalityRow carries one product's V/E/D label. The label column is
// nullable: a product nobody has labeled yet simply has no entry in the
// returned map, and the classifier flags it downstream.
type criticalityRow struct {
	ProductID   string  `db:"id"`
	Criticality *string `db:"criticality"`
}

// CriticalityLabels returns the V/E/D label per product ID. Unlabeled
// products are absent from the map.
func (r *ProductRepository) CriticalityLabels(ctx context.Context, pharmacyID string) (map[string]domain.VEDClass, error) {
	var rows []criticalityRow
	query := `
		SELECT id, criticality
		FROM products
		WHERE pharmacy_id = $1 AND is_active = true
	`
	if err := r.db.SelectContext(ctx, &rows, query, pharmacyID); err != nil {
		return nil, database.QueryError(err, "products")
	}

	labels := make(map[string]domain.VEDClass, len(rows))
	for _, row := range rows {
		if row.Criticality == nil {
			continue
		}
		labels[row.ProductID] = domain.VEDClass(*row.Criticality)
	}
	return labels, nil
}

// GetCost returns one catalog entry.
func (r *ProductRepository) GetCost(ctx context.Context, pharmacyID, productID string) (*domain.ProductCost, error) {
	var row domain.ProductCost
	query := `
		SELECT p.id, p.name, c.name AS category_name, p.cost_price
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.pharmacy_id = $1 AND p.id = $2
	`
	if err := r.db.GetContext(ctx, &row, query, pharmacyID, productID); err != nil {
		return nil, database.QueryError(err, "product")
	}
	return &row, nil
}
