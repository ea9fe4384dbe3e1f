package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/pharmalink/pharmalink-backend/pkg/database"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a base for integration tests with real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite creates a new integration test suite.
// Call this in TestMain to set up shared test infrastructure.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//
//	    suite, err := testutil.NewIntegrationSuite(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer suite.Cleanup(ctx)
//	    defer testutil.TerminateContainer(ctx)
//
//	    os.Exit(m.Run())
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	container, db, err := getOrCreateContainer(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.New("test", "test")
	wrappedDB, err := database.NewWithDSN(container.DSN, log)
	if err != nil {
		return nil, err
	}

	if err := container.CreateAnalyticsSchema(ctx, db); err != nil {
		return nil, err
	}

	return &IntegrationSuite{
		Container: container,
		RawDB:     db,
		DB:        wrappedDB,
		Fixtures:  NewFixtureFactory(),
		Logger:    log,
	}, nil
}

// getOrCreateContainer returns the shared test container
func getOrCreateContainer(ctx context.Context) (*PostgresContainer, *sqlx.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		globalDB, containerErr = globalContainer.Connect(ctx)
	})

	return globalContainer, globalDB, containerErr
}

// SeedProduct inserts a product fixture and its category
func (s *IntegrationSuite) SeedProduct(t *testing.T, ctx context.Context, p ProductFixture) {
	t.Helper()

	_, err := s.RawDB.ExecContext(ctx, `
		INSERT INTO categories (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, p.CategoryID, p.CategoryName)
	if err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	_, err = s.RawDB.ExecContext(ctx, `
		INSERT INTO products (id, pharmacy_id, category_id, name, cost_price, criticality, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.PharmacyID, p.CategoryID, p.Name, p.CostPrice, p.Criticality, p.IsActive)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
}

// SeedSale inserts a sale fixture with its lines
func (s *IntegrationSuite) SeedSale(t *testing.T, ctx context.Context, sale SaleFixture) {
	t.Helper()

	_, err := s.RawDB.ExecContext(ctx, `
		INSERT INTO sales (id, pharmacy_id, status, completed_at)
		VALUES ($1, $2, $3, $4)
	`, sale.ID, sale.PharmacyID, sale.Status, sale.CompletedAt)
	if err != nil {
		t.Fatalf("failed to seed sale: %v", err)
	}

	for _, line := range sale.Lines {
		_, err := s.RawDB.ExecContext(ctx, `
			INSERT INTO sale_lines (sale_id, product_id, quantity, unit_cost)
			VALUES ($1, $2, $3, $4)
		`, sale.ID, line.ProductID, line.Quantity, line.UnitCost)
		if err != nil {
			t.Fatalf("failed to seed sale line: %v", err)
		}
	}
}

// SeedLot inserts a lot fixture
func (s *IntegrationSuite) SeedLot(t *testing.T, ctx context.Context, lot LotFixture) {
	t.Helper()

	_, err := s.RawDB.ExecContext(ctx, `
		INSERT INTO lots (id, pharmacy_id, product_id, batch_number, delivered_qty,
			sold_qty, disposed_qty, expiry_date, received_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, lot.ID, lot.PharmacyID, lot.ProductID, lot.BatchNumber, lot.DeliveredQty,
		lot.SoldQty, lot.DisposedQty, lot.ExpiryDate, lot.ReceivedDate, lot.IsActive)
	if err != nil {
		t.Fatalf("failed to seed lot: %v", err)
	}
}

// TruncateAll clears every seeded table between tests
func (s *IntegrationSuite) TruncateAll(ctx context.Context, t *testing.T) {
	t.Helper()

	_, err := s.RawDB.ExecContext(ctx,
		`TRUNCATE sale_lines, sales, lots, products, categories CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Cleanup cleans up all test resources
func (s *IntegrationSuite) Cleanup(ctx context.Context) error {
	// Note: We don't terminate the container here since it's shared
	return nil
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		globalContainer.Terminate(ctx)
	}
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// IsCI returns true if running in CI environment
func IsCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}
