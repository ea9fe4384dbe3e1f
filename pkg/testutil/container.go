// Package testutil provides testing utilities for PharmaLink backend
// services. It includes a testcontainers PostgreSQL harness, sqlmock
// factories, and common test fixtures.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "pharmalink_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer container.Terminate(ctx)
//
//	    // Run tests
//	    code := m.Run()
//	    os.Exit(code)
//	}
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "pharmalink_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateAnalyticsSchema creates the tables the analytics service reads:
// the product catalog, the POS sales feed, and the batch ledger. All tables
// are pharmacy-scoped through a pharmacy_id column.
func (c *PostgresContainer) CreateAnalyticsSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			pharmacy_id UUID NOT NULL,
			category_id UUID NOT NULL REFERENCES categories(id),
			name VARCHAR(255) NOT NULL,
			cost_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			criticality CHAR(1),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_products_pharmacy ON products(pharmacy_id);

		CREATE TABLE IF NOT EXISTS sales (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			pharmacy_id UUID NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'open',
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_sales_pharmacy_completed
			ON sales(pharmacy_id, completed_at)
			WHERE status = 'completed';

		CREATE TABLE IF NOT EXISTS sale_lines (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			sale_id UUID NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
			product_id UUID NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL,
			unit_cost NUMERIC(12,2) NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_sale_lines_sale ON sale_lines(sale_id);

		CREATE TABLE IF NOT EXISTS lots (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			pharmacy_id UUID NOT NULL,
			product_id UUID NOT NULL REFERENCES products(id),
			batch_number VARCHAR(100) NOT NULL,
			delivered_qty INTEGER,
			sold_qty INTEGER NOT NULL DEFAULT 0,
			disposed_qty INTEGER NOT NULL DEFAULT 0,
			expiry_date TIMESTAMPTZ,
			received_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT true
		);

		CREATE INDEX IF NOT EXISTS idx_lots_pharmacy_expiry ON lots(pharmacy_id, expiry_date);
	`

	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create analytics schema: %w", err)
	}

	return nil
}
