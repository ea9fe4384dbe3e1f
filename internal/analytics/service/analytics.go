package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/engine"
	"github.com/pharmalink/pharmalink-backend/pkg/config"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

// SalesSource reads completed sale lines for a pharmacy and window.
type SalesSource interface {
	CompletedLines(ctx context.Context, pharmacyID string, window domain.Window) ([]domain.SaleLine, error)
}

// CatalogSource reads the product catalog and criticality labels.
type CatalogSource interface {
	CostCatalog(ctx context.Context, pharmacyID string) (map[string]domain.ProductCost, error)
	CriticalityLabels(ctx context.Context, pharmacyID string) (map[string]domain.VEDClass, error)
}

// LotSource reads batch records with their movement counters.
type LotSource interface {
	ListByPharmacy(ctx context.Context, pharmacyID string) ([]domain.Lot, error)
	ListByProduct(ctx context.Context, pharmacyID, productID string) ([]domain.Lot, error)
}

// SnapshotCache stores computed matrix snapshots between requests.
type SnapshotCache interface {
	Get(ctx context.Context, pharmacyID string, window domain.Window) (*domain.MatrixSnapshot, error)
	Set(ctx context.Context, snapshot *domain.MatrixSnapshot) error
}

// EventPublisher announces computed matrices and data problems.
type EventPublisher interface {
	PublishMatrixComputed(ctx context.Context, snapshot *domain.MatrixSnapshot)
	PublishBatchIntegrity(ctx context.Context, pharmacyID string, lot domain.Lot)
}

// AnalyticsService computes ABC-VED classifications and batch availability
// over a consistent read of the pharmacy's data. Cache and publisher are
// optional; a nil dependency disables that concern.
type AnalyticsService struct {
	sales      SalesSource
	catalog    CatalogSource
	lots       LotSource
	cache      SnapshotCache
	publisher  EventPublisher
	thresholds domain.ABCThresholds
	soonDays   int
	logger     *logger.Logger
	now        func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	sales SalesSource,
	catalog CatalogSource,
	lots LotSource,
	cache SnapshotCache,
	publisher EventPublisher,
	cfg *config.AnalyticsConfig,
	log *logger.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		sales:     sales,
		catalog:   catalog,
		lots:      lots,
		cache:     cache,
		publisher: publisher,
		thresholds: domain.ABCThresholds{
			ACutoff: decimal.NewFromFloat(cfg.ABCACutoff),
			BCutoff: decimal.NewFromFloat(cfg.ABCBCutoff),
		},
		soonDays: cfg.ExpiringSoonDays,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock replaces the service clock. Used by tests.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// Matrix returns the classification snapshot for the pharmacy and window,
// serving from cache when a fresh entry exists. Everything in a snapshot
// comes from one read of the source tables; two calls may differ, but one
// snapshot is never a blend.
func (s *AnalyticsService) Matrix(ctx context.Context, pharmacyID string, window domain.Window) (*domain.MatrixSnapshot, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, pharmacyID, window)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	lines, err := s.sales.CompletedLines(ctx, pharmacyID, window)
	if err != nil {
		return nil, err
	}
	costs, err := s.catalog.CostCatalog(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	labels, err := s.catalog.CriticalityLabels(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}

	records, aggWarnings := engine.AggregateConsumption(lines, costs, window)
	classification, classWarnings := engine.ClassifyMatrix(records, labels, s.thresholds)

	snapshot := &domain.MatrixSnapshot{
		PharmacyID:     pharmacyID,
		Window:         window,
		Classification: classification,
		Warnings:       append(aggWarnings, classWarnings...),
		ComputedAt:     s.now().UTC(),
	}

	for _, warning := range snapshot.Warnings {
		s.logger.Warn().
			Str("pharmacy_id", pharmacyID).
			Str("kind", string(warning.Kind)).
			Str("product_id", warning.ProductID).
			Msg(warning.Message)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshot); err != nil {
			s.logger.Warn().Err(err).Str("pharmacy_id", pharmacyID).Msg("failed to cache matrix snapshot")
		}
	}
	if s.publisher != nil {
		s.publisher.PublishMatrixComputed(ctx, snapshot)
	}

	return snapshot, nil
}

// CellPage returns one page of a matrix cell's contents.
func (s *AnalyticsService) CellPage(ctx context.Context, pharmacyID string, window domain.Window, cell domain.CellKey, query engine.CellQuery) (engine.CellPage, error) {
	snapshot, err := s.Matrix(ctx, pharmacyID, window)
	if err != nil {
		return engine.CellPage{}, err
	}
	return engine.QueryCell(snapshot.Classification.Items, cell, query)
}

// ExportCellCSV renders the full filtered contents of one cell as CSV.
// Pagination never applies to exports; the whole matching set goes out.
func (s *AnalyticsService) ExportCellCSV(ctx context.Context, pharmacyID string, window domain.Window, cell domain.CellKey, search string, sort engine.SortKey) ([]byte, error) {
	snapshot, err := s.Matrix(ctx, pharmacyID, window)
	if err != nil {
		return nil, err
	}

	matched, err := engine.MatchCell(snapshot.Classification.Items, cell, search, sort)
	if err != nil {
		return nil, err
	}

	return engine.CSVBytes(matched)
}

// Deliveries resolves the sellable position of the pharmacy's lots,
// earliest expiry first. productID narrows to one product when non-empty.
// A lot with broken reference data is skipped with a warning; inconsistent
// counters additionally publish an integrity event for the owning system.
func (s *AnalyticsService) Deliveries(ctx context.Context, pharmacyID, productID string) ([]domain.BatchAvailability, []domain.Warning, error) {
	var (
		lots []domain.Lot
		err  error
	)
	if productID != "" {
		lots, err = s.lots.ListByProduct(ctx, pharmacyID, productID)
	} else {
		lots, err = s.lots.ListByPharmacy(ctx, pharmacyID)
	}
	if err != nil {
		return nil, nil, err
	}

	availability, warnings := engine.ResolveBatches(lots, s.now(), s.soonDays)

	if s.publisher != nil {
		byID := make(map[string]domain.Lot, len(lots))
		for _, lot := range lots {
			byID[lot.ID] = lot
		}
		for _, warning := range warnings {
			if warning.Kind != domain.WarnBatchIntegrity || warning.ProductID == "" {
				continue
			}
			if lot, ok := byID[warning.LotID]; ok {
				s.publisher.PublishBatchIntegrity(ctx, pharmacyID, lot)
			}
		}
	}

	for _, warning := range warnings {
		s.logger.Warn().
			Str("pharmacy_id", pharmacyID).
			Str("lot_id", warning.LotID).
			Msg(warning.Message)
	}

	return availability, warnings, nil
}
