package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/engine"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 12, 0, 0, 0, time.UTC)
}

func marchWindow() domain.Window {
	return domain.Window{
		From: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC),
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func catalogEntry(id, name string, cost string) domain.ProductCost {
	return domain.ProductCost{
		ProductID:    id,
		Name:         name,
		CategoryName: "analgesics",
		CostPrice:    dec(cost),
	}
}

func TestAggregateConsumption_SumsPerProduct(t *testing.T) {
	lines := []domain.SaleLine{
		{ProductID: "p1", Quantity: 3, CompletedAt: day(2)},
		{ProductID: "p2", Quantity: 1, CompletedAt: day(3)},
		{ProductID: "p1", Quantity: 2, CompletedAt: day(10)},
	}
	catalog := map[string]domain.ProductCost{
		"p1": catalogEntry("p1", "Ibuprofen 400", "2.50"),
		"p2": catalogEntry("p2", "Paracetamol 500", "1.10"),
	}

	records, warnings := engine.AggregateConsumption(lines, catalog, marchWindow())
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	if records[0].ProductID != "p1" || records[0].TotalQty != 5 {
		t.Errorf("p1 record = %+v, want qty 5", records[0])
	}
	if !records[0].ConsumptionValue.Equal(dec("12.50")) {
		t.Errorf("p1 value = %s, want 12.50", records[0].ConsumptionValue)
	}
	if records[0].Name != "Ibuprofen 400" {
		t.Errorf("p1 name = %q", records[0].Name)
	}
	if records[1].ProductID != "p2" || !records[1].ConsumptionValue.Equal(dec("1.10")) {
		t.Errorf("p2 record = %+v", records[1])
	}
}

func TestAggregateConsumption_WindowIsClosed(t *testing.T) {
	w := marchWindow()
	lines := []domain.SaleLine{
		{ProductID: "edge-from", Quantity: 1, CompletedAt: w.From},
		{ProductID: "edge-to", Quantity: 1, CompletedAt: w.To},
		{ProductID: "before", Quantity: 1, CompletedAt: w.From.Add(-time.Second)},
		{ProductID: "after", Quantity: 1, CompletedAt: w.To.Add(time.Second)},
	}
	catalog := map[string]domain.ProductCost{
		"edge-from": catalogEntry("edge-from", "A", "1"),
		"edge-to":   catalogEntry("edge-to", "B", "1"),
	}

	records, _ := engine.AggregateConsumption(lines, catalog, w)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (both window edges included)", len(records))
	}
	for _, rec := range records {
		if rec.ProductID == "before" || rec.ProductID == "after" {
			t.Errorf("line outside window aggregated: %s", rec.ProductID)
		}
	}
}

func TestAggregateConsumption_MissingCostKeepsProduct(t *testing.T) {
	lines := []domain.SaleLine{
		{ProductID: "orphan", Quantity: 4, CompletedAt: day(5)},
	}

	records, warnings := engine.AggregateConsumption(lines, map[string]domain.ProductCost{}, marchWindow())
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (product kept despite missing cost)", len(records))
	}
	if !records[0].CostPrice.IsZero() || !records[0].ConsumptionValue.IsZero() {
		t.Errorf("missing cost should value at 0, got cost=%s value=%s",
			records[0].CostPrice, records[0].ConsumptionValue)
	}

	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if warnings[0].Kind != domain.WarnMissingCost || warnings[0].ProductID != "orphan" {
		t.Errorf("warning = %+v", warnings[0])
	}
}

func TestAggregateConsumption_Empty(t *testing.T) {
	records, warnings := engine.AggregateConsumption(nil, nil, marchWindow())
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
	if len(warnings) != 0 {
		t.Errorf("got %d warnings, want 0", len(warnings))
	}
}

func TestAggregateConsumption_Deterministic(t *testing.T) {
	lines := []domain.SaleLine{
		{ProductID: "z", Quantity: 1, CompletedAt: day(1)},
		{ProductID: "a", Quantity: 1, CompletedAt: day(1)},
		{ProductID: "m", Quantity: 1, CompletedAt: day(1)},
	}

	first, _ := engine.AggregateConsumption(lines, nil, marchWindow())
	for i := 0; i < 20; i++ {
		again, _ := engine.AggregateConsumption(lines, nil, marchWindow())
		for j := range first {
			if first[j].ProductID != again[j].ProductID {
				t.Fatalf("run %d: order changed at index %d (%s vs %s)",
					i, j, first[j].ProductID, again[j].ProductID)
			}
		}
	}
	if first[0].ProductID != "a" || first[1].ProductID != "m" || first[2].ProductID != "z" {
		t.Errorf("records not sorted by product ID: %v", first)
	}
}
