package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ABCClass ranks a product by its share of total consumption value.
// A is the highest-impact minority, C the lowest-impact majority.
type ABCClass string

const (
	ABCClassA ABCClass = "A"
	ABCClassB ABCClass = "B"
	ABCClassC ABCClass = "C"
)

// VEDClass is the clinical-criticality label assigned to a product by the
// chain's clinical staff. It is an input fact; this service never derives it.
type VEDClass string

const (
	VEDClassVital     VEDClass = "V"
	VEDClassEssential VEDClass = "E"
	VEDClassDesirable VEDClass = "D"
)

// Valid reports whether the label is one of V, E, D.
func (v VEDClass) Valid() bool {
	return v == VEDClassVital || v == VEDClassEssential || v == VEDClassDesirable
}

// CellKey identifies one of the nine ABC-VED matrix cells, e.g. "A-V".
type CellKey string

// NewCellKey builds the key for an (ABC, VED) pair.
func NewCellKey(abc ABCClass, ved VEDClass) CellKey {
	return CellKey(string(abc) + "-" + string(ved))
}

// ParseCellKey validates and splits a cell key.
func ParseCellKey(s string) (ABCClass, VEDClass, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid cell key %q", s)
	}

	abc := ABCClass(parts[0])
	switch abc {
	case ABCClassA, ABCClassB, ABCClassC:
	default:
		return "", "", fmt.Errorf("invalid cell key %q: unknown ABC class %q", s, parts[0])
	}

	ved := VEDClass(parts[1])
	if !ved.Valid() {
		return "", "", fmt.Errorf("invalid cell key %q: unknown VED class %q", s, parts[1])
	}

	return abc, ved, nil
}

// AllCellKeys returns the nine matrix cell keys in display order (A-V first).
func AllCellKeys() []CellKey {
	keys := make([]CellKey, 0, 9)
	for _, abc := range []ABCClass{ABCClassA, ABCClassB, ABCClassC} {
		for _, ved := range []VEDClass{VEDClassVital, VEDClassEssential, VEDClassDesirable} {
			keys = append(keys, NewCellKey(abc, ved))
		}
	}
	return keys
}

// SaleLine is one line of a completed sale, as recorded by the POS.
type SaleLine struct {
	ProductID   string          `db:"product_id" json:"product_id"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitCost    decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	CompletedAt time.Time       `db:"completed_at" json:"completed_at"`
}

// ProductCost is the catalog entry for a product: the latest known unit cost
// plus the display fields carried into consumption records.
type ProductCost struct {
	ProductID    string          `db:"id" json:"product_id"`
	Name         string          `db:"name" json:"name"`
	CategoryName string          `db:"category_name" json:"category_name"`
	CostPrice    decimal.Decimal `db:"cost_price" json:"cost_price"`
}

// Window is a closed date range [From, To].
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the closed range.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// ConsumptionRecord is the per-product consumption aggregate for a window.
// Recomputed wholesale on every window change; never persisted.
type ConsumptionRecord struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	CategoryName     string          `json:"category_name"`
	TotalQty         int             `json:"total_qty"`
	CostPrice        decimal.Decimal `json:"cost_price"`
	ConsumptionValue decimal.Decimal `json:"consumption_value"`
}

// ClassifiedProduct is a consumption record with its matrix coordinates.
type ClassifiedProduct struct {
	ConsumptionRecord
	ABCClass ABCClass `json:"abc_class"`
	VEDClass VEDClass `json:"ved_class"`
}

// Cell returns the matrix cell this product belongs to.
func (p ClassifiedProduct) Cell() CellKey {
	return NewCellKey(p.ABCClass, p.VEDClass)
}

// Coverage is the share of total consumption value per ABC band, in percent.
type Coverage struct {
	PctA decimal.Decimal `json:"pct_a"`
	PctB decimal.Decimal `json:"pct_b"`
	PctC decimal.Decimal `json:"pct_c"`
}

// Classification is the full result of an ABC-VED run: the ranked products
// and the nine-cell aggregation. Cells reference products by position only;
// products are shared read-only.
type Classification struct {
	Items     []ClassifiedProduct         `json:"items"`
	CellCount map[CellKey]int             `json:"cell_count"`
	CellValue map[CellKey]decimal.Decimal `json:"cell_value"`
	Coverage  Coverage                    `json:"coverage"`
}

// ABCThresholds are the cumulative-share cut points for the A and B bands,
// expressed as fractions of the grand total. Policy, not fixed truth.
type ABCThresholds struct {
	ACutoff decimal.Decimal `json:"a_cutoff"`
	BCutoff decimal.Decimal `json:"b_cutoff"`
}

// DefaultThresholds returns the standard Pareto split (70% / 90%).
func DefaultThresholds() ABCThresholds {
	return ABCThresholds{
		ACutoff: decimal.NewFromFloat(0.70),
		BCutoff: decimal.NewFromFloat(0.90),
	}
}

// Valid reports whether the cut points form a usable ladder.
func (t ABCThresholds) Valid() bool {
	return t.ACutoff.IsPositive() &&
		t.ACutoff.LessThan(decimal.NewFromInt(1)) &&
		t.BCutoff.GreaterThan(t.ACutoff) &&
		t.BCutoff.LessThan(decimal.NewFromInt(1))
}

// MatrixSnapshot is one computed classification for one pharmacy and window,
// together with the reference-data warnings raised while computing it. A
// snapshot is internally consistent: all of it comes from one read of the
// source data.
type MatrixSnapshot struct {
	PharmacyID     string         `json:"pharmacy_id"`
	Window         Window         `json:"window"`
	Classification Classification `json:"classification"`
	Warnings       []Warning      `json:"warnings,omitempty"`
	ComputedAt     time.Time      `json:"computed_at"`
}
