package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
)

// abcBand is the ordinal form of an ABC class, used for the crossing rule.
type abcBand int

const (
	bandA abcBand = iota
	bandB
	bandC
)

func (b abcBand) class() domain.ABCClass {
	switch b {
	case bandA:
		return domain.ABCClassA
	case bandB:
		return domain.ABCClassB
	default:
		return domain.ABCClassC
	}
}

// ClassifyMatrix assigns each consumed product an ABC class by cumulative
// consumption-value ranking, pairs it with its V/E/D label, and aggregates
// the nine-cell matrix.
//
// Records with zero quantity cannot be ranked and are excluded. Ranking is
// by consumption value descending, ties broken by product ID ascending, so
// identical inputs always classify identically. A product missing from the
// criticality map defaults to D and is flagged.
//
// Band assignment: a product whose cumulative share stays within a band gets
// that band; a product whose cumulative share crosses a boundary is assigned
// the band it crosses into (at most one band past where its predecessor's
// cumulative share sat). When the grand total is zero every record is class
// C rather than dividing by zero.
func ClassifyMatrix(records []domain.ConsumptionRecord, labels map[string]domain.VEDClass, thresholds domain.ABCThresholds) (domain.Classification, []domain.Warning) {
	if !thresholds.Valid() {
		thresholds = domain.DefaultThresholds()
	}

	ranked := make([]domain.ConsumptionRecord, 0, len(records))
	for _, rec := range records {
		if rec.TotalQty == 0 {
			continue
		}
		ranked = append(ranked, rec)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		cmp := ranked[i].ConsumptionValue.Cmp(ranked[j].ConsumptionValue)
		if cmp != 0 {
			return cmp > 0
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	grandTotal := decimal.Zero
	for _, rec := range ranked {
		grandTotal = grandTotal.Add(rec.ConsumptionValue)
	}

	// Boundaries in absolute value terms: comparing running sums against
	// grandTotal*cutoff stays exact where a division would not.
	aBound := grandTotal.Mul(thresholds.ACutoff)
	bBound := grandTotal.Mul(thresholds.BCutoff)
	degenerate := grandTotal.IsZero()

	bandOf := func(cumulative decimal.Decimal) abcBand {
		if cumulative.LessThanOrEqual(aBound) {
			return bandA
		}
		if cumulative.LessThanOrEqual(bBound) {
			return bandB
		}
		return bandC
	}

	items := make([]domain.ClassifiedProduct, 0, len(ranked))
	var warnings []domain.Warning

	cellCount := make(map[domain.CellKey]int, 9)
	cellValue := make(map[domain.CellKey]decimal.Decimal, 9)
	for _, key := range domain.AllCellKeys() {
		cellCount[key] = 0
		cellValue[key] = decimal.Zero
	}

	bandValue := map[domain.ABCClass]decimal.Decimal{
		domain.ABCClassA: decimal.Zero,
		domain.ABCClassB: decimal.Zero,
		domain.ABCClassC: decimal.Zero,
	}

	running := decimal.Zero
	for _, rec := range ranked {
		var abc domain.ABCClass
		if degenerate {
			abc = domain.ABCClassC
		} else {
			before := bandOf(running)
			running = running.Add(rec.ConsumptionValue)
			after := bandOf(running)
			// A product crossing a boundary enters the next band; it
			// never jumps straight past one.
			if after > before+1 {
				after = before + 1
			}
			abc = after.class()
		}

		ved, ok := labels[rec.ProductID]
		if !ok || !ved.Valid() {
			ved = domain.VEDClassDesirable
			warnings = append(warnings, domain.MissingCriticalityWarning(rec.ProductID))
		}

		item := domain.ClassifiedProduct{
			ConsumptionRecord: rec,
			ABCClass:          abc,
			VEDClass:          ved,
		}
		items = append(items, item)

		cell := item.Cell()
		cellCount[cell]++
		cellValue[cell] = cellValue[cell].Add(rec.ConsumptionValue)
		bandValue[abc] = bandValue[abc].Add(rec.ConsumptionValue)
	}

	coverage := domain.Coverage{
		PctA: decimal.Zero,
		PctB: decimal.Zero,
		PctC: decimal.Zero,
	}
	if !degenerate {
		hundred := decimal.NewFromInt(100)
		coverage.PctA = bandValue[domain.ABCClassA].Mul(hundred).Div(grandTotal).Round(2)
		coverage.PctB = bandValue[domain.ABCClassB].Mul(hundred).Div(grandTotal).Round(2)
		coverage.PctC = bandValue[domain.ABCClassC].Mul(hundred).Div(grandTotal).Round(2)
	}

	return domain.Classification{
		Items:     items,
		CellCount: cellCount,
		CellValue: cellValue,
		Coverage:  coverage,
	}, warnings
}
