// Package engine implements the inventory prioritization core: consumption
// aggregation, ABC-VED matrix classification, cell querying with CSV
// projection, and batch availability resolution. Every function is a pure
// transformation over an input snapshot; the caller owns I/O, caching and
// clock policy.
package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
)

// AggregateConsumption folds eligible sale lines into one consumption record
// per distinct product. A line is eligible when its completion time falls
// inside the closed window; status filtering happens upstream where the
// lines are fetched. Products absent from the cost catalog are kept with
// cost 0 and flagged, never dropped. An empty input yields an empty slice.
func AggregateConsumption(lines []domain.SaleLine, catalog map[string]domain.ProductCost, window domain.Window) ([]domain.ConsumptionRecord, []domain.Warning) {
	totals := make(map[string]int)
	for _, line := range lines {
		if !window.Contains(line.CompletedAt) {
			continue
		}
		totals[line.ProductID] += line.Quantity
	}

	records := make([]domain.ConsumptionRecord, 0, len(totals))
	var warnings []domain.Warning

	for productID, qty := range totals {
		rec := domain.ConsumptionRecord{
			ProductID: productID,
			TotalQty:  qty,
		}

		if cost, ok := catalog[productID]; ok {
			rec.Name = cost.Name
			rec.CategoryName = cost.CategoryName
			rec.CostPrice = cost.CostPrice
		} else {
			rec.CostPrice = decimal.Zero
			warnings = append(warnings, domain.MissingCostWarning(productID))
		}

		rec.ConsumptionValue = rec.CostPrice.Mul(decimal.NewFromInt(int64(qty)))
		records = append(records, rec)
	}

	// Map iteration order is random; fix it so identical inputs always
	// produce identical output, warnings included.
	sort.Slice(records, func(i, j int) bool {
		return records[i].ProductID < records[j].ProductID
	})
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].ProductID < warnings[j].ProductID
	})

	return records, warnings
}
