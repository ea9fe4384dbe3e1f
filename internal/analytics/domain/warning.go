package domain

import "fmt"

// WarningKind identifies a class of recoverable data problem. Warnings are
// values, not errors: one bad record never aborts a computation. Callers
// decide whether to log, surface, or ignore them.
type WarningKind string

const (
	// WarnMissingCost flags a sale line whose product is absent from the
	// cost catalog. The product stays in the aggregation with cost 0.
	WarnMissingCost WarningKind = "missing_cost"
	// WarnMissingCriticality flags a product with no V/E/D label. The
	// product is classified with the default label D.
	WarnMissingCriticality WarningKind = "missing_criticality"
	// WarnBatchIntegrity flags a lot whose counters are inconsistent
	// (sold + disposed exceeding delivered). Availability is clamped to
	// zero instead of going negative.
	WarnBatchIntegrity WarningKind = "batch_integrity"
)

// Warning carries enough structured detail (which product, which lot, which
// field) for the host to decide how to display it.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	ProductID string      `json:"product_id,omitempty"`
	LotID     string      `json:"lot_id,omitempty"`
	Field     string      `json:"field,omitempty"`
	Message   string      `json:"message"`
}

// MissingCostWarning flags a product absent from the cost catalog.
func MissingCostWarning(productID string) Warning {
	return Warning{
		Kind:      WarnMissingCost,
		ProductID: productID,
		Field:     "cost_price",
		Message:   fmt.Sprintf("product %s has no cost record, using 0", productID),
	}
}

// MissingCriticalityWarning flags a product with no V/E/D label.
func MissingCriticalityWarning(productID string) Warning {
	return Warning{
		Kind:      WarnMissingCriticality,
		ProductID: productID,
		Field:     "criticality",
		Message:   fmt.Sprintf("product %s has no criticality label, defaulting to D", productID),
	}
}

// BatchIntegrityWarning flags a lot with inconsistent counters.
func BatchIntegrityWarning(lotID, productID string, delivered, sold, disposed int) Warning {
	return Warning{
		Kind:      WarnBatchIntegrity,
		ProductID: productID,
		LotID:     lotID,
		Message: fmt.Sprintf("lot %s: sold %d + disposed %d exceeds delivered %d",
			lotID, sold, disposed, delivered),
	}
}
