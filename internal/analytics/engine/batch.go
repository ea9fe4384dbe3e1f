package engine

import (
	"fmt"
	"time"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/pkg/errors"
)

// ResolveBatch derives the sellable position of one lot at the given instant.
//
// Expiry dominates quantity: an expired lot has zero availability no matter
// what the counters say. Net delivered stock is delivered minus disposed;
// availability additionally subtracts sold and clamps at zero. Inconsistent
// counters (sold + disposed exceeding delivered) raise an integrity warning
// naming the lot instead of failing; the warning is nil when the counters
// are consistent. Missing delivered_qty or expiry_date is a hard validation
// error, since neither availability nor expiry state can be derived without
// them.
func ResolveBatch(lot domain.Lot, now time.Time, expiringSoonDays int) (domain.BatchAvailability, *domain.Warning, error) {
	details := map[string]string{}
	if lot.DeliveredQty == nil {
		details["delivered_qty"] = "required"
	}
	if lot.ExpiryDate == nil {
		details["expiry_date"] = "required"
	}
	if len(details) > 0 {
		details["lot_id"] = lot.ID
		return domain.BatchAvailability{}, nil, errors.Validation(details)
	}

	delivered := *lot.DeliveredQty
	expiry := *lot.ExpiryDate

	// Inconsistent counters are reported, never hidden: the clamp below
	// keeps availability non-negative, the warning names the lot.
	var warning *domain.Warning
	if lot.SoldQty+lot.DisposedQty > delivered {
		w := domain.BatchIntegrityWarning(lot.ID, lot.ProductID, delivered, lot.SoldQty, lot.DisposedQty)
		warning = &w
	}

	net := delivered - lot.DisposedQty

	expired := !expiry.After(now)

	available := 0
	if !expired {
		available = net - lot.SoldQty
		if available < 0 {
			available = 0
		}
	}

	days := int(expiry.Sub(now).Hours() / 24)

	state := domain.BatchStateSafe
	switch {
	case expired:
		state = domain.BatchStateExpired
	case days <= expiringSoonDays:
		state = domain.BatchStateExpiringSoon
	}

	return domain.BatchAvailability{
		LotID:           lot.ID,
		ProductID:       lot.ProductID,
		ProductName:     lot.ProductName,
		BatchNumber:     lot.BatchNumber,
		DeliveredNet:    net,
		AvailableQty:    available,
		IsExpired:       expired,
		State:           state,
		ExpiryDate:      expiry,
		DaysUntilExpiry: days,
	}, warning, nil
}

// ResolveBatches resolves every lot, isolating per-lot validation failures:
// a lot with broken reference data is skipped and reported as a warning so
// one bad row never hides the rest of the stock picture.
func ResolveBatches(lots []domain.Lot, now time.Time, expiringSoonDays int) ([]domain.BatchAvailability, []domain.Warning) {
	out := make([]domain.BatchAvailability, 0, len(lots))
	var warnings []domain.Warning

	for _, lot := range lots {
		avail, warn, err := ResolveBatch(lot, now, expiringSoonDays)
		if err != nil {
			warnings = append(warnings, domain.Warning{
				Kind:    domain.WarnBatchIntegrity,
				LotID:   lot.ID,
				Message: fmt.Sprintf("lot %s skipped: %v", lot.ID, err),
			})
			continue
		}
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		out = append(out, avail)
	}

	return out, warnings
}
