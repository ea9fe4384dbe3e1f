package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/pkg/errors"
)

// SortKey selects the ordering of a cell query.
type SortKey string

const (
	SortValueDesc SortKey = "value_desc"
	SortValueAsc  SortKey = "value_asc"
	SortQtyDesc   SortKey = "qty_desc"
	SortQtyAsc    SortKey = "qty_asc"
	SortNameAsc   SortKey = "name_asc"
)

// CellQuery is one page request against a matrix cell.
type CellQuery struct {
	Search   string  `json:"search"`
	Sort     SortKey `json:"sort"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// CellPage is the result of a cell query: one page of items plus the total
// matching count for the pagination UI.
type CellPage struct {
	Items         []domain.ClassifiedProduct `json:"items"`
	TotalMatching int                        `json:"total_matching"`
}

// MatchCell returns the full filtered and sorted contents of one matrix
// cell. The name filter is a case-insensitive substring match. Sorting is
// stable: equal keys keep their prior relative order, so repeated identical
// queries are reproducible.
func MatchCell(items []domain.ClassifiedProduct, cell domain.CellKey, search string, sortKey SortKey) ([]domain.ClassifiedProduct, error) {
	abc, ved, err := domain.ParseCellKey(string(cell))
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	needle := strings.ToLower(search)

	matched := make([]domain.ClassifiedProduct, 0)
	for _, item := range items {
		if item.ABCClass != abc || item.VEDClass != ved {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
			continue
		}
		matched = append(matched, item)
	}

	var less func(i, j int) bool
	switch sortKey {
	case SortValueDesc:
		less = func(i, j int) bool {
			return matched[i].ConsumptionValue.GreaterThan(matched[j].ConsumptionValue)
		}
	case SortValueAsc:
		less = func(i, j int) bool {
			return matched[i].ConsumptionValue.LessThan(matched[j].ConsumptionValue)
		}
	case SortQtyDesc:
		less = func(i, j int) bool { return matched[i].TotalQty > matched[j].TotalQty }
	case SortQtyAsc:
		less = func(i, j int) bool { return matched[i].TotalQty < matched[j].TotalQty }
	case SortNameAsc:
		less = func(i, j int) bool { return matched[i].Name < matched[j].Name }
	default:
		return nil, errors.BadRequest(fmt.Sprintf("unknown sort key %q", sortKey))
	}

	sort.SliceStable(matched, less)

	return matched, nil
}

// QueryCell filters, sorts and pages the contents of one matrix cell.
// Filtering and sorting always apply to the full matching set before
// pagination. A page past the end returns an empty slice with the total
// count intact, not an error; invalid parameters fail the call.
func QueryCell(items []domain.ClassifiedProduct, cell domain.CellKey, q CellQuery) (CellPage, error) {
	if q.Page < 1 {
		return CellPage{}, errors.BadRequest(fmt.Sprintf("page must be at least 1, got %d", q.Page))
	}
	if q.PageSize < 1 {
		return CellPage{}, errors.BadRequest(fmt.Sprintf("page size must be at least 1, got %d", q.PageSize))
	}

	matched, err := MatchCell(items, cell, q.Search, q.Sort)
	if err != nil {
		return CellPage{}, err
	}

	start := (q.Page - 1) * q.PageSize
	if start >= len(matched) {
		return CellPage{
			Items:         []domain.ClassifiedProduct{},
			TotalMatching: len(matched),
		}, nil
	}

	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	return CellPage{
		Items:         matched[start:end],
		TotalMatching: len(matched),
	}, nil
}
