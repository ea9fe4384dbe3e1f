package engine

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
)

// csvHeader matches the tabular projection field names.
var csvHeader = []string{
	"name",
	"category_name",
	"abc_class",
	"ved_class",
	"total_qty",
	"cost_price",
	"consumption_value",
}

// WriteCSV writes classified products as UTF-8 CSV. encoding/csv applies
// RFC 4180 escaping: fields containing a comma, quote or newline are quoted
// and internal quotes doubled.
func WriteCSV(w io.Writer, items []domain.ClassifiedProduct) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, item := range items {
		row := []string{
			item.Name,
			item.CategoryName,
			string(item.ABCClass),
			string(item.VEDClass),
			strconv.Itoa(item.TotalQty),
			item.CostPrice.String(),
			item.ConsumptionValue.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for product %s: %w", item.ProductID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// CSVBytes renders classified products to an in-memory CSV document.
func CSVBytes(items []domain.ClassifiedProduct) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
