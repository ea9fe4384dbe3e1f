package engine_test

import (
	"testing"

	appErrors "github.com/pharmalink/pharmalink-backend/pkg/errors"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/engine"
)

func classified(id, name string, qty int, value string, abc domain.ABCClass, ved domain.VEDClass) domain.ClassifiedProduct {
	return domain.ClassifiedProduct{
		ConsumptionRecord: domain.ConsumptionRecord{
			ProductID:        id,
			Name:             name,
			TotalQty:         qty,
			ConsumptionValue: dec(value),
		},
		ABCClass: abc,
		VEDClass: ved,
	}
}

func avCell() []domain.ClassifiedProduct {
	return []domain.ClassifiedProduct{
		classified("p1", "Amoxicillin 500", 12, "360.00", domain.ABCClassA, domain.VEDClassVital),
		classified("p2", "Insulin Glargine", 4, "980.00", domain.ABCClassA, domain.VEDClassVital),
		classified("p3", "Metformin 850", 30, "120.00", domain.ABCClassA, domain.VEDClassVital),
		classified("p4", "Amlodipine 5", 18, "54.00", domain.ABCClassA, domain.VEDClassVital),
		classified("p5", "Enoxaparin 40", 6, "720.00", domain.ABCClassA, domain.VEDClassVital),
		classified("p6", "Paracetamol 500", 90, "99.00", domain.ABCClassC, domain.VEDClassDesirable),
	}
}

func badRequest(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var appErr *appErrors.AppError
	if !appErrors.As(err, &appErr) {
		t.Fatalf("error %v is not an AppError", err)
	}
	if appErr.StatusCode != 400 {
		t.Errorf("status = %d, want 400", appErr.StatusCode)
	}
}

func TestQueryCell_FiltersToCell(t *testing.T) {
	page, err := engine.QueryCell(avCell(), "A-V", engine.CellQuery{
		Sort: engine.SortNameAsc, Page: 1, PageSize: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalMatching != 5 {
		t.Fatalf("total = %d, want 5 (the C-D product excluded)", page.TotalMatching)
	}
	for _, item := range page.Items {
		if item.ABCClass != domain.ABCClassA || item.VEDClass != domain.VEDClassVital {
			t.Errorf("item %s from wrong cell %s", item.ProductID, item.Cell())
		}
	}
}

func TestQueryCell_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	page, err := engine.QueryCell(avCell(), "A-V", engine.CellQuery{
		Search: "XICIll", Sort: engine.SortNameAsc, Page: 1, PageSize: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalMatching != 1 {
		t.Fatalf("total = %d, want 1", page.TotalMatching)
	}
	if page.Items[0].Name != "Amoxicillin 500" {
		t.Errorf("item = %q, want Amoxicillin 500", page.Items[0].Name)
	}
}

func TestQueryCell_SortKeys(t *testing.T) {
	tests := []struct {
		sort  engine.SortKey
		first string
		last  string
	}{
		{engine.SortValueDesc, "p2", "p4"},
		{engine.SortValueAsc, "p4", "p2"},
		{engine.SortQtyDesc, "p3", "p2"},
		{engine.SortQtyAsc, "p2", "p3"},
		{engine.SortNameAsc, "p4", "p3"},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			page, err := engine.QueryCell(avCell(), "A-V", engine.CellQuery{
				Sort: tt.sort, Page: 1, PageSize: 10,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			n := len(page.Items)
			if page.Items[0].ProductID != tt.first || page.Items[n-1].ProductID != tt.last {
				t.Errorf("order first=%s last=%s, want first=%s last=%s",
					page.Items[0].ProductID, page.Items[n-1].ProductID, tt.first, tt.last)
			}
		})
	}
}

func TestQueryCell_PaginationReconstructsFullSet(t *testing.T) {
	items := avCell()

	var seen []string
	for page := 1; ; page++ {
		got, err := engine.QueryCell(items, "A-V", engine.CellQuery{
			Sort: engine.SortValueDesc, Page: page, PageSize: 2,
		})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if got.TotalMatching != 5 {
			t.Fatalf("page %d: total = %d, want 5", page, got.TotalMatching)
		}
		if len(got.Items) == 0 {
			break
		}
		for _, item := range got.Items {
			seen = append(seen, item.ProductID)
		}
	}

	want := []string{"p2", "p5", "p1", "p3", "p4"}
	if len(seen) != len(want) {
		t.Fatalf("concatenated pages = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("concatenated pages = %v, want %v", seen, want)
		}
	}
}

func TestQueryCell_PageBeyondEnd(t *testing.T) {
	page, err := engine.QueryCell(avCell(), "A-V", engine.CellQuery{
		Sort: engine.SortValueDesc, Page: 4, PageSize: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("got %d items, want empty page", len(page.Items))
	}
	if page.TotalMatching != 5 {
		t.Errorf("total = %d, want 5 even on an empty page", page.TotalMatching)
	}
}

func TestQueryCell_InvalidParameters(t *testing.T) {
	items := avCell()

	t.Run("bad cell key", func(t *testing.T) {
		_, err := engine.QueryCell(items, "Z-V", engine.CellQuery{
			Sort: engine.SortValueDesc, Page: 1, PageSize: 10,
		})
		badRequest(t, err)
	})

	t.Run("bad sort key", func(t *testing.T) {
		_, err := engine.QueryCell(items, "A-V", engine.CellQuery{
			Sort: "price_desc", Page: 1, PageSize: 10,
		})
		badRequest(t, err)
	})

	t.Run("page zero", func(t *testing.T) {
		_, err := engine.QueryCell(items, "A-V", engine.CellQuery{
			Sort: engine.SortValueDesc, Page: 0, PageSize: 10,
		})
		badRequest(t, err)
	})

	t.Run("page size zero", func(t *testing.T) {
		_, err := engine.QueryCell(items, "A-V", engine.CellQuery{
			Sort: engine.SortValueDesc, Page: 1, PageSize: 0,
		})
		badRequest(t, err)
	})
}

func TestMatchCell_StableSortOnTies(t *testing.T) {
	items := []domain.ClassifiedProduct{
		classified("p1", "Alpha", 5, "100", domain.ABCClassA, domain.VEDClassVital),
		classified("p2", "Beta", 5, "100", domain.ABCClassA, domain.VEDClassVital),
		classified("p3", "Gamma", 5, "100", domain.ABCClassA, domain.VEDClassVital),
	}

	for i := 0; i < 10; i++ {
		matched, err := engine.MatchCell(items, "A-V", "", engine.SortValueDesc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Equal values keep input order on every run.
		if matched[0].ProductID != "p1" || matched[1].ProductID != "p2" || matched[2].ProductID != "p3" {
			t.Fatalf("run %d: tie order changed: %s %s %s",
				i, matched[0].ProductID, matched[1].ProductID, matched[2].ProductID)
		}
	}
}
