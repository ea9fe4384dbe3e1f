package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/engine"
)

func record(id string, qty int, value string) domain.ConsumptionRecord {
	return domain.ConsumptionRecord{
		ProductID:        id,
		Name:             id,
		TotalQty:         qty,
		ConsumptionValue: dec(value),
	}
}

func classOf(c domain.Classification, id string) domain.ABCClass {
	for _, item := range c.Items {
		if item.ProductID == id {
			return item.ABCClass
		}
	}
	return ""
}

func TestClassifyMatrix_BoundaryCrossing(t *testing.T) {
	// Three products worth 1000, 500 and 100 of a 1600 total: the first
	// sits at 62.5% (A), the second crosses the 90% cut and enters B,
	// the last is C.
	records := []domain.ConsumptionRecord{
		record("p1", 10, "1000"),
		record("p2", 10, "500"),
		record("p3", 10, "100"),
	}
	labels := map[string]domain.VEDClass{
		"p1": domain.VEDClassVital,
		"p2": domain.VEDClassEssential,
		"p3": domain.VEDClassDesirable,
	}

	c, warnings := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	tests := []struct {
		id   string
		want domain.ABCClass
	}{
		{"p1", domain.ABCClassA},
		{"p2", domain.ABCClassB},
		{"p3", domain.ABCClassC},
	}
	for _, tt := range tests {
		if got := classOf(c, tt.id); got != tt.want {
			t.Errorf("class(%s) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestClassifyMatrix_CrossingNeverSkipsABand(t *testing.T) {
	// One product carries 95% of value and so crosses both cut points in
	// a single step. It enters the band it crosses into, never skipping
	// one: B, not C. The remainder starts past 90% and is C.
	records := []domain.ConsumptionRecord{
		record("whale", 1, "950"),
		record("minnow", 1, "50"),
	}
	labels := map[string]domain.VEDClass{
		"whale":  domain.VEDClassVital,
		"minnow": domain.VEDClassVital,
	}

	c, _ := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())
	if got := classOf(c, "whale"); got != domain.ABCClassB {
		t.Errorf("class(whale) = %s, want B", got)
	}
	if got := classOf(c, "minnow"); got != domain.ABCClassC {
		t.Errorf("class(minnow) = %s, want C", got)
	}
}

func TestClassifyMatrix_ExactCutUsesLessOrEqual(t *testing.T) {
	// Cumulative share landing exactly on a cut point stays in the lower
	// band: 70 of 100 at the 70% cut is still A.
	records := []domain.ConsumptionRecord{
		record("p1", 1, "70"),
		record("p2", 1, "20"),
		record("p3", 1, "10"),
	}
	labels := map[string]domain.VEDClass{
		"p1": domain.VEDClassVital,
		"p2": domain.VEDClassVital,
		"p3": domain.VEDClassVital,
	}

	c, _ := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())
	if got := classOf(c, "p1"); got != domain.ABCClassA {
		t.Errorf("class(p1) = %s, want A (exactly at the cut)", got)
	}
	if got := classOf(c, "p2"); got != domain.ABCClassB {
		t.Errorf("class(p2) = %s, want B (exactly at the 90%% cut)", got)
	}
	if got := classOf(c, "p3"); got != domain.ABCClassC {
		t.Errorf("class(p3) = %s, want C", got)
	}
}

func TestClassifyMatrix_TieBreakByProductID(t *testing.T) {
	records := []domain.ConsumptionRecord{
		record("b", 1, "100"),
		record("a", 1, "100"),
		record("c", 1, "100"),
	}
	labels := map[string]domain.VEDClass{
		"a": domain.VEDClassVital,
		"b": domain.VEDClassVital,
		"c": domain.VEDClassVital,
	}

	c, _ := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())
	order := []string{c.Items[0].ProductID, c.Items[1].ProductID, c.Items[2].ProductID}
	want := []string{"a", "b", "c"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ranking order = %v, want %v", order, want)
		}
	}
}

func TestClassifyMatrix_ZeroGrandTotalAllC(t *testing.T) {
	records := []domain.ConsumptionRecord{
		record("p1", 5, "0"),
		record("p2", 3, "0"),
	}
	labels := map[string]domain.VEDClass{
		"p1": domain.VEDClassVital,
		"p2": domain.VEDClassEssential,
	}

	c, _ := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())
	if len(c.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(c.Items))
	}
	for _, item := range c.Items {
		if item.ABCClass != domain.ABCClassC {
			t.Errorf("class(%s) = %s, want C when grand total is zero", item.ProductID, item.ABCClass)
		}
	}
	if !c.Coverage.PctA.IsZero() || !c.Coverage.PctB.IsZero() || !c.Coverage.PctC.IsZero() {
		t.Errorf("coverage should be all zero, got %+v", c.Coverage)
	}
}

func TestClassifyMatrix_ZeroQtyExcluded(t *testing.T) {
	records := []domain.ConsumptionRecord{
		record("sold", 2, "50"),
		record("phantom", 0, "0"),
	}
	labels := map[string]domain.VEDClass{"sold": domain.VEDClassVital}

	c, _ := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())
	if len(c.Items) != 1 || c.Items[0].ProductID != "sold" {
		t.Fatalf("items = %v, want only the sold product", c.Items)
	}
}

func TestClassifyMatrix_MissingLabelDefaultsToD(t *testing.T) {
	records := []domain.ConsumptionRecord{
		record("labeled", 1, "80"),
		record("unlabeled", 1, "20"),
	}
	labels := map[string]domain.VEDClass{"labeled": domain.VEDClassVital}

	c, warnings := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())

	var unlabeled *domain.ClassifiedProduct
	for i := range c.Items {
		if c.Items[i].ProductID == "unlabeled" {
			unlabeled = &c.Items[i]
		}
	}
	if unlabeled == nil {
		t.Fatal("unlabeled product missing from classification")
	}
	if unlabeled.VEDClass != domain.VEDClassDesirable {
		t.Errorf("VED class = %s, want D", unlabeled.VEDClass)
	}

	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if warnings[0].Kind != domain.WarnMissingCriticality || warnings[0].ProductID != "unlabeled" {
		t.Errorf("warning = %+v", warnings[0])
	}
}

func TestClassifyMatrix_InvalidLabelDefaultsToD(t *testing.T) {
	records := []domain.ConsumptionRecord{record("p1", 1, "10")}
	labels := map[string]domain.VEDClass{"p1": "X"}

	c, warnings := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())
	if c.Items[0].VEDClass != domain.VEDClassDesirable {
		t.Errorf("VED class = %s, want D for invalid label", c.Items[0].VEDClass)
	}
	if len(warnings) != 1 {
		t.Errorf("got %d warnings, want 1", len(warnings))
	}
}

func TestClassifyMatrix_AllNineCellsPresent(t *testing.T) {
	records := []domain.ConsumptionRecord{
		record("p1", 1, "70"),
		record("p2", 1, "30"),
	}
	labels := map[string]domain.VEDClass{
		"p1": domain.VEDClassVital,
		"p2": domain.VEDClassVital,
	}

	c, _ := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())

	if len(c.CellCount) != 9 || len(c.CellValue) != 9 {
		t.Fatalf("cell maps have %d/%d entries, want 9/9", len(c.CellCount), len(c.CellValue))
	}
	for _, key := range domain.AllCellKeys() {
		if _, ok := c.CellCount[key]; !ok {
			t.Errorf("cell %s missing from counts", key)
		}
		if _, ok := c.CellValue[key]; !ok {
			t.Errorf("cell %s missing from values", key)
		}
	}

	if c.CellCount["A-V"] != 1 || c.CellCount["B-V"] != 1 {
		t.Errorf("counts A-V=%d B-V=%d, want 1 and 1", c.CellCount["A-V"], c.CellCount["B-V"])
	}
	if c.CellCount["C-D"] != 0 {
		t.Errorf("C-D count = %d, want 0", c.CellCount["C-D"])
	}

	total := 0
	for _, key := range domain.AllCellKeys() {
		total += c.CellCount[key]
	}
	if total != len(c.Items) {
		t.Errorf("cell counts sum to %d, want %d classified products", total, len(c.Items))
	}
}

func TestClassifyMatrix_CoverageSumsToHundred(t *testing.T) {
	records := []domain.ConsumptionRecord{
		record("p1", 1, "611.37"),
		record("p2", 1, "245.02"),
		record("p3", 1, "99.99"),
		record("p4", 1, "43.60"),
		record("p5", 1, "7.13"),
	}
	labels := map[string]domain.VEDClass{
		"p1": domain.VEDClassVital,
		"p2": domain.VEDClassVital,
		"p3": domain.VEDClassEssential,
		"p4": domain.VEDClassDesirable,
		"p5": domain.VEDClassDesirable,
	}

	c, _ := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())

	sum := c.Coverage.PctA.Add(c.Coverage.PctB).Add(c.Coverage.PctC)
	diff := sum.Sub(decimal.NewFromInt(100)).Abs()
	if diff.GreaterThan(dec("0.02")) {
		t.Errorf("coverage sums to %s, want 100 within rounding", sum)
	}

	cellSum := decimal.Zero
	for _, v := range c.CellValue {
		cellSum = cellSum.Add(v)
	}
	if !cellSum.Equal(dec("1007.11")) {
		t.Errorf("cell values sum to %s, want the grand total", cellSum)
	}
}

func TestClassifyMatrix_InvalidThresholdsFallBack(t *testing.T) {
	records := []domain.ConsumptionRecord{
		record("p1", 1, "70"),
		record("p2", 1, "30"),
	}
	labels := map[string]domain.VEDClass{
		"p1": domain.VEDClassVital,
		"p2": domain.VEDClassVital,
	}

	bad := domain.ABCThresholds{ACutoff: dec("0.95"), BCutoff: dec("0.40")}
	c, _ := engine.ClassifyMatrix(records, labels, bad)

	// Defaults apply: 70% is exactly the A cut, the rest crosses into B.
	if got := classOf(c, "p1"); got != domain.ABCClassA {
		t.Errorf("class(p1) = %s, want A under default thresholds", got)
	}
	if got := classOf(c, "p2"); got != domain.ABCClassB {
		t.Errorf("class(p2) = %s, want B under default thresholds", got)
	}
}

func TestClassifyMatrix_Deterministic(t *testing.T) {
	records := []domain.ConsumptionRecord{
		record("c", 2, "200"),
		record("a", 1, "300"),
		record("b", 5, "200"),
		record("d", 4, "50"),
	}
	labels := map[string]domain.VEDClass{
		"a": domain.VEDClassVital,
		"b": domain.VEDClassEssential,
		"c": domain.VEDClassEssential,
		"d": domain.VEDClassDesirable,
	}

	first, _ := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())
	for i := 0; i < 20; i++ {
		again, _ := engine.ClassifyMatrix(records, labels, domain.DefaultThresholds())
		for j := range first.Items {
			if first.Items[j].ProductID != again.Items[j].ProductID ||
				first.Items[j].ABCClass != again.Items[j].ABCClass {
				t.Fatalf("run %d: item %d differs (%+v vs %+v)",
					i, j, first.Items[j], again.Items[j])
			}
		}
	}
}
