package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/engine"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/service"
	"github.com/pharmalink/pharmalink-backend/pkg/httputil"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/pharmacy"
)

// ExportHandler handles CSV and XLSX export endpoints
type ExportHandler struct {
	service *service.AnalyticsService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.AnalyticsService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		service: svc,
		logger:  log,
	}
}

// ExportCellCSV serves the full filtered contents of one cell as CSV
func (h *ExportHandler) ExportCellCSV(w http.ResponseWriter, r *http.Request) {
	pharmacyID := pharmacy.MustPharmacyID(r.Context())
	cell := domain.CellKey(chi.URLParam(r, "cell"))

	window, err := parseWindow(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	sort := engine.SortValueDesc
	if s := r.URL.Query().Get("sort"); s != "" {
		sort = engine.SortKey(s)
	}

	csvBytes, err := h.service.ExportCellCSV(r.Context(), pharmacyID, window, cell, r.URL.Query().Get("search"), sort)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	filename := fmt.Sprintf("abc-ved-%s-%s.csv", cell, window.From.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(csvBytes)))
	w.Write(csvBytes)
}

// ExportMatrixXLSX serves the full matrix report as an XLSX workbook
func (h *ExportHandler) ExportMatrixXLSX(w http.ResponseWriter, r *http.Request) {
	pharmacyID := pharmacy.MustPharmacyID(r.Context())

	window, err := parseWindow(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	xlsxBytes, err := h.service.MatrixReportXLSX(r.Context(), pharmacyID, window)
	if err != nil {
		h.logger.Error().Err(err).Str("pharmacy_id", pharmacyID).Msg("failed to generate matrix report")
		httputil.Error(w, err)
		return
	}

	filename := fmt.Sprintf("abc-ved-matrix-%s.xlsx", window.From.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(xlsxBytes)))
	w.Write(xlsxBytes)
}
