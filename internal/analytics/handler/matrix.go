// Package handler exposes the analytics service over HTTP. All routes are
// pharmacy-scoped: the pharmacy ID arrives on the request context, put
// there by the gateway header middleware.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/engine"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/service"
	"github.com/pharmalink/pharmalink-backend/pkg/errors"
	"github.com/pharmalink/pharmalink-backend/pkg/httputil"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/pharmacy"
)

// MatrixHandler handles matrix and cell query endpoints
type MatrixHandler struct {
	service *service.AnalyticsService
	logger  *logger.Logger
}

// NewMatrixHandler creates a new matrix handler
func NewMatrixHandler(svc *service.AnalyticsService, log *logger.Logger) *MatrixHandler {
	return &MatrixHandler{
		service: svc,
		logger:  log,
	}
}

// parseWindow reads the required from/to query parameters as ISO dates.
// The window is closed: the to day runs to its last second.
func parseWindow(r *http.Request) (domain.Window, error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		return domain.Window{}, errors.BadRequest("from and to query parameters are required (YYYY-MM-DD)")
	}

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return domain.Window{}, errors.BadRequest("invalid from date, expected YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return domain.Window{}, errors.BadRequest("invalid to date, expected YYYY-MM-DD")
	}
	if to.Before(from) {
		return domain.Window{}, errors.BadRequest("to must not precede from")
	}

	return domain.Window{
		From: from,
		To:   to.Add(24*time.Hour - time.Second),
	}, nil
}

// cellQueryParams is the validated shape of the cell listing parameters.
type cellQueryParams struct {
	Sort    string `validate:"oneof=value_desc value_asc qty_desc qty_asc name_asc"`
	Page    int    `validate:"min=1"`
	PerPage int    `validate:"min=1,max=100"`
}

// parseCellQuery reads search/sort/page/per_page. Absent parameters take
// defaults; present but unparseable ones fail the request rather than being
// silently corrected.
func parseCellQuery(r *http.Request) (engine.CellQuery, error) {
	params := cellQueryParams{
		Sort:    string(engine.SortValueDesc),
		Page:    1,
		PerPage: 20,
	}

	if s := r.URL.Query().Get("sort"); s != "" {
		params.Sort = s
	}
	if s := r.URL.Query().Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil {
			return engine.CellQuery{}, errors.BadRequest("page must be an integer")
		}
		params.Page = page
	}
	if s := r.URL.Query().Get("per_page"); s != "" {
		perPage, err := strconv.Atoi(s)
		if err != nil {
			return engine.CellQuery{}, errors.BadRequest("per_page must be an integer")
		}
		params.PerPage = perPage
	}

	if err := httputil.Validate(params); err != nil {
		return engine.CellQuery{}, err
	}

	return engine.CellQuery{
		Search:   r.URL.Query().Get("search"),
		Sort:     engine.SortKey(params.Sort),
		Page:     params.Page,
		PageSize: params.PerPage,
	}, nil
}

// Matrix returns the full classification for the requested window
func (h *MatrixHandler) Matrix(w http.ResponseWriter, r *http.Request) {
	pharmacyID := pharmacy.MustPharmacyID(r.Context())

	window, err := parseWindow(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	snapshot, err := h.service.Matrix(r.Context(), pharmacyID, window)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, snapshot)
}

// Cell returns one page of a matrix cell's contents
func (h *MatrixHandler) Cell(w http.ResponseWriter, r *http.Request) {
	pharmacyID := pharmacy.MustPharmacyID(r.Context())
	cell := domain.CellKey(chi.URLParam(r, "cell"))

	window, err := parseWindow(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	query, err := parseCellQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	page, err := h.service.CellPage(r.Context(), pharmacyID, window, cell, query)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := page.TotalMatching / query.PageSize
	if page.TotalMatching%query.PageSize > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, page.Items, &httputil.Meta{
		Page:       query.Page,
		PerPage:    query.PageSize,
		Total:      int64(page.TotalMatching),
		TotalPages: totalPages,
	})
}
