package handler

import (
	"net/http"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/internal/analytics/service"
	"github.com/pharmalink/pharmalink-backend/pkg/httputil"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
	"github.com/pharmalink/pharmalink-backend/pkg/pharmacy"
)

// DeliveriesHandler handles the per-lot availability endpoint
type DeliveriesHandler struct {
	service *service.AnalyticsService
	logger  *logger.Logger
}

// NewDeliveriesHandler creates a new deliveries handler
func NewDeliveriesHandler(svc *service.AnalyticsService, log *logger.Logger) *DeliveriesHandler {
	return &DeliveriesHandler{
		service: svc,
		logger:  log,
	}
}

// deliveriesResponse carries the availability table plus the data problems
// found while resolving it. Warnings ride along instead of failing the
// request; the UI decides how loudly to show them.
type deliveriesResponse struct {
	Lots     []domain.BatchAvailability `json:"lots"`
	Warnings []domain.Warning           `json:"warnings,omitempty"`
}

// List returns the availability of every active lot, earliest expiry first
func (h *DeliveriesHandler) List(w http.ResponseWriter, r *http.Request) {
	pharmacyID := pharmacy.MustPharmacyID(r.Context())
	productID := r.URL.Query().Get("product_id")

	lots, warnings, err := h.service.Deliveries(r.Context(), pharmacyID, productID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, deliveriesResponse{
		Lots:     lots,
		Warnings: warnings,
	})
}
