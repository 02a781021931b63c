package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/taller-facturacion/internal/application/analytics"
)

// DashboardHandler maneja los endpoints del tablero.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary devuelve el resumen del usuario.
// GET /api/dashboard/summary
//
// Respuesta: DashboardSummaryDTO (invoice_count, customer_count, total_revenue,
// overdue_count, pending_count, recent_invoices[5], date_label).
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	summary, err := h.uc.GetSummary(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}
