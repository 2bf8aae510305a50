package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rewear-app/exchange-api/internal/core/ports"
)

// DashboardHandler serves the per-user dashboard aggregate.
type DashboardHandler struct {
	service ports.DashboardService
}

func NewDashboardHandler(service ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// View returns the caller's items, recent trades, and computed stats.
//
// @Summary      Dashboard aggregate
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.DashboardView
// @Failure      401  {object}  errorResponse
// @Router       /dashboard [get]
func (h *DashboardHandler) View(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	view, err := h.service.View(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, view)
}
