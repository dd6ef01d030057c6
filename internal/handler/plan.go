package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"portal-billing/internal/repository"
)

type PlanHandler struct {
	planRepo repository.PlanRepository
}

func NewPlanHandler(planRepo repository.PlanRepository) *PlanHandler {
	return &PlanHandler{
		planRepo: planRepo,
	}
}

// List returns the active plans the checkout page offers.
func (h *PlanHandler) List(c echo.Context) error {
	plans, err := h.planRepo.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}
