package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	cs "gearrental/service/catalog"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc cs.Service
	Log *slog.Logger
}

// ListCategories godoc
// @Summary      List equipment categories
// @Tags         catalog
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /v1/categories [get]
func (h *Controller) ListCategories(c echo.Context) error {
	rows, err := h.Svc.ListCategories(c.Request().Context())
	if err != nil {
		h.Log.Error("list categories", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/categories/:id/equipment
func (h *Controller) ListByCategory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rows, err := h.Svc.ListByCategory(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("list equipment", "category_id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/equipment/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	it, err := h.Svc.GetItem(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("equipment detail", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if it == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "equipment not found"})
	}
	return c.JSON(http.StatusOK, it)
}
