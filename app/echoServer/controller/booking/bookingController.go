package booking

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"gearrental/app/echoServer/validation"
	"gearrental/app/metrics"
	av "gearrental/service/availability"
	bs "gearrental/service/booking"
	"gearrental/util/daterange"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc bs.Service
	Log *slog.Logger
	M   *metrics.Metrics
}

func parseDates(start, end string) (daterange.Range, string) {
	s, err := daterange.ParseDate(start)
	if err != nil {
		return daterange.Range{}, "invalid start_date"
	}
	e, err := daterange.ParseDate(end)
	if err != nil {
		return daterange.Range{}, "invalid end_date"
	}
	return daterange.Range{Start: s, End: e}, ""
}

// reserveError maps commit failures to a response.
func (h *Controller) reserveError(c echo.Context, kind string, err error) error {
	if av.IsValidation(err) {
		h.M.BookingCommits.WithLabelValues(kind, "invalid").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error(), "code": av.Code(err)})
	}
	switch bs.Code(err) {
	case bs.ErrNoStock:
		h.M.BookingCommits.WithLabelValues(kind, "no_stock").Inc()
		resp := echo.Map{"message": "no stock available"}
		var se *bs.ShortfallError
		if errors.As(err, &se) {
			resp["equipment_id"] = se.ItemID
			resp["available_quantity"] = se.Available
			resp["message"] = "Only " + strconv.Itoa(se.Available) + " units available for this period"
		}
		return c.JSON(http.StatusConflict, resp)
	case bs.ErrConflict:
		h.M.BookingCommits.WithLabelValues(kind, "conflict").Inc()
		return c.JSON(http.StatusConflict, echo.Map{"message": "booking conflicted with another checkout, please retry"})
	case bs.ErrBadQuantity, bs.ErrBadRange:
		h.M.BookingCommits.WithLabelValues(kind, "invalid").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid booking", "code": bs.Code(err)})
	case bs.ErrPastDate:
		h.M.BookingCommits.WithLabelValues(kind, "invalid").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "start date is in the past"})
	case bs.ErrItemNotFound:
		h.M.BookingCommits.WithLabelValues(kind, "not_found").Inc()
		return c.JSON(http.StatusNotFound, echo.Map{"message": "equipment not found"})
	default:
		h.M.BookingCommits.WithLabelValues(kind, "error").Inc()
		h.Log.Error("booking commit", "kind", kind, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// Create godoc
// @Summary      Reserve one item
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body CreateBookingReq true "booking"
// @Success      201 {object} model.Booking
// @Failure      409 {object} map[string]interface{}
// @Router       /v1/bookings [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Fields(err),
		})
	}
	r, msg := parseDates(req.StartDate, req.EndDate)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}
	uid, _ := c.Get("user_id").(int64)

	b, err := h.Svc.Reserve(c.Request().Context(), uid, bs.ReserveReq{
		EquipmentID: req.EquipmentID,
		Quantity:    req.Quantity,
		Range:       r,
	})
	if err != nil {
		return h.reserveError(c, "single", err)
	}
	h.M.BookingCommits.WithLabelValues("single", "ok").Inc()
	return c.JSON(http.StatusCreated, b)
}

// POST /v1/bookings/kit
func (h *Controller) CreateKit(c echo.Context) error {
	var req CreateKitBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Fields(err),
		})
	}
	r, msg := parseDates(req.StartDate, req.EndDate)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}
	uid, _ := c.Get("user_id").(int64)

	out, err := h.Svc.ReserveKit(c.Request().Context(), uid, bs.KitReserveReq{
		PrimaryID:    req.PrimaryID,
		Quantity:     req.Quantity,
		Range:        r,
		AccessoryIDs: req.AccessoryIDs,
	})
	if err != nil {
		return h.reserveError(c, "kit", err)
	}
	h.M.BookingCommits.WithLabelValues("kit", "ok").Inc()
	return c.JSON(http.StatusCreated, echo.Map{
		"group_id": out.GroupID,
		"bookings": out.Bookings,
	})
}

// POST /v1/bookings/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Svc.Cancel(c.Request().Context(), uid, id); err != nil {
		switch bs.Code(err) {
		case bs.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		case bs.ErrNotCancelable:
			return c.JSON(http.StatusConflict, echo.Map{"message": "booking cannot be canceled"})
		case bs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "booking not found"})
		case bs.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "booking is being modified, please retry"})
		default:
			h.Log.Error("booking cancel", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "canceled"})
}

// GET /v1/bookings/my
func (h *Controller) My(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.MyBookings(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("my bookings", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
