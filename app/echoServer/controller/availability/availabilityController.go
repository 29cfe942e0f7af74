package availability

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gearrental/app/metrics"
	"gearrental/model"
	av "gearrental/service/availability"
	ks "gearrental/service/kit"
	"gearrental/util/daterange"

	"github.com/labstack/echo/v4"
)

// KitUnavailableNotice is returned when accessory lookup failed and only the
// primary item could be checked.
const KitUnavailableNotice = "accessory recommendations are temporarily unavailable"

type Controller struct {
	Svc ks.Service
	Log *slog.Logger
	M   *metrics.Metrics
}

type query struct {
	id       int64
	r        daterange.Range
	quantity int
}

// parse reads :id, start, end and quantity. Range ordering is left to the
// service so that it reports INVALID_RANGE itself.
func parse(c echo.Context) (query, string) {
	var q query
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return q, "invalid id"
	}
	q.id = id

	start, err := daterange.ParseDate(c.QueryParam("start"))
	if err != nil {
		return q, "invalid start date"
	}
	end, err := daterange.ParseDate(c.QueryParam("end"))
	if err != nil {
		return q, "invalid end date"
	}
	q.r = daterange.Range{Start: start, End: end}

	q.quantity = 1
	if s := c.QueryParam("quantity"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, "invalid quantity"
		}
		q.quantity = n
	}
	return q, ""
}

func toResp(res model.AvailabilityResult) CheckResp {
	return CheckResp{AvailabilityResult: res, Message: av.Message(res)}
}

// Check godoc
// @Summary      Check availability of one item
// @Tags         availability
// @Produce      json
// @Param        id        path  int    true  "equipment id"
// @Param        start     query string true  "YYYY-MM-DD"
// @Param        end       query string true  "YYYY-MM-DD"
// @Param        quantity  query int    false "defaults to 1"
// @Success      200 {object} CheckResp
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /v1/equipment/{id}/availability [get]
func (h *Controller) Check(c echo.Context) error {
	q, msg := parse(c)
	if msg != "" {
		h.M.AvailabilityChecks.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}

	res, err := h.Svc.CheckItem(c.Request().Context(), q.id, q.r, q.quantity)
	if err != nil {
		switch {
		case av.IsValidation(err):
			h.M.AvailabilityChecks.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error(), "code": av.Code(err)})
		case ks.Code(err) == ks.ErrItemNotFound:
			h.M.AvailabilityChecks.WithLabelValues("not_found").Inc()
			return c.JSON(http.StatusNotFound, echo.Map{"message": "equipment not found"})
		default:
			h.M.AvailabilityChecks.WithLabelValues("error").Inc()
			h.Log.Error("availability check", "id", q.id, "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	if res.Available {
		h.M.AvailabilityChecks.WithLabelValues("available").Inc()
	} else {
		h.M.AvailabilityChecks.WithLabelValues("short").Inc()
	}
	return c.JSON(http.StatusOK, toResp(*res))
}

// Kit godoc
// @Summary      Resolve a rental kit for a primary item
// @Description  Falls back to a primary-only answer with a notice when accessories cannot be resolved.
// @Tags         availability
// @Produce      json
// @Param        id        path  int    true  "primary equipment id"
// @Param        start     query string true  "YYYY-MM-DD"
// @Param        end       query string true  "YYYY-MM-DD"
// @Param        quantity  query int    false "defaults to 1"
// @Success      200 {object} KitResp
// @Router       /v1/equipment/{id}/kit [get]
func (h *Controller) Kit(c echo.Context) error {
	q, msg := parse(c)
	if msg != "" {
		h.M.KitResolutions.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}

	ctx := c.Request().Context()
	start := time.Now()
	kit, err := h.Svc.ResolveKit(ctx, q.id, q.r, q.quantity)
	h.M.KitResolveSeconds.Observe(time.Since(start).Seconds())

	if err == nil {
		h.M.KitResolutions.WithLabelValues("ok").Inc()
		slots := kit.Slots
		if slots == nil {
			slots = []model.ResolvedSlot{}
		}
		return c.JSON(http.StatusOK, KitResp{TemplateID: kit.TemplateID, Primary: toResp(kit.Primary), Slots: slots})
	}

	switch {
	case av.IsValidation(err):
		h.M.KitResolutions.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error(), "code": av.Code(err)})
	case ks.Code(err) == ks.ErrItemNotFound:
		h.M.KitResolutions.WithLabelValues("not_found").Inc()
		return c.JSON(http.StatusNotFound, echo.Map{"message": "equipment not found"})
	}

	h.Log.Warn("kit resolve failed, falling back to primary", "id", q.id, "err", err)
	res, perr := h.Svc.CheckItem(ctx, q.id, q.r, q.quantity)
	if perr != nil {
		h.M.KitResolutions.WithLabelValues("error").Inc()
		h.Log.Error("kit fallback", "id", q.id, "err", perr)
		if ks.Code(perr) == ks.ErrItemNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "equipment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	h.M.KitResolutions.WithLabelValues("degraded").Inc()
	return c.JSON(http.StatusOK, KitResp{
		Primary: toResp(*res),
		Slots:   []model.ResolvedSlot{},
		Notice:  KitUnavailableNotice,
	})
}
