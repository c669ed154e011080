package fulfillment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pharmanet/pharmanet/internal/domain/appointment"
	"github.com/pharmanet/pharmanet/internal/domain/inventory"
	"github.com/pharmanet/pharmanet/internal/domain/order"
	"github.com/pharmanet/pharmanet/internal/platform/auth"
)

// Handler serves every mutating endpoint: order placement and transitions,
// stock writes, and patient-initiated appointment changes.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/orders", h.PlaceOrder)
	api.POST("/appointments/:id/cancel", h.CancelAppointment)
	api.POST("/appointments/:id/reschedule", h.RescheduleAppointment)

	staff := api.Group("", auth.RequireRole("admin", "pharmacist", "staff"))
	staff.POST("/orders/:id/status", h.AdvanceOrder)
	staff.POST("/stock", h.AddStock)
	staff.POST("/facilities/:id/stock/:medicineId/adjust", h.AdjustStock)
}

func (h *Handler) PlaceOrder(c echo.Context) error {
	var o order.Order
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.PlaceOrder(c.Request().Context(), &o); err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, o)
}

type advanceRequest struct {
	Status string  `json:"status"`
	Note   *string `json:"note,omitempty"`
}

func (h *Handler) AdvanceOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req advanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var actorID *string
	if uid := auth.UserIDFromContext(ctx); uid != "" {
		actorID = &uid
	}

	o, err := h.svc.AdvanceOrder(ctx, id, order.Status(req.Status), actorID, req.Note)
	if err != nil {
		var invalid *order.InvalidTransitionError
		var short *inventory.InsufficientStockError
		switch {
		case errors.Is(err, order.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.As(err, &invalid):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.As(err, &short):
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"error":      short.Error(),
				"shortfalls": short.Shortfalls,
			})
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) AddStock(c echo.Context) error {
	var e inventory.StockEntry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var actorID *string
	if uid := auth.UserIDFromContext(ctx); uid != "" {
		actorID = &uid
	}

	level, err := h.svc.AddStock(ctx, &e, actorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, level)
}

type adjustRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) AdjustStock(c echo.Context) error {
	facilityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid facility id")
	}
	medicineID, err := uuid.Parse(c.Param("medicineId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medicine id")
	}
	var req adjustRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var actorID *string
	if uid := auth.UserIDFromContext(ctx); uid != "" {
		actorID = &uid
	}

	level, err := h.svc.AdjustStock(ctx, facilityID, medicineID, req.Delta, req.Reason, actorID)
	if err != nil {
		var short *inventory.InsufficientStockError
		switch {
		case errors.Is(err, inventory.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "stock entry not found")
		case errors.As(err, &short):
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"error":      short.Error(),
				"shortfalls": short.Shortfalls,
			})
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, level)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.CancelAppointment(c.Request().Context(), id)
	if err != nil {
		return appointmentError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (h *Handler) RescheduleAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ScheduledAt.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "scheduled_at is required")
	}
	a, err := h.svc.RescheduleAppointment(c.Request().Context(), id, req.ScheduledAt)
	if err != nil {
		return appointmentError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func appointmentError(err error) error {
	var invalid *appointment.InvalidTransitionError
	var cutoff *appointment.CutoffWindowError
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.As(err, &invalid):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &cutoff):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
