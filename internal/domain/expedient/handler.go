package expedient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/occumed/occumed/internal/platform/auth"
	"github.com/occumed/occumed/internal/platform/db"
	"github.com/occumed/occumed/internal/platform/render"
	"github.com/occumed/occumed/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("admin", "physician", "nurse", "receptionist")
	g := api.Group("", role)
	g.POST("/expedients", h.CreateExpedient)
	g.GET("/expedients", h.ListExpedients)
	g.GET("/expedients/:id", h.GetExpedient)
	g.PATCH("/expedients/:id/notes", h.UpdateNotes)
	g.POST("/expedients/:id/transition", h.RequestTransition)
	g.POST("/expedients/:id/cancel", h.Cancel)
	g.POST("/expedients/:id/archive", h.Archive)
}

func (h *Handler) CreateExpedient(c echo.Context) error {
	var e Expedient
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateExpedient(c.Request().Context(), &e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetExpedient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.GetExpedient(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "expedient not found")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListExpedients(c echo.Context) error {
	pg := pagination.FromContext(c)
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.ListExpedients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type transitionRequest struct {
	TargetStatus Status `json:"target_status"`
}

func (h *Handler) RequestTransition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.TargetStatus == StatusValidated {
		// VALIDATED is only ever entered by signing the open validation task.
		return echo.NewHTTPError(http.StatusConflict, "expedients enter VALIDATED through a signed validation task")
	}
	e, err := h.svc.RequestTransition(c.Request().Context(), id, req.TargetStatus)
	if err != nil {
		return transitionError(e, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.CancelExpedient(c.Request().Context(), id)
	if err != nil {
		return transitionError(e, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Archive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.MarkArchived(c.Request().Context(), id)
	if err != nil {
		return transitionError(e, err)
	}
	return c.JSON(http.StatusOK, e)
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

func (h *Handler) UpdateNotes(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.UpdateNotes(c.Request().Context(), id, req.Notes)
	if err != nil {
		if errors.Is(err, db.ErrVersionConflict) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "expedient not found")
	}
	return c.JSON(http.StatusOK, e)
}

func transitionError(e *Expedient, err error) error {
	var invalid *InvalidTransitionError
	var dep *render.DependencyError
	switch {
	case errors.As(err, &invalid):
		return echo.NewHTTPError(http.StatusConflict, invalid.Error())
	case errors.Is(err, db.ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &dep):
		// The transition itself committed; only the side effect failed.
		return echo.NewHTTPError(http.StatusBadGateway, dep.Error())
	case e == nil:
		return echo.NewHTTPError(http.StatusNotFound, "expedient not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
