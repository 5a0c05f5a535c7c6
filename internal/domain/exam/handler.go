package exam

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/occumed/occumed/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("admin", "physician", "nurse")
	g := api.Group("", role)
	g.POST("/expedients/:expedientId/exams", h.CreateExam)
	g.GET("/expedients/:expedientId/exams", h.ListExams)
	g.GET("/exams/:id", h.GetExam)
}

func (h *Handler) CreateExam(c echo.Context) error {
	expedientID, err := uuid.Parse(c.Param("expedientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expedient id")
	}
	var e MedicalExam
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.ExpedientID = expedientID
	if e.ExaminerID == "" {
		e.ExaminerID = auth.UserIDFromContext(c.Request().Context())
	}
	if err := h.svc.CreateExam(c.Request().Context(), &e); err != nil {
		var implausible *ImplausibleMeasurementError
		if errors.As(err, &implausible) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, implausible.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetExam(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.GetExam(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "exam not found")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListExams(c echo.Context) error {
	expedientID, err := uuid.Parse(c.Param("expedientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expedient id")
	}
	items, err := h.svc.ListByExpedient(c.Request().Context(), expedientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*MedicalExam{}
	}
	return c.JSON(http.StatusOK, items)
}
