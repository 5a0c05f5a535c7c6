package validation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/occumed/occumed/internal/domain/verdict"
	"github.com/occumed/occumed/internal/platform/auth"
	"github.com/occumed/occumed/internal/platform/db"
	"github.com/occumed/occumed/internal/platform/render"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	read.GET("/expedients/:expedientId/validation-tasks", h.ListTasks)
	read.GET("/expedients/:expedientId/completeness", h.Completeness)
	read.GET("/validation-tasks/:id", h.GetTask)

	// Only physicians review and sign.
	write := api.Group("", auth.RequireRole("admin", "physician"))
	write.POST("/validation-tasks/:id/assign", h.Assign)
	write.POST("/validation-tasks/:id/findings", h.RecordFindings)
	write.POST("/validation-tasks/:id/sign", h.Sign)
	write.POST("/validation-tasks/:id/cancel", h.Cancel)
	write.POST("/validation-tasks/:id/render", h.RenderCertificate)
}

func (h *Handler) GetTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.GetTask(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "validation task not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTasks(c echo.Context) error {
	expedientID, err := uuid.Parse(c.Param("expedientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expedient id")
	}
	items, err := h.svc.ListByExpedient(c.Request().Context(), expedientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*ValidationTask{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Completeness(c echo.Context) error {
	expedientID, err := uuid.Parse(c.Param("expedientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expedient id")
	}
	gate, err := h.svc.Gate(c.Request().Context(), expedientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, gate)
}

type assignRequest struct {
	ReviewerID string `json:"reviewer_id"`
}

func (h *Handler) Assign(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ReviewerID == "" {
		req.ReviewerID = auth.UserIDFromContext(c.Request().Context())
	}
	if req.ReviewerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reviewer_id is required")
	}
	t, err := h.svc.Assign(c.Request().Context(), id, req.ReviewerID)
	if err != nil {
		return taskError(t, err)
	}
	return c.JSON(http.StatusOK, t)
}

type findingsRequest struct {
	Findings []verdict.Finding `json:"findings"`
}

func (h *Handler) RecordFindings(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req findingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.RecordFindings(c.Request().Context(), id, req.Findings)
	if err != nil {
		return taskError(t, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Sign(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req SignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.SignedBy = auth.UserIDFromContext(c.Request().Context())

	t, err := h.svc.Sign(c.Request().Context(), id, req)
	if err != nil {
		var dep *render.DependencyError
		if errors.As(err, &dep) && t != nil && t.Status == TaskSigned {
			// The sign-off stands; only the certificate render failed
			// and can be retried on its own.
			return c.JSON(http.StatusOK, map[string]interface{}{
				"task":         t,
				"render_error": dep.Error(),
			})
		}
		return taskError(t, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return taskError(t, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) RenderCertificate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.RenderCertificate(c.Request().Context(), id)
	if err != nil {
		return taskError(t, err)
	}
	return c.JSON(http.StatusOK, t)
}

func taskError(t *ValidationTask, err error) error {
	var transition *TaskTransitionError
	var incomplete *IncompleteExamError
	var dep *render.DependencyError
	switch {
	case errors.Is(err, ErrTaskAlreadyOpen):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &transition):
		return echo.NewHTTPError(http.StatusConflict, transition.Error())
	case errors.As(err, &incomplete):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "completeness gate failed",
			"missing": incomplete.Missing,
		})
	case errors.Is(err, db.ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrOverrideReasonRequired):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &dep):
		return echo.NewHTTPError(http.StatusBadGateway, dep.Error())
	case t == nil:
		return echo.NewHTTPError(http.StatusNotFound, "validation task not found")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
