package study

import (
	"fmt"
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
	role := auth.RequireRole("admin", "physician", "nurse", "technician")
	g := api.Group("", role)
	g.POST("/expedients/:expedientId/studies", h.UploadStudy)
	g.GET("/expedients/:expedientId/studies", h.ListStudies)
	g.GET("/studies/:id", h.GetStudy)
	g.GET("/studies/:id/file", h.DownloadArtifact)
	g.GET("/studies/:id/data-points", h.ListDataPoints)
	g.POST("/studies/:id/data-points", h.AddDataPoint)
}

func (h *Handler) UploadStudy(c echo.Context) error {
	expedientID, err := uuid.Parse(c.Param("expedientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expedient id")
	}
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()

	st := &Study{
		ExpedientID: expedientID,
		Type:        c.FormValue("study_type"),
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		UploadedBy:  auth.UserIDFromContext(c.Request().Context()),
	}
	if err := h.svc.UploadStudy(c.Request().Context(), st, src); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) GetStudy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	st, err := h.svc.GetStudy(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "study not found")
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ListStudies(c echo.Context) error {
	expedientID, err := uuid.Parse(c.Param("expedientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expedient id")
	}
	if c.QueryParam("include") == "data-points" {
		items, err := h.svc.ListByExpedientWithPoints(c.Request().Context(), expedientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if items == nil {
			items = []*StudyWithPoints{}
		}
		return c.JSON(http.StatusOK, items)
	}
	items, err := h.svc.ListByExpedient(c.Request().Context(), expedientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Study{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DownloadArtifact(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rc, st, err := h.svc.DownloadArtifact(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "study artifact not found")
	}
	defer rc.Close()
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, st.FileName))
	return c.Stream(http.StatusOK, st.ContentType, rc)
}

func (h *Handler) ListDataPoints(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListDataPoints(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*ExtractedDataPoint{}
	}
	return c.JSON(http.StatusOK, items)
}

// AddDataPoint is the manual-entry path for extracted facts; the extraction
// consumer feeds the same service method.
func (h *Handler) AddDataPoint(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p ExtractedDataPoint
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.StudyID = id
	if err := h.svc.IngestDataPoint(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}
