package company

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/occumed/occumed/internal/platform/auth"
	"github.com/occumed/occumed/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "receptionist"))
	read.GET("/companies", h.ListCompanies)
	read.GET("/companies/:id", h.GetCompany)

	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/companies", h.CreateCompany)
	write.PUT("/companies/:id", h.UpdateCompany)
}

func (h *Handler) CreateCompany(c echo.Context) error {
	var co Company
	if err := c.Bind(&co); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateCompany(c.Request().Context(), &co); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, co)
}

func (h *Handler) GetCompany(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	co, err := h.svc.GetCompany(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "company not found")
	}
	return c.JSON(http.StatusOK, co)
}

func (h *Handler) ListCompanies(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListCompanies(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateCompany(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var co Company
	if err := c.Bind(&co); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	co.ID = id
	if err := h.svc.UpdateCompany(c.Request().Context(), &co); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, co)
}
