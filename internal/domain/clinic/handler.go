package clinic

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/occumed/occumed/internal/platform/auth"
)

// Clinics are few and change rarely, so the handler talks to the repository
// directly.
type Handler struct {
	clinics ClinicRepository
}

func NewHandler(clinics ClinicRepository) *Handler {
	return &Handler{clinics: clinics}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "receptionist"))
	read.GET("/clinics", h.ListClinics)
	read.GET("/clinics/:id", h.GetClinic)

	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/clinics", h.CreateClinic)
}

func (h *Handler) CreateClinic(c echo.Context) error {
	var cl Clinic
	if err := c.Bind(&cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if cl.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "clinic name is required")
	}
	if err := h.clinics.Create(c.Request().Context(), &cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, cl)
}

func (h *Handler) GetClinic(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cl, err := h.clinics.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "clinic not found")
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) ListClinics(c echo.Context) error {
	items, err := h.clinics.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Clinic{}
	}
	return c.JSON(http.StatusOK, items)
}
