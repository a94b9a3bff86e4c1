package rootfolder

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for root folder operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new root folder handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the root folder routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
}

// List returns all destination roots.
// GET /api/v1/destinations
func (h *Handlers) List(c echo.Context) error {
	folders, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, folders)
}
