package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tana/tana/internal/library/convert"
)

type convertItem struct {
	Path string `json:"path"`
}

type convertRequest struct {
	Items          []convertItem `json:"items"`
	DeleteOriginal bool          `json:"deleteOriginal"`
}

// scanCBR lists CBR archives under a folder, grouped by series folder.
// Without a path the source directory is scanned.
// GET /api/v1/convert/scan?path=
func (s *Server) scanCBR(c echo.Context) error {
	dir := c.QueryParam("path")
	if dir == "" {
		dir = s.store.Library().SourceDir
	}

	result, err := s.convertService.Scan(c.Request().Context(), dir)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// convertFiles repacks CBR archives as CBZ next to the originals.
// POST /api/v1/convert
func (s *Server) convertFiles(c echo.Context) error {
	var req convertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	paths := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		paths = append(paths, item.Path)
	}

	results, err := s.convertService.Convert(c.Request().Context(), paths, req.DeleteOriginal)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results":   results,
		"converted": convert.Succeeded(results),
	})
}
