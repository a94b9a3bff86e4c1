package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tana/tana/internal/import/renamer"
	"github.com/tana/tana/internal/library/audit"
	"github.com/tana/tana/internal/library/catalog"
	"github.com/tana/tana/internal/library/organizer"
	"github.com/tana/tana/internal/library/scanner"
)

// Sample values used by the template preview when the request omits them.
const (
	previewSeries = "One Piece"
	previewTomeNo = 5
	previewExt    = ".cbz"
	previewTitle  = "Le voyage de Balaba"
)

type filenameRequest struct {
	Filename string `json:"filename"`
}

type trashRequest struct {
	SourceDir string `json:"sourceDir"`
	Filename  string `json:"filename"`
}

type organizeMatchedRequest struct {
	SourceDir string                  `json:"sourceDir"`
	Items     []organizer.MatchedItem `json:"items"`
}

type fixNamingRequest struct {
	Fixes []audit.FixProposal `json:"fixes"`
}

type previewRequest struct {
	Template *string         `json:"template"`
	Series   *string         `json:"series"`
	Tome     json.RawMessage `json:"tome"`
	Ext      *string         `json:"ext"`
	Title    *string         `json:"title"`
}

// listFiles lists comic files waiting in the source directory.
// GET /api/v1/files?source=
func (s *Server) listFiles(c echo.Context) error {
	source := strings.TrimSpace(c.QueryParam("source"))
	if source == "" {
		source = s.store.Library().SourceDir
	}

	result, err := s.scannerService.ScanSource(c.Request().Context(), source)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// detect reads tome and series from a filename and matches the catalog.
// POST /api/v1/detect
func (s *Server) detect(c echo.Context) error {
	var req filenameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Filename) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "filename is required")
	}

	detection, match, err := s.scannerService.Detect(c.Request().Context(), req.Filename)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"filename":    detection.Filename,
		"tome":        detection.Tome,
		"seriesGuess": detection.SeriesGuess,
		"seriesMatch": match.Entry,
		"matchScore":  roundScore(match.Score),
	})
}

// detectTome returns the tome number of a filename, or null.
// POST /api/v1/detect-tome
func (s *Server) detectTome(c echo.Context) error {
	var req filenameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var tome *int
	if n, ok := scanner.DetectTome(req.Filename); ok {
		tome = &n
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"filename": req.Filename,
		"tome":     tome,
	})
}

// listSeries returns every series folder in the catalog.
// GET /api/v1/series
func (s *Server) listSeries(c echo.Context) error {
	snap, err := s.catalog.Snapshot(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"series":  snap.All(),
		"total":   snap.Len(),
		"builtAt": snap.BuiltAt(),
	})
}

// searchSeries finds catalog entries containing the query.
// GET /api/v1/series/search?q=&limit=
func (s *Server) searchSeries(c echo.Context) error {
	limit := catalog.DefaultSearchLimit
	if l := c.QueryParam("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = v
	}

	snap, err := s.catalog.Snapshot(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": snap.Search(c.QueryParam("q"), limit),
	})
}

// organize moves files into one series folder.
// POST /api/v1/organize
func (s *Server) organize(c echo.Context) error {
	var req organizer.OrganizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.organizerService.Organize(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// organizeMatched moves files that each carry their own series.
// POST /api/v1/organize/matched
func (s *Server) organizeMatched(c echo.Context) error {
	var req organizeMatchedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	results, err := s.organizerService.OrganizeMatched(c.Request().Context(), req.SourceDir, req.Items)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"moved":   organizer.Succeeded(results),
	})
}

// deleteFile moves a source file to the trash.
// POST /api/v1/files/delete
func (s *Server) deleteFile(c echo.Context) error {
	var req trashRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.organizerService.Delete(c.Request().Context(), req.SourceDir, req.Filename); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"filename": strings.TrimSpace(req.Filename),
	})
}

// undeleteFile restores a file from the trash.
// POST /api/v1/files/undelete
func (s *Server) undeleteFile(c echo.Context) error {
	var req trashRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.organizerService.Undelete(c.Request().Context(), req.SourceDir, req.Filename); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"filename": strings.TrimSpace(req.Filename),
	})
}

// runAudit audits every series folder.
// GET /api/v1/audit?issuesOnly=true
func (s *Server) runAudit(c echo.Context) error {
	report, err := s.auditEngine.Run(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	if c.QueryParam("issuesOnly") == "true" {
		filtered := *report
		filtered.Series = report.WithIssues()
		report = &filtered
	}
	return c.JSON(http.StatusOK, report)
}

// exportAudit streams the audit as a spreadsheet.
// GET /api/v1/audit/export
func (s *Server) exportAudit(c echo.Context) error {
	report, err := s.auditEngine.Run(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	filename := fmt.Sprintf("tana-audit-%s.xlsx", report.GeneratedAt.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)

	return audit.WriteXLSX(report, c.Response())
}

// fixNaming applies audit fix proposals.
// POST /api/v1/audit/fix-naming
func (s *Server) fixNaming(c echo.Context) error {
	var req fixNamingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	results, err := s.organizerService.FixNaming(c.Request().Context(), req.Fixes)
	if err != nil {
		return httpError(err)
	}

	fixed := 0
	for _, r := range results {
		if r.Success {
			fixed++
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"fixed":   fixed,
	})
}

// previewTemplate renders a template with sample values.
// POST /api/v1/template/preview
func (s *Server) previewTemplate(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	tome, err := previewTome(req.Tome, previewTomeNo)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "tome must be a number or null")
	}

	pattern := stringOr(req.Template, renamer.DefaultTemplate)
	response := map[string]interface{}{
		"preview": renamer.Preview(
			pattern,
			stringOr(req.Series, previewSeries),
			tome,
			stringOr(req.Ext, previewExt),
			stringOr(req.Title, previewTitle),
		),
		"valid": true,
	}
	if err := renamer.ValidatePattern(pattern); err != nil {
		response["valid"] = false
		response["error"] = err.Error()
	}
	return c.JSON(http.StatusOK, response)
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func roundScore(score float64) float64 {
	return math.Round(score*100) / 100
}
