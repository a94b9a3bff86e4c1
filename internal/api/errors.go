package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tana/tana/internal/config"
	"github.com/tana/tana/internal/import/renamer"
	"github.com/tana/tana/internal/library/convert"
	"github.com/tana/tana/internal/library/organizer"
)

// badRequestErrors are caller mistakes; everything else is a server fault.
var badRequestErrors = []error{
	organizer.ErrSeriesRequired,
	organizer.ErrDestinationRequired,
	organizer.ErrNoFiles,
	organizer.ErrNoFixes,
	organizer.ErrDestinationNotAllowed,
	organizer.ErrUnsafePath,
	organizer.ErrFileNotFound,
	organizer.ErrNotInTrash,
	organizer.ErrTargetExists,
	convert.ErrPathRequired,
	convert.ErrDirNotFound,
	convert.ErrNoFiles,
	config.ErrInvalidConfig,
	renamer.ErrInvalidTemplate,
}

// httpError maps a service error to an HTTP error.
func httpError(err error) *echo.HTTPError {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// errorHandler renders every error as {"error": message}.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": message})
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to write error response")
	}
}
