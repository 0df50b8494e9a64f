package server

import (
	"errors"
	"net/http"

	"quake-observer/src/dashboard"
	"quake-observer/src/helpers"
	"quake-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// pageConfig is everything the browser needs to draw the controls and the map.
type pageConfig struct {
	Title            string                 `json:"title"`
	Defaults         models.MFilterSnapshot `json:"defaults"`
	Controls         models.MControlsConfig `json:"controls"`
	Map              models.MMapConfig      `json:"map"`
	RefreshIntervalS int                    `json:"refresh_interval_s"`
	RetriesPerMinute int                    `json:"retries_per_minute"`
}

func newPageConfig(cfg *models.MConfig) pageConfig {
	return pageConfig{
		Title:            "Earthquake Dashboard",
		Defaults:         cfg.Dashboard.Defaults,
		Controls:         cfg.Dashboard.Controls,
		Map:              cfg.Dashboard.Map,
		RefreshIntervalS: cfg.Dashboard.RefreshIntervalSeconds,
		RetriesPerMinute: cfg.Dashboard.RetriesPerMinute,
	}
}

// -----------------------------------------------------------------------------

func errorKind(err error) string {
	switch {
	case errors.Is(err, dashboard.ErrUnknownSession):
		return "unknown_session"
	case errors.Is(err, dashboard.ErrRetryRateLimited):
		return "rate_limited"
	case errors.Is(err, dashboard.ErrSessionClosed):
		return "session_closed"
	default:
		return helpers.ErrorKind(err)
	}
}

func statusFor(err error) int {
	var invErr *helpers.InvalidFilterValueError
	switch {
	case errors.Is(err, dashboard.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrRetryRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, dashboard.ErrSessionClosed):
		return http.StatusGone
	case errors.As(err, &invErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error(), "kind": errorKind(err)})
}

// -----------------------------------------------------------------------------

// requestLogger logs API calls through the application logger. The websocket
// and the page itself are logged at debug level only.
func (s *DashboardServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.Request.URL.Path
		if path == "/ws" || path == "/" {
			s.Logger.Debug("%s %s %d", c.Request.Method, path, c.Writer.Status())
			return
		}
		s.Logger.Info("%s %s %d", c.Request.Method, path, c.Writer.Status())
	}
}
