// routes.go - Route registration for the navigation/view API.
package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesh-visualizer/backend/internal/metrics"
)

// RegisterRoutes registers all API routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler, hub *Hub, m *metrics.Metrics) {
	api := e.Group("/api")

	api.GET("/health", h.HandleHealth)

	// Dataset navigation
	api.GET("/sites", h.HandleListSites)
	api.GET("/sites/:site/experiments", h.HandleListExperiments)
	api.POST("/select/site", h.HandleSelectSite)
	api.POST("/select/experiment", h.HandleSelectExperiment)

	// View state
	api.GET("/view", h.HandleGetView)
	api.GET("/view/msgpack", h.HandleGetViewMsgpack)
	api.GET("/state", h.HandleGetState)
	api.GET("/markers/:site/:mac/popup", h.HandleMarkerPopup)
	api.GET("/lines/:id/popup", h.HandleLinePopup)

	// Event push
	api.GET("/ws", hub.HandleWebSocket)

	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// MetricsMiddleware records request counts and latencies per route.
func MetricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if m != nil {
				status := c.Response().Status
				if apiErr, ok := err.(*APIError); ok {
					status = apiErr.Status
				}
				m.ObserveHTTPRequest(c.Request().Method, c.Path(), status, time.Since(start))
			}
			return err
		}
	}
}
