package server

import (
	"github.com/labstack/echo/v4"
)

func (s *Server) AddRoutes(e *echo.Echo) {
	e.POST("/api/viewer/init", s.handleViewerInit)
	e.GET("/api/viewer/strings/:locale", s.handleGetStrings)

	e.POST("/api/viewer/:id/selection", s.handleSelectionQuery)
	e.POST("/api/viewer/:id/visibility", s.handleSetVisibility)
	e.POST("/api/viewer/:id/refresh", s.handleRefresh)
	e.POST("/api/viewer/:id/view", s.handleZoomToView)
	e.POST("/api/viewer/:id/tooltip", s.handleSetTooltipEnabled)
	e.POST("/api/viewer/:id/digitize", s.handleDigitize)
	e.POST("/api/viewer/:id/taskpane", s.handleTaskPane)
	e.POST("/api/viewer/:id/warnings/ack", s.handleAcknowledgeWarnings)
	e.DELETE("/api/viewer/:id", s.handleTeardown)

	e.GET("/ws/viewer/:id", s.handleViewerWS)
}
