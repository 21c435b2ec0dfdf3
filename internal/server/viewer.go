package server

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mapfront/mapfront-viewer/internal/client"
	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/infrastructure/ws"
	"github.com/mapfront/mapfront-viewer/internal/layout"
	"github.com/mapfront/mapfront-viewer/internal/taskpane"
	"github.com/mapfront/mapfront-viewer/internal/viewer"
	"github.com/mapfront/mapfront-viewer/internal/viewer/session"
)

// viewerInstance is the server side state of one bootstrapped viewer: its
// init payload, one controller per runtime map and the task pane history.
type viewerInstance struct {
	id          string
	payload     *domain.InitPayload
	controllers map[string]*session.Controller
	activeMap   string
	history     *taskpane.History
	busyGauge   prometheus.Gauge
}

func (v *viewerInstance) active() *session.Controller {
	return v.controllers[v.activeMap]
}

func (v *viewerInstance) teardown() {
	for _, ctrl := range v.controllers {
		ctrl.Teardown()
	}
}

type initRequest struct {
	ViewerID               string                     `json:"viewerId"`
	ResourceID             string                     `json:"resourceId"`
	Locale                 string                     `json:"locale"`
	Session                string                     `json:"session"`
	Username               string                     `json:"username"`
	Password               string                     `json:"password"`
	ExternalBaseLayers     []domain.ExternalBaseLayer `json:"externalBaseLayers"`
	InitialView            *domain.MapView            `json:"initialView"`
	InitialActiveMap       string                     `json:"initialActiveMap"`
	InitialShowLayers      []string                   `json:"initialShowLayers"`
	InitialShowGroups      []string                   `json:"initialShowGroups"`
	InitialHideLayers      []string                   `json:"initialHideLayers"`
	InitialHideGroups      []string                   `json:"initialHideGroups"`
	FeatureTooltipsEnabled bool                       `json:"featureTooltipsEnabled"`
}

func (s *Server) handleViewerInit(c echo.Context) error {
	var req initRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	viewerID := req.ViewerID
	if viewerID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		viewerID = id.String()
	}

	surface := ws.NewRemoteSurface(s.vws, viewerID)
	dispatcher := viewer.DispatcherFunc(func(event viewer.Event) {
		if err := s.vws.Send(viewerID, event.EventType(), event); err != nil {
			s.log.Warnw("failed to deliver viewer event", "viewer", viewerID, "type", event.EventType(), "error", err)
		}
	})
	fetchBundle := func(ctx context.Context, locale string) (map[string]string, error) {
		return client.GetLocaleBundle(ctx, s.Config.ViewerRoot, locale)
	}
	orch := viewer.NewOrchestrator(
		s.log,
		s.client,
		s.bundles,
		s.commands,
		viewer.NewProvisioner(s.log, s.client, s.resolver, s.bundles),
		layout.NewConverter(s.log, s.bundles),
		s.selections,
		fetchBundle,
		dispatcher,
	)

	payload, err := orch.InitLayout(c.Request().Context(), viewer.Options{
		ResourceID:             req.ResourceID,
		Locale:                 req.Locale,
		Session:                req.Session,
		Username:               req.Username,
		Password:               req.Password,
		ExternalBaseLayers:     req.ExternalBaseLayers,
		InitialView:            req.InitialView,
		InitialActiveMap:       req.InitialActiveMap,
		InitialShowLayers:      req.InitialShowLayers,
		InitialShowGroups:      req.InitialShowGroups,
		InitialHideLayers:      req.InitialHideLayers,
		InitialHideGroups:      req.InitialHideGroups,
		FeatureTooltipsEnabled: req.FeatureTooltipsEnabled,
		Surface:                surface,
	})
	if err != nil {
		if verr, ok := err.(*domain.ViewerError); ok {
			return echo.NewHTTPError(http.StatusBadRequest, verr.Message)
		}
		return err
	}

	busyGauge := s.busyGauge.WithLabelValues(viewerID)
	inst := &viewerInstance{
		id:          viewerID,
		payload:     payload,
		controllers: make(map[string]*session.Controller, len(payload.Maps)),
		activeMap:   payload.ActiveMapName,
		history:     taskpane.NewHistory(payload.InitialURL),
		busyGauge:   busyGauge,
	}
	for name, info := range payload.Maps {
		ctrl := session.NewController(s.log, s.client, surface, info.Map, payload.Config, payload.Locale, s.bundles, s.saver, session.Config{
			BusyGauge: busyGauge,
			OnBusyChanged: func(count int) {
				s.sendState(viewerID, "BusyCount", count)
			},
			OnViewChanged: func(view domain.MapView) {
				s.sendState(viewerID, "ViewChanged", view)
			},
			OnSelectionChanged: func(hasSelection bool) {
				s.sendState(viewerID, "SelectionChanged", hasSelection)
			},
			OnSessionExpired: func() {
				s.sendState(viewerID, "SessionExpired", s.bundles.Tr("SESSION_EXPIRED_DETAILED", payload.Locale))
			},
		})
		ctrl.FeatureTooltip().SetEnabled(payload.FeatureTooltipsEnabled)
		if err := ctrl.Start(c.Request().Context()); err != nil {
			s.log.Warnw("failed to start session keep-alive", "viewer", viewerID, "map", name, "error", err)
		}
		inst.controllers[name] = ctrl
	}

	s.mu.Lock()
	if prior, exists := s.viewers[viewerID]; exists {
		prior.teardown()
	}
	s.viewers[viewerID] = inst
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"viewerId": viewerID,
		"payload":  payload,
	})
}

func (s *Server) sendState(viewerID, msgType string, data interface{}) {
	if err := s.vws.Send(viewerID, msgType, data); err != nil {
		s.log.Warnw("failed to deliver viewer state", "viewer", viewerID, "type", msgType, "error", err)
	}
}

func (s *Server) instance(c echo.Context) (*viewerInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.viewers[c.Param("id")]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown viewer id")
	}
	return inst, nil
}

func (s *Server) handleGetStrings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.bundles.Catalog(c.Param("locale")))
}

type selectionRequest struct {
	MapName string `json:"mapName"`
	client.QueryMapFeaturesOptions
}

func (s *Server) handleSelectionQuery(c echo.Context) error {
	inst, err := s.instance(c)
	if err != nil {
		return err
	}
	var req selectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctrl := inst.active()
	if req.MapName != "" {
		if ctrl = inst.controllers[req.MapName]; ctrl == nil {
			return echo.NewHTTPError(http.StatusNotFound, "unknown map name")
		}
	}
	res, err := ctrl.QueryMapFeatures(c.Request().Context(), req.QueryMapFeaturesOptions)
	if err != nil {
		if domain.IsSessionExpiredError(err) {
			return echo.NewHTTPError(http.StatusGone, s.bundles.Tr("SESSION_EXPIRED_DETAILED", inst.payload.Locale))
		}
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleSetVisibility(c echo.Context) error {
	inst, err := s.instance(c)
	if err != nil {
		return err
	}
	var changes session.VisibilityChanges
	if err := c.Bind(&changes); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inst.active().SetLayerGroupVisibility(changes)
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleRefresh(c echo.Context) error {
	inst, err := s.instance(c)
	if err != nil {
		return err
	}
	var req struct {
		Mode int `json:"mode"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	mode := session.RefreshMode(req.Mode)
	if mode == 0 {
		mode = session.RefreshLayers | session.RefreshSelection
	}
	inst.active().RefreshMap(mode)
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleZoomToView(c echo.Context) error {
	inst, err := s.instance(c)
	if err != nil {
		return err
	}
	var view domain.MapView
	if err := c.Bind(&view); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inst.active().ZoomToView(view)
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleSetTooltipEnabled(c echo.Context) error {
	inst, err := s.instance(c)
	if err != nil {
		return err
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inst.active().FeatureTooltip().SetEnabled(req.Enabled)
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleDigitize(c echo.Context) error {
	inst, err := s.instance(c)
	if err != nil {
		return err
	}
	var req struct {
		Kind   string `json:"kind"`
		Prompt string `json:"prompt"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dig := inst.active().Digitizer()
	handler := func(geom session.Geometry) {
		s.sendState(inst.id, "DigitizedGeometry", geom)
	}
	switch req.Kind {
	case "Point":
		dig.Point(handler, req.Prompt)
	case "Line":
		dig.Line(handler, req.Prompt)
	case "LineString":
		dig.LineString(handler, req.Prompt)
	case "Circle":
		dig.Circle(handler, req.Prompt)
	case "Rectangle":
		dig.Rectangle(handler, req.Prompt)
	case "Polygon":
		dig.Polygon(handler, req.Prompt)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown digitize kind")
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleTaskPane(c echo.Context) error {
	inst, err := s.instance(c)
	if err != nil {
		return err
	}
	var req struct {
		Action string `json:"action"`
		URL    string `json:"url"`
		Silent bool   `json:"silent"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h := inst.history
	var url string
	switch req.Action {
	case "home":
		url = h.Home()
	case "back":
		url, _ = h.Back()
	case "forward":
		url, _ = h.Forward()
	case "push":
		h.Push(req.URL, req.Silent)
		url = h.Current()
	case "goto":
		url = h.Goto(req.URL)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown task pane action")
	}
	entries, index := h.Snapshot()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"url":        url,
		"index":      index,
		"entries":    entries,
		"canGoBack":  h.CanGoBack(),
		"canForward": h.CanGoForward(),
	})
}

func (s *Server) handleAcknowledgeWarnings(c echo.Context) error {
	inst, err := s.instance(c)
	if err != nil {
		return err
	}
	s.sendState(inst.id, viewer.AcknowledgeWarningsEvent{}.EventType(), nil)
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleTeardown(c echo.Context) error {
	s.mu.Lock()
	inst, ok := s.viewers[c.Param("id")]
	if ok {
		delete(s.viewers, c.Param("id"))
	}
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown viewer id")
	}
	inst.teardown()
	s.busyGauge.DeleteLabelValues(inst.id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleViewerWS(c echo.Context) error {
	viewerID := c.Param("id")
	if err := s.vws.Handler(viewerID, c.Response(), c.Request()); err != nil {
		s.log.Errorw("websocket handler", "viewer", viewerID, "error", err)
	}
	return nil
}

// handleViewerMessage routes inbound client input to the right controller.
func (s *Server) handleViewerMessage(viewerID string, msg ws.InboundMessage) {
	s.mu.Lock()
	inst, ok := s.viewers[viewerID]
	s.mu.Unlock()
	if !ok {
		return
	}
	ctrl := inst.active()
	if ctrl == nil {
		return
	}
	switch msg.Type {
	case "MouseMove":
		var at session.Coordinate
		if err := jsoniter.Unmarshal(msg.Data, &at); err == nil {
			ctrl.OnMouseMove(at)
		}
	case "MapClick":
		var at session.Coordinate
		if err := jsoniter.Unmarshal(msg.Data, &at); err == nil {
			ctrl.Digitizer().HandleClick(at)
		}
	case "DoubleClick":
		var at session.Coordinate
		if err := jsoniter.Unmarshal(msg.Data, &at); err == nil {
			ctrl.Digitizer().HandleDoubleClick(at)
		}
	case "KeyDown":
		var keyCode int
		if err := jsoniter.Unmarshal(msg.Data, &keyCode); err == nil {
			ctrl.Digitizer().HandleKeyDown(keyCode)
		}
	case "ViewMoved":
		var view domain.MapView
		if err := jsoniter.Unmarshal(msg.Data, &view); err == nil {
			ctrl.OnSurfaceViewMoved(view)
		}
	case "ContextMenu":
		var open bool
		if err := jsoniter.Unmarshal(msg.Data, &open); err == nil {
			ctrl.SetContextMenuOpen(open)
		}
	case "ImageLoaded":
		ctrl.OnImageLoaded()
	case "ImageError":
		ctrl.OnImageError(context.Background())
	case "ActiveMap":
		var name string
		if err := jsoniter.Unmarshal(msg.Data, &name); err == nil {
			s.mu.Lock()
			if _, exists := inst.controllers[name]; exists {
				inst.activeMap = name
			}
			s.mu.Unlock()
		}
	default:
		s.log.Debugw("ignoring unknown viewer message", "viewer", viewerID, "type", msg.Type)
	}
}
