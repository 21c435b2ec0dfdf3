// Package session hosts the per map viewer session controller: the
// stateful counterpart of the bootstrap payload, owning keep-alive,
// selection, tooltip, digitization and refresh behavior of one map.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/client"
	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/i18n"
)

// DefaultDebounceInterval spaces out visibility refreshes of the map
// imagery while the user toggles layers.
const DefaultDebounceInterval = 500 * time.Millisecond

// RefreshMode selects which imagery overlays a refresh touches.
type RefreshMode int

const (
	RefreshLayers    RefreshMode = 1
	RefreshSelection RefreshMode = 2
)

// AgentAPI is the slice of the mapagent client the controller needs.
type AgentAPI interface {
	SessionTimeoutAPI
	QueryMapFeatures(ctx context.Context, opts client.QueryMapFeaturesOptions) (*client.QueryMapFeaturesResponse, error)
	MapImageURL(p client.MapImageParams) string
}

// SelectionSaver persists selection sets so a later viewer load of the
// same session can restore them.
type SelectionSaver interface {
	SaveSelectionSet(ctx context.Context, session, mapName string, sset json.RawMessage) error
}

// Config tunes one controller instance. Zero values pick the defaults.
type Config struct {
	DebounceInterval time.Duration
	TooltipInterval  time.Duration

	// BusyGauge, when set, mirrors the busy worker count.
	BusyGauge prometheus.Gauge

	OnBusyChanged      func(count int)
	OnViewChanged      func(view domain.MapView)
	OnSelectionChanged func(hasSelection bool)
	OnSessionExpired   func()
}

// Controller owns the interactive state of one runtime map on one surface.
// All exported methods are safe for concurrent use.
type Controller struct {
	log        *zap.SugaredLogger
	api        AgentAPI
	surface    MapSurface
	rtm        *domain.RuntimeMap
	config     domain.ViewerConfig
	locale     string
	bundles    *i18n.Bundles
	selections SelectionSaver
	conf       Config

	keepAlive *KeepAlive
	tooltip   *FeatureTooltip
	digitizer *Digitizer

	busy       int64
	generation uint64
	expired    sync.Once

	mu              sync.Mutex
	view            domain.MapView
	syncingView     bool
	contextMenuOpen bool
	visibility      VisibilityChanges
	refreshTimer    *time.Timer
	customLayers    map[string]interface{}
	torn            bool
}

func NewController(log *zap.SugaredLogger, api AgentAPI, surface MapSurface, rtm *domain.RuntimeMap, config domain.ViewerConfig, locale string, bundles *i18n.Bundles, selections SelectionSaver, conf Config) *Controller {
	if conf.DebounceInterval <= 0 {
		conf.DebounceInterval = DefaultDebounceInterval
	}
	c := &Controller{
		log:          log,
		api:          api,
		surface:      surface,
		rtm:          rtm,
		config:       config,
		locale:       locale,
		bundles:      bundles,
		selections:   selections,
		conf:         conf,
		customLayers: make(map[string]interface{}),
	}
	c.keepAlive = NewKeepAlive(log, api, rtm.SessionID, c.sessionExpired)
	linkText := bundles.Tr("FEATURE_TOOLTIP_URL_HELP_TEXT", locale)
	c.tooltip = NewFeatureTooltip(log, api.QueryMapFeatures, surface, rtm.Name, rtm.SessionID, linkText, conf.TooltipInterval, c.incrementBusy, c.decrementBusy, c.sessionExpired)
	c.digitizer = NewDigitizer(surface, bundles, locale)
	return c
}

// Start launches the session keep-alive loop.
func (c *Controller) Start(ctx context.Context) error {
	return c.keepAlive.Start(ctx)
}

// Map returns the runtime map this controller drives.
func (c *Controller) Map() *domain.RuntimeMap {
	return c.rtm
}

// KeepAlive exposes the keep-alive loop, mainly for its LastTry probe.
func (c *Controller) KeepAlive() *KeepAlive {
	return c.keepAlive
}

// Digitizer exposes the drawing state machine.
func (c *Controller) Digitizer() *Digitizer {
	return c.digitizer
}

// BusyCount returns the number of in-flight workers.
func (c *Controller) BusyCount() int {
	return int(atomic.LoadInt64(&c.busy))
}

func (c *Controller) incrementBusy() {
	count := atomic.AddInt64(&c.busy, 1)
	c.busyChanged(count)
}

func (c *Controller) decrementBusy() {
	count := atomic.AddInt64(&c.busy, -1)
	if count < 0 {
		// A decrement without a matching increment is a bug upstream;
		// clamp so the UI never reports a negative worker count.
		c.log.Warnw("busy worker count went negative", "map", c.rtm.Name)
		atomic.StoreInt64(&c.busy, 0)
		count = 0
	}
	c.busyChanged(count)
}

func (c *Controller) busyChanged(count int64) {
	if c.conf.BusyGauge != nil {
		c.conf.BusyGauge.Set(float64(count))
	}
	if c.conf.OnBusyChanged != nil {
		c.conf.OnBusyChanged(int(count))
	}
}

func (c *Controller) sessionExpired() {
	c.expired.Do(func() {
		c.log.Warnw("map session expired", "map", c.rtm.Name, "session", c.rtm.SessionID)
		if c.conf.OnSessionExpired != nil {
			c.conf.OnSessionExpired()
		}
	})
}

// CurrentView returns the last synchronized view.
func (c *Controller) CurrentView() domain.MapView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// ZoomToView pushes a new view to the surface. Views close to the current
// one are skipped; the resulting surface move event is suppressed so the
// view does not echo back as a user initiated move.
func (c *Controller) ZoomToView(view domain.MapView) {
	c.mu.Lock()
	if domain.ViewsCloseToEqual(&c.view, &view) {
		c.mu.Unlock()
		c.log.Debugw("skipping zoom, views are close enough", "map", c.rtm.Name)
		return
	}
	c.view = view
	c.syncingView = true
	c.mu.Unlock()
	c.surface.SetView(view)
	c.mu.Lock()
	c.syncingView = false
	c.mu.Unlock()
}

// OnSurfaceViewMoved records a view change reported by the surface. Moves
// caused by ZoomToView are dropped, user moves propagate to the view
// change callback (which feeds the view history).
func (c *Controller) OnSurfaceViewMoved(view domain.MapView) {
	c.mu.Lock()
	if c.syncingView {
		c.mu.Unlock()
		return
	}
	c.view = view
	c.mu.Unlock()
	if c.conf.OnViewChanged != nil {
		c.conf.OnViewChanged(view)
	}
}

// SetLayerGroupVisibility stages visibility overrides and schedules a
// debounced imagery refresh, so a burst of legend toggles costs one
// request.
func (c *Controller) SetLayerGroupVisibility(changes VisibilityChanges) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.torn {
		return
	}
	c.visibility = changes
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}
	c.refreshTimer = time.AfterFunc(c.conf.DebounceInterval, c.applyVisibility)
}

func (c *Controller) applyVisibility() {
	c.mu.Lock()
	changes := c.visibility
	c.refreshTimer = nil
	torn := c.torn
	c.mu.Unlock()
	if torn {
		return
	}
	c.surface.ApplyVisibility(changes)
}

// RefreshMap re-requests the imagery overlays selected by mode, busting
// any caches with a sequence stamp. Each issued image counts as busy work
// until the surface reports it loaded or failed.
func (c *Controller) RefreshMap(mode RefreshMode) {
	seq := time.Now().UnixMilli()
	if mode&RefreshLayers != 0 {
		c.incrementBusy()
		c.surface.UpdateLayersImage(c.api.MapImageURL(client.MapImageParams{
			MapName:  c.rtm.Name,
			Session:  c.rtm.SessionID,
			Format:   c.imageFormat(),
			Behavior: client.BehaviorBaseImage,
			Seq:      seq,
		}))
	}
	if mode&RefreshSelection != 0 {
		c.incrementBusy()
		c.surface.UpdateSelectionImage(c.api.MapImageURL(client.MapImageParams{
			MapName:        c.rtm.Name,
			Session:        c.rtm.SessionID,
			Format:         c.selectionFormat(),
			SelectionColor: c.config.SelectionColor,
			Behavior:       client.BehaviorSelected,
			Seq:            seq,
		}))
	}
}

func (c *Controller) imageFormat() string {
	if c.config.ImageFormat != "" {
		return c.config.ImageFormat
	}
	return "PNG"
}

func (c *Controller) selectionFormat() string {
	if c.config.SelectionImageFormat != "" {
		return c.config.SelectionImageFormat
	}
	return "PNG8"
}

// SelectByGeometry runs a persisted selection query for the geometry.
func (c *Controller) SelectByGeometry(ctx context.Context, geom Geometry, layerNames []string) (*client.QueryMapFeaturesResponse, error) {
	opts := client.QueryMapFeaturesOptions{
		Geometry:    geom.WKT(),
		RequestData: client.QueryAttributes,
	}
	if len(layerNames) > 0 {
		opts.LayerNames = strings.Join(layerNames, ",")
	}
	return c.QueryMapFeatures(ctx, opts)
}

// SetSelectionXML replaces the selection from a selection XML document. An
// empty document clears the selection. The layer attribute filter must not
// narrow an XML based query, features outside it would silently drop out
// of the rendered selection.
func (c *Controller) SetSelectionXML(ctx context.Context, xml string) (*client.QueryMapFeaturesResponse, error) {
	return c.QueryMapFeatures(ctx, client.QueryMapFeaturesOptions{
		FeatureFilter: xml,
		RequestData:   client.QueryAttributes,
	})
}

// ClearSelection empties the selection.
func (c *Controller) ClearSelection(ctx context.Context) error {
	_, err := c.SetSelectionXML(ctx, "")
	return err
}

// QueryMapFeatures merges the given options over the session defaults and
// runs the query busy-wrapped. A persisted query updates the selection
// overlay, persists the selection set and reports the selection state.
// Results arriving after teardown are dropped.
func (c *Controller) QueryMapFeatures(ctx context.Context, opts client.QueryMapFeaturesOptions) (*client.QueryMapFeaturesResponse, error) {
	merged := client.QueryMapFeaturesOptions{
		MapName:          c.rtm.Name,
		Session:          c.rtm.SessionID,
		Persist:          1,
		SelectionVariant: "INTERSECTS",
		SelectionColor:   c.config.SelectionColor,
		SelectionFormat:  c.selectionFormat(),
		MaxFeatures:      -1,
	}
	mergeQueryOptions(&merged, opts)

	gen := atomic.LoadUint64(&c.generation)
	c.incrementBusy()
	res, err := c.api.QueryMapFeatures(ctx, merged)
	c.decrementBusy()
	if err != nil {
		if domain.IsSessionExpiredError(err) {
			c.sessionExpired()
		}
		return nil, err
	}
	if atomic.LoadUint64(&c.generation) != gen {
		c.log.Debugw("dropping stale feature query result", "map", c.rtm.Name)
		return nil, nil
	}
	if merged.Persist == 1 {
		c.RefreshMap(RefreshSelection)
		if c.selections != nil && len(res.FeatureSet) > 0 {
			if err := c.selections.SaveSelectionSet(ctx, c.rtm.SessionID, c.rtm.Name, res.FeatureSet); err != nil {
				c.log.Warnw("failed to persist selection set", "map", c.rtm.Name, "error", err)
			}
		}
		if c.conf.OnSelectionChanged != nil {
			c.conf.OnSelectionChanged(res.HasSelection())
		}
	}
	return res, nil
}

// mergeQueryOptions lays non-zero caller fields over the defaults.
func mergeQueryOptions(dst *client.QueryMapFeaturesOptions, src client.QueryMapFeaturesOptions) {
	if src.Geometry != "" {
		dst.Geometry = src.Geometry
	}
	if src.SelectionVariant != "" {
		dst.SelectionVariant = src.SelectionVariant
	}
	if src.SelectionColor != "" {
		dst.SelectionColor = src.SelectionColor
	}
	if src.SelectionFormat != "" {
		dst.SelectionFormat = src.SelectionFormat
	}
	if src.FeatureFilter != "" {
		dst.FeatureFilter = src.FeatureFilter
	}
	if src.LayerNames != "" {
		dst.LayerNames = src.LayerNames
	}
	if src.MaxFeatures != 0 {
		dst.MaxFeatures = src.MaxFeatures
	}
	if src.RequestData != 0 {
		dst.RequestData = src.RequestData
	}
	if src.LayerAttributeFilter != 0 {
		dst.LayerAttributeFilter = src.LayerAttributeFilter
	}
	if src.Persist != 0 {
		dst.Persist = src.Persist
	}
}

// FeatureTooltip exposes the tooltip worker.
func (c *Controller) FeatureTooltip() *FeatureTooltip {
	return c.tooltip
}

// SetContextMenuOpen suppresses tooltip queries while a context menu is
// showing.
func (c *Controller) SetContextMenuOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contextMenuOpen = open
}

// OnMouseMove routes a pointer move to the digitization prompt and to the
// feature tooltip, unless a context menu is open.
func (c *Controller) OnMouseMove(at Coordinate) {
	c.mu.Lock()
	suppressed := c.contextMenuOpen
	c.mu.Unlock()
	if suppressed {
		return
	}
	c.tooltip.OnMouseMove(at)
}

// OnImageLoaded is called when an issued map image finished loading,
// releasing the work counted by RefreshMap.
func (c *Controller) OnImageLoaded() {
	c.decrementBusy()
}

// OnImageError is called when an issued map image failed to load: its
// pending work is released and the session probed once, since a dead
// session is the usual culprit.
func (c *Controller) OnImageError(ctx context.Context) {
	c.decrementBusy()
	if err := c.keepAlive.LastTry(ctx); err != nil {
		if domain.IsSessionExpiredError(err) {
			c.sessionExpired()
		}
	}
}

// AddLayer registers a custom layer handle under a unique name.
func (c *Controller) AddLayer(name string, layer interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.customLayers[name]; exists {
		return domain.NewViewerError(fmt.Sprintf("A layer named %s already exists", name))
	}
	c.customLayers[name] = layer
	return nil
}

// RemoveLayer removes and returns the custom layer registered under name,
// or nil.
func (c *Controller) RemoveLayer(name string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	layer, exists := c.customLayers[name]
	if !exists {
		return nil
	}
	delete(c.customLayers, name)
	return layer
}

// GetOrCreateLayer returns the custom layer registered under name,
// creating it with factory on first use.
func (c *Controller) GetOrCreateLayer(name string, factory func() interface{}) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if layer, exists := c.customLayers[name]; exists {
		return layer
	}
	layer := factory()
	c.customLayers[name] = layer
	return layer
}

// Teardown stops the keep-alive loop, timers and any active digitization.
// In-flight query results are invalidated and will be dropped on arrival.
func (c *Controller) Teardown() {
	atomic.AddUint64(&c.generation, 1)
	c.keepAlive.Stop()
	c.tooltip.Stop()
	c.digitizer.Cancel()
	c.mu.Lock()
	c.torn = true
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	c.mu.Unlock()
}
