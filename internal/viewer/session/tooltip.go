package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/client"
	"github.com/mapfront/mapfront-viewer/internal/domain"
)

// DefaultTooltipInterval is the minimum spacing between feature tooltip
// queries.
const DefaultTooltipInterval = time.Second

type queryFunc func(ctx context.Context, opts client.QueryMapFeaturesOptions) (*client.QueryMapFeaturesResponse, error)

// FeatureTooltip issues throttled tooltip queries as the pointer moves
// over the map. Rapid movement coalesces into at most one query per
// interval, carrying the latest position.
type FeatureTooltip struct {
	log     *zap.SugaredLogger
	query   queryFunc
	surface MapSurface

	mapName  string
	session  string
	linkText string

	interval         time.Duration
	incBusy          func()
	decBusy          func()
	onSessionExpired func()

	mu        sync.Mutex
	enabled   bool
	last      time.Time
	pending   *time.Timer
	pendingAt Coordinate
	stopped   bool
}

// NewFeatureTooltip builds a tooltip pipeline. linkText labels the
// hyperlink line and comes from the viewer's message catalog, resolved for
// the session locale.
func NewFeatureTooltip(log *zap.SugaredLogger, query queryFunc, surface MapSurface, mapName, session, linkText string, interval time.Duration, incBusy, decBusy, onSessionExpired func()) *FeatureTooltip {
	if interval <= 0 {
		interval = DefaultTooltipInterval
	}
	return &FeatureTooltip{
		log:              log,
		query:            query,
		surface:          surface,
		mapName:          mapName,
		session:          session,
		linkText:         linkText,
		interval:         interval,
		incBusy:          incBusy,
		decBusy:          decBusy,
		onSessionExpired: onSessionExpired,
		enabled:          true,
	}
}

// IsEnabled reports whether tooltip queries are issued at all.
func (t *FeatureTooltip) IsEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetEnabled toggles tooltip querying. Disabling hides any visible tooltip
// and drops a pending query.
func (t *FeatureTooltip) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	if !enabled && t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.mu.Unlock()
	if !enabled {
		t.surface.HideTooltip()
	}
}

// OnMouseMove records a pointer position. The first move fires a query
// immediately; further moves within the interval are coalesced into one
// trailing query at the latest position.
func (t *FeatureTooltip) OnMouseMove(at Coordinate) {
	t.mu.Lock()
	if !t.enabled || t.stopped {
		t.mu.Unlock()
		return
	}
	now := time.Now()
	if since := now.Sub(t.last); since >= t.interval {
		t.last = now
		t.mu.Unlock()
		t.fire(at)
		return
	}
	t.pendingAt = at
	if t.pending == nil {
		wait := t.interval - now.Sub(t.last)
		t.pending = time.AfterFunc(wait, t.firePending)
	}
	t.mu.Unlock()
}

func (t *FeatureTooltip) firePending() {
	t.mu.Lock()
	if t.stopped || !t.enabled {
		t.pending = nil
		t.mu.Unlock()
		return
	}
	at := t.pendingAt
	t.pending = nil
	t.last = time.Now()
	t.mu.Unlock()
	t.fire(at)
}

func (t *FeatureTooltip) fire(at Coordinate) {
	t.incBusy()
	defer t.decBusy()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := t.query(ctx, client.QueryMapFeaturesOptions{
		MapName:              t.mapName,
		Session:              t.session,
		Geometry:             PointWKT(at),
		Persist:              0,
		SelectionVariant:     "INTERSECTS",
		MaxFeatures:          1,
		RequestData:          client.QueryTooltip | client.QueryHyperlink,
		LayerAttributeFilter: 5,
	})
	if err != nil {
		if domain.IsSessionExpiredError(err) {
			t.onSessionExpired()
			return
		}
		t.log.Warnw("feature tooltip query failed", "error", err)
		return
	}
	var html strings.Builder
	if res.Tooltip != "" {
		html.WriteString("<div class='feature-tooltip-body'>")
		html.WriteString(strings.ReplaceAll(res.Tooltip, "\\n", "<br/>"))
		html.WriteString("</div>")
	}
	if res.Hyperlink != "" {
		html.WriteString("<div><a href='")
		html.WriteString(res.Hyperlink)
		html.WriteString("'>")
		html.WriteString(t.linkText)
		html.WriteString("</a></div>")
	}
	if html.Len() == 0 {
		t.surface.HideTooltip()
		return
	}
	t.surface.ShowTooltip(at, html.String())
}

// Stop drops any pending query and blocks further ones.
func (t *FeatureTooltip) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
