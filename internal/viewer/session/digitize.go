package session

import (
	"math"
	"sync"

	"github.com/mapfront/mapfront-viewer/internal/i18n"
)

// KeyEscape is the key code that cancels an active digitization.
const KeyEscape = 27

// DigitizeKind enumerates the supported digitization shapes.
type DigitizeKind int

const (
	DigitizePoint DigitizeKind = iota
	DigitizeLine
	DigitizeLineString
	DigitizeCircle
	DigitizeRectangle
	DigitizePolygon
)

// DigitizeHandler receives the finished geometry, exactly once.
type DigitizeHandler func(geom Geometry)

type digitization struct {
	kind    DigitizeKind
	handler DigitizeHandler
	points  []Coordinate
}

// Digitizer is the interactive drawing state machine. Starting a new
// digitization cancels any active one; escape cancels without delivery;
// a finished shape is delivered to its handler exactly once, after the
// drawing state is cleared.
type Digitizer struct {
	mu      sync.Mutex
	surface MapSurface
	bundles *i18n.Bundles
	locale  string
	active  *digitization
}

func NewDigitizer(surface MapSurface, bundles *i18n.Bundles, locale string) *Digitizer {
	return &Digitizer{
		surface: surface,
		bundles: bundles,
		locale:  locale,
	}
}

func (d *Digitizer) promptOr(prompt, key string) string {
	if prompt != "" {
		return prompt
	}
	return d.bundles.Tr(key, d.locale)
}

func (d *Digitizer) start(kind DigitizeKind, handler DigitizeHandler, prompt string) {
	d.mu.Lock()
	d.active = &digitization{kind: kind, handler: handler}
	d.mu.Unlock()
	d.surface.SetPrompt(prompt)
}

func (d *Digitizer) Point(handler DigitizeHandler, prompt string) {
	d.start(DigitizePoint, handler, d.promptOr(prompt, "DIGITIZE_POINT_PROMPT"))
}

func (d *Digitizer) Line(handler DigitizeHandler, prompt string) {
	d.start(DigitizeLine, handler, d.promptOr(prompt, "DIGITIZE_LINE_PROMPT"))
}

func (d *Digitizer) LineString(handler DigitizeHandler, prompt string) {
	d.start(DigitizeLineString, handler, d.promptOr(prompt, "DIGITIZE_LINESTRING_PROMPT"))
}

func (d *Digitizer) Circle(handler DigitizeHandler, prompt string) {
	d.start(DigitizeCircle, handler, d.promptOr(prompt, "DIGITIZE_CIRCLE_PROMPT"))
}

func (d *Digitizer) Rectangle(handler DigitizeHandler, prompt string) {
	d.start(DigitizeRectangle, handler, d.promptOr(prompt, "DIGITIZE_RECT_PROMPT"))
}

func (d *Digitizer) Polygon(handler DigitizeHandler, prompt string) {
	d.start(DigitizePolygon, handler, d.promptOr(prompt, "DIGITIZE_POLYGON_PROMPT"))
}

// IsDigitizing reports whether a drawing is in progress.
func (d *Digitizer) IsDigitizing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil
}

// Cancel abandons the active digitization without delivering anything.
func (d *Digitizer) Cancel() {
	d.mu.Lock()
	active := d.active
	d.active = nil
	d.mu.Unlock()
	if active != nil {
		d.surface.ClearPrompt()
	}
}

// HandleKeyDown feeds a key press into the state machine.
func (d *Digitizer) HandleKeyDown(keyCode int) {
	if keyCode == KeyEscape {
		d.Cancel()
	}
}

// HandleClick feeds a map click into the state machine. It returns true
// when the click was consumed by an active digitization.
func (d *Digitizer) HandleClick(at Coordinate) bool {
	d.mu.Lock()
	active := d.active
	if active == nil {
		d.mu.Unlock()
		return false
	}
	active.points = append(active.points, at)
	var finished *Geometry
	switch active.kind {
	case DigitizePoint:
		finished = &Geometry{Type: GeometryPoint, Coordinates: active.points}
	case DigitizeLine:
		if len(active.points) >= 2 {
			finished = &Geometry{Type: GeometryLineString, Coordinates: active.points}
		}
	case DigitizeCircle:
		if len(active.points) >= 2 {
			center, edge := active.points[0], active.points[1]
			finished = &Geometry{
				Type:   GeometryCircle,
				Center: center,
				Radius: math.Hypot(edge[0]-center[0], edge[1]-center[1]),
			}
		}
	case DigitizeRectangle:
		if len(active.points) >= 2 {
			start, end := active.points[0], active.points[1]
			finished = &Geometry{
				Type: GeometryPolygon,
				Coordinates: []Coordinate{
					start, {start[0], end[1]}, end, {end[0], start[1]}, start,
				},
			}
		}
	case DigitizeLineString, DigitizePolygon:
		// Open ended shapes finish on double click.
	}
	d.finishLocked(active, finished)
	return true
}

// HandleDoubleClick finishes an open ended digitization at the given
// position. Shapes that need more vertices stay active.
func (d *Digitizer) HandleDoubleClick(at Coordinate) bool {
	d.mu.Lock()
	active := d.active
	if active == nil {
		d.mu.Unlock()
		return false
	}
	var finished *Geometry
	switch active.kind {
	case DigitizeLineString:
		active.points = append(active.points, at)
		if len(active.points) >= 2 {
			finished = &Geometry{Type: GeometryLineString, Coordinates: active.points}
		}
	case DigitizePolygon:
		active.points = append(active.points, at)
		if len(active.points) >= 3 {
			ring := append(active.points, active.points[0])
			finished = &Geometry{Type: GeometryPolygon, Coordinates: ring}
		}
	default:
		// Fixed vertex shapes collect vertices through single clicks only.
	}
	d.finishLocked(active, finished)
	return true
}

// finishLocked clears the drawing state before invoking the handler, so a
// handler starting the next digitization observes a clean machine. The
// mutex is held on entry and released here.
func (d *Digitizer) finishLocked(active *digitization, finished *Geometry) {
	if finished == nil {
		d.mu.Unlock()
		return
	}
	d.active = nil
	d.mu.Unlock()
	d.surface.ClearPrompt()
	active.handler(*finished)
}
