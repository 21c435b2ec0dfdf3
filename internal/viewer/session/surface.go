package session

import (
	"fmt"
	"strings"

	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/projection"
)

// Coordinate is a map space position.
type Coordinate [2]float64

// GeometryType of a digitized geometry.
type GeometryType string

const (
	GeometryPoint      GeometryType = "Point"
	GeometryLineString GeometryType = "LineString"
	GeometryPolygon    GeometryType = "Polygon"
	GeometryCircle     GeometryType = "Circle"
)

// Geometry is a digitized shape. Circles carry center and radius instead
// of coordinates.
type Geometry struct {
	Type        GeometryType
	Coordinates []Coordinate
	Center      Coordinate
	Radius      float64
}

// WKT renders the geometry as well known text for feature queries. Circles
// have no WKT form and render as their center point.
func (g Geometry) WKT() string {
	switch g.Type {
	case GeometryPoint:
		if len(g.Coordinates) == 0 {
			return ""
		}
		return fmt.Sprintf("POINT (%v %v)", g.Coordinates[0][0], g.Coordinates[0][1])
	case GeometryLineString:
		return "LINESTRING (" + joinCoords(g.Coordinates) + ")"
	case GeometryPolygon:
		return "POLYGON ((" + joinCoords(g.Coordinates) + "))"
	case GeometryCircle:
		return fmt.Sprintf("POINT (%v %v)", g.Center[0], g.Center[1])
	}
	return ""
}

func joinCoords(coords []Coordinate) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = fmt.Sprintf("%v %v", c[0], c[1])
	}
	return strings.Join(parts, ", ")
}

// PointWKT returns the WKT of a single coordinate.
func PointWKT(c Coordinate) string {
	return Geometry{Type: GeometryPoint, Coordinates: []Coordinate{c}}.WKT()
}

// BoxPolygon builds the axis aligned selection box around two opposite
// corners.
func BoxPolygon(min, max Coordinate) Geometry {
	return Geometry{
		Type: GeometryPolygon,
		Coordinates: []Coordinate{
			min, {min[0], max[1]}, max, {max[0], min[1]}, min,
		},
	}
}

// VisibilityChanges are the layer and group visibility overrides pushed to
// the rendered map imagery.
type VisibilityChanges struct {
	ShowLayers []string `json:"showLayers,omitempty"`
	ShowGroups []string `json:"showGroups,omitempty"`
	HideLayers []string `json:"hideLayers,omitempty"`
	HideGroups []string `json:"hideGroups,omitempty"`
}

// MapSurface is the rendering half of the viewer. The controller drives it
// and never renders anything itself; implementations relay the calls to an
// attached client over whatever transport hosts the surface.
type MapSurface interface {
	projection.SurfaceRegistrar

	// SetView recenters the rendered map.
	SetView(view domain.MapView)

	// UpdateLayersImage and UpdateSelectionImage point the two imagery
	// overlays at fresh image URLs.
	UpdateLayersImage(url string)
	UpdateSelectionImage(url string)

	// ApplyVisibility pushes layer/group visibility overrides into the
	// imagery request parameters.
	ApplyVisibility(changes VisibilityChanges)

	// SetBaseLayerVisibility toggles one external base layer; all others
	// of the group are expected to be hidden by the implementation.
	SetBaseLayerVisibility(name string, visible bool)

	ShowTooltip(at Coordinate, html string)
	HideTooltip()

	// SetPrompt and ClearPrompt control the mouse-following digitization
	// prompt.
	SetPrompt(text string)
	ClearPrompt()
}
