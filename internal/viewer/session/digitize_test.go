package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mapfront/mapfront-viewer/internal/i18n"
)

func testDigitizer(surface *fakeSurface) *Digitizer {
	return NewDigitizer(surface, i18n.NewBundles(), "en")
}

func TestDigitizePointFinishesOnFirstClick(t *testing.T) {
	surface := &fakeSurface{}
	d := testDigitizer(surface)

	var got []Geometry
	d.Point(func(geom Geometry) { got = append(got, geom) }, "")
	assert.True(t, d.IsDigitizing())

	assert.True(t, d.HandleClick(Coordinate{3, 4}))
	assert.False(t, d.IsDigitizing())
	if assert.Len(t, got, 1) {
		assert.Equal(t, GeometryPoint, got[0].Type)
		assert.Equal(t, []Coordinate{{3, 4}}, got[0].Coordinates)
	}
	assert.Equal(t, 1, surface.promptsCleared)
}

func TestDigitizeLineNeedsTwoClicks(t *testing.T) {
	d := testDigitizer(&fakeSurface{})

	var got []Geometry
	d.Line(func(geom Geometry) { got = append(got, geom) }, "")
	d.HandleClick(Coordinate{0, 0})
	assert.True(t, d.IsDigitizing())
	assert.Empty(t, got)

	d.HandleClick(Coordinate{5, 5})
	if assert.Len(t, got, 1) {
		assert.Equal(t, GeometryLineString, got[0].Type)
		assert.Equal(t, []Coordinate{{0, 0}, {5, 5}}, got[0].Coordinates)
	}
}

func TestDigitizeLineSurvivesStrayDoubleClick(t *testing.T) {
	d := testDigitizer(&fakeSurface{})

	var got []Geometry
	d.Line(func(geom Geometry) { got = append(got, geom) }, "")
	d.HandleClick(Coordinate{0, 0})

	// A double click between the two line clicks must not add a vertex
	// or finish the shape.
	assert.True(t, d.HandleDoubleClick(Coordinate{9, 9}))
	assert.True(t, d.IsDigitizing())
	assert.Empty(t, got)

	d.HandleClick(Coordinate{5, 5})
	assert.False(t, d.IsDigitizing())
	if assert.Len(t, got, 1) {
		assert.Equal(t, []Coordinate{{0, 0}, {5, 5}}, got[0].Coordinates)
	}
}

func TestDigitizeRectangleBuildsFourCornerPolygon(t *testing.T) {
	d := testDigitizer(&fakeSurface{})

	var got []Geometry
	d.Rectangle(func(geom Geometry) { got = append(got, geom) }, "")
	d.HandleClick(Coordinate{0, 0})
	d.HandleClick(Coordinate{10, 20})

	if assert.Len(t, got, 1) {
		assert.Equal(t, GeometryPolygon, got[0].Type)
		assert.Equal(t, []Coordinate{{0, 0}, {0, 20}, {10, 20}, {10, 0}, {0, 0}}, got[0].Coordinates)
	}
}

func TestDigitizeCircleComputesRadius(t *testing.T) {
	d := testDigitizer(&fakeSurface{})

	var got []Geometry
	d.Circle(func(geom Geometry) { got = append(got, geom) }, "")
	d.HandleClick(Coordinate{0, 0})
	d.HandleClick(Coordinate{3, 4})

	if assert.Len(t, got, 1) {
		assert.Equal(t, GeometryCircle, got[0].Type)
		assert.Equal(t, Coordinate{0, 0}, got[0].Center)
		assert.Equal(t, 5.0, got[0].Radius)
	}
}

func TestDigitizeLineStringFinishesOnDoubleClick(t *testing.T) {
	d := testDigitizer(&fakeSurface{})

	var got []Geometry
	d.LineString(func(geom Geometry) { got = append(got, geom) }, "")
	d.HandleClick(Coordinate{0, 0})
	d.HandleClick(Coordinate{1, 1})
	d.HandleClick(Coordinate{2, 2})
	assert.Empty(t, got)

	d.HandleDoubleClick(Coordinate{3, 3})
	if assert.Len(t, got, 1) {
		assert.Equal(t, []Coordinate{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, got[0].Coordinates)
	}
}

func TestDigitizePolygonClosesRing(t *testing.T) {
	d := testDigitizer(&fakeSurface{})

	var got []Geometry
	d.Polygon(func(geom Geometry) { got = append(got, geom) }, "")
	d.HandleClick(Coordinate{0, 0})
	d.HandleClick(Coordinate{10, 0})

	// Two vertices are not enough for a polygon even on double click.
	d.HandleDoubleClick(Coordinate{10, 10})
	assert.Empty(t, got)
	assert.True(t, d.IsDigitizing())

	d.HandleDoubleClick(Coordinate{0, 10})
	if assert.Len(t, got, 1) {
		coords := got[0].Coordinates
		assert.Equal(t, coords[0], coords[len(coords)-1])
		assert.Len(t, coords, 5)
	}
}

func TestDigitizeEscapeCancelsWithoutDelivery(t *testing.T) {
	surface := &fakeSurface{}
	d := testDigitizer(surface)

	var got []Geometry
	d.Polygon(func(geom Geometry) { got = append(got, geom) }, "")
	d.HandleClick(Coordinate{0, 0})
	d.HandleKeyDown(KeyEscape)

	assert.False(t, d.IsDigitizing())
	assert.Empty(t, got)
	assert.Equal(t, 1, surface.promptsCleared)

	// Other keys are ignored.
	d.Point(func(geom Geometry) { got = append(got, geom) }, "")
	d.HandleKeyDown(65)
	assert.True(t, d.IsDigitizing())
}

func TestDigitizeClicksIgnoredWhenIdle(t *testing.T) {
	d := testDigitizer(&fakeSurface{})
	assert.False(t, d.HandleClick(Coordinate{0, 0}))
	assert.False(t, d.HandleDoubleClick(Coordinate{0, 0}))
}

func TestDigitizeHandlerCanStartNextDigitization(t *testing.T) {
	d := testDigitizer(&fakeSurface{})

	var second []Geometry
	d.Point(func(Geometry) {
		d.Point(func(geom Geometry) { second = append(second, geom) }, "")
	}, "")

	d.HandleClick(Coordinate{1, 1})
	assert.True(t, d.IsDigitizing())

	d.HandleClick(Coordinate{2, 2})
	assert.Len(t, second, 1)
}

func TestDigitizePromptDefaultsFromCatalog(t *testing.T) {
	surface := &fakeSurface{}
	d := testDigitizer(surface)

	d.Point(func(Geometry) {}, "")
	d.Cancel()
	d.Point(func(Geometry) {}, "Custom prompt")

	if assert.Len(t, surface.prompts, 2) {
		assert.NotEmpty(t, surface.prompts[0])
		assert.NotEqual(t, "Custom prompt", surface.prompts[0])
		assert.Equal(t, "Custom prompt", surface.prompts[1])
	}
}
