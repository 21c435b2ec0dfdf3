package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeometryWKT(t *testing.T) {
	point := Geometry{Type: GeometryPoint, Coordinates: []Coordinate{{1.5, 2.5}}}
	assert.Equal(t, "POINT (1.5 2.5)", point.WKT())

	line := Geometry{Type: GeometryLineString, Coordinates: []Coordinate{{0, 0}, {1, 1}}}
	assert.Equal(t, "LINESTRING (0 0, 1 1)", line.WKT())

	poly := BoxPolygon(Coordinate{0, 0}, Coordinate{2, 2})
	assert.Equal(t, "POLYGON ((0 0, 0 2, 2 2, 2 0, 0 0))", poly.WKT())

	circle := Geometry{Type: GeometryCircle, Center: Coordinate{4, 5}, Radius: 10}
	assert.Equal(t, "POINT (4 5)", circle.WKT())

	assert.Empty(t, Geometry{Type: GeometryPoint}.WKT())
}

func TestPointWKT(t *testing.T) {
	assert.Equal(t, "POINT (3 4)", PointWKT(Coordinate{3, 4}))
}
