package domain

import "math"

// inches per meter, the conversion constant used by the map server for
// scale/resolution arithmetic
const inchesPerMeter = 39.37

// metersPerInch for device DPI conversions
const metersPerInch = 0.0254

// MapView is a server-style view: center coordinates plus map scale
// (distinct from a surface's pixel resolution).
type MapView struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

type Bounds [4]float64

func (b Bounds) Width() float64  { return b[2] - b[0] }
func (b Bounds) Height() float64 { return b[3] - b[1] }

func (b Bounds) Center() (float64, float64) {
	return (b[0] + b[2]) / 2, (b[1] + b[3]) / 2
}

// ScaleToResolution converts a map scale to a surface resolution for the
// given device DPI and coordinate system meters-per-unit.
func ScaleToResolution(scale float64, dpi int, metersPerUnit float64) float64 {
	return scale / (inchesPerMeter * metersPerUnit) / float64(dpi)
}

// ResolutionToScale is the inverse of ScaleToResolution.
func ResolutionToScale(resolution float64, dpi int, metersPerUnit float64) float64 {
	return resolution * float64(dpi) * inchesPerMeter * metersPerUnit
}

// ViewForExtent computes the view covering the given extent on a device of
// devW x devH pixels, using the scale calculation of the legacy AJAX viewer.
func ViewForExtent(extent Bounds, devW, devH int, dpi int, metersPerUnit float64) MapView {
	cx, cy := extent.Center()
	metersPerPixel := metersPerInch / float64(dpi)
	var scale float64
	if float64(devH)*extent.Width() > float64(devW)*extent.Height() {
		// width-limited
		scale = extent.Width() * metersPerUnit / (float64(devW) * metersPerPixel)
	} else {
		// height-limited
		scale = extent.Height() * metersPerUnit / (float64(devH) * metersPerPixel)
	}
	return MapView{X: cx, Y: cy, Scale: scale}
}

const viewEpsilon = 1e-9

// ViewsCloseToEqual reports whether two views are equal within floating
// point tolerance, used to suppress redundant view propagation.
func ViewsCloseToEqual(a, b *MapView) bool {
	if a == nil || b == nil {
		return a == b
	}
	return math.Abs(a.X-b.X) < viewEpsilon &&
		math.Abs(a.Y-b.Y) < viewEpsilon &&
		math.Abs(a.Scale-b.Scale) < viewEpsilon
}
