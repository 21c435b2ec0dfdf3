package domain

// Layer group types of a runtime map.
const (
	GroupTypeNormal        = 1
	GroupTypeBaseMap       = 2
	GroupTypeLinkedTileSet = 3
)

type Coordinate struct {
	X float64 `json:"X"`
	Y float64 `json:"Y"`
}

type Envelope struct {
	LowerLeftCoordinate  Coordinate `json:"LowerLeftCoordinate"`
	UpperRightCoordinate Coordinate `json:"UpperRightCoordinate"`
}

type CoordinateSystemType struct {
	Wkt           string  `json:"Wkt"`
	MentorCode    string  `json:"MentorCode"`
	EpsgCode      string  `json:"EpsgCode"`
	MetersPerUnit float64 `json:"MetersPerUnit"`
}

type RuntimeMapGroup struct {
	Name     string `json:"Name"`
	Type     int    `json:"Type"`
	ObjectID string `json:"ObjectId"`
	Visible  bool   `json:"Visible"`
}

type RuntimeMapLayer struct {
	Name        string `json:"Name"`
	LegendLabel string `json:"LegendLabel,omitempty"`
	ObjectID    string `json:"ObjectId"`
	ParentID    string `json:"ParentId,omitempty"`
	Selectable  bool   `json:"Selectable"`
	Visible     bool   `json:"Visible"`
}

// RuntimeMap is the server-side session-scoped state of one map definition.
// The client keeps a read-mostly copy for the lifetime of the session.
type RuntimeMap struct {
	Name               string               `json:"Name"`
	SessionID          string               `json:"SessionId"`
	MapDefinition      string               `json:"MapDefinition"`
	TileSetDefinition  string               `json:"TileSetDefinition,omitempty"`
	CoordinateSystem   CoordinateSystemType `json:"CoordinateSystem"`
	Extents            Envelope             `json:"Extents"`
	Group              []RuntimeMapGroup    `json:"Group,omitempty"`
	Layer              []RuntimeMapLayer    `json:"Layer,omitempty"`
	DisplayDpi         int                  `json:"DisplayDpi"`
	TileWidth          int                  `json:"TileWidth,omitempty"`
	TileHeight         int                  `json:"TileHeight,omitempty"`
	FiniteDisplayScale []float64            `json:"FiniteDisplayScale,omitempty"`
	IconMimeType       string               `json:"IconMimeType,omitempty"`
}

// SelectableLayers lists the names of layers that can participate in
// selection queries.
func (m *RuntimeMap) SelectableLayers() []string {
	var names []string
	for _, l := range m.Layer {
		if l.Selectable {
			names = append(names, l.Name)
		}
	}
	return names
}
