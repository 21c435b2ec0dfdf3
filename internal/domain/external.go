package domain

// External base layer provider kinds understood by the map surface.
const (
	ExternalKindOSM    = "OSM"
	ExternalKindBing   = "BingMaps"
	ExternalKindStamen = "Stamen"
	ExternalKindXYZ    = "XYZ"
)

// ExternalBaseLayer describes a third party tile provider layered under the
// map-server imagery. Exactly one layer of a map group is visible initially.
type ExternalBaseLayer struct {
	Name    string            `json:"name"`
	Kind    string            `json:"kind"`
	Visible bool              `json:"visible"`
	Options map[string]string `json:"options,omitempty"`
	URLs    []string          `json:"urls,omitempty"`
}

// MapInfo pairs a runtime map with its external base layers and the
// optional initial view of its map group.
type MapInfo struct {
	MapGroupID         string              `json:"mapGroupId"`
	Map                *RuntimeMap         `json:"map"`
	InitialView        *MapView            `json:"initialView,omitempty"`
	ExternalBaseLayers []ExternalBaseLayer `json:"externalBaseLayers,omitempty"`
}
