package client

import "encoding/json"

// Runtime map feature flags, combined as a bitmask in create/describe
// requests.
const (
	FeatureLayersAndGroups     = 1
	FeatureLayerIcons          = 2
	FeatureLayerFeatureSources = 4
)

// DefaultRuntimeMapFeatures is the bitmask the bootstrap pipeline requests.
const DefaultRuntimeMapFeatures = FeatureLayersAndGroups | FeatureLayerIcons | FeatureLayerFeatureSources

// Request data flags of a features query.
const (
	QueryAttributes      = 1
	QueryInlineSelection = 2
	QueryTooltip         = 4
	QueryHyperlink       = 8
)

// Map image behavior bitmask, distinguishing the base imagery from the
// selection overlay.
const (
	BehaviorSelected     = 1
	BehaviorBaseImage    = 2
	BehaviorOutsideScale = 4
)

type CreateRuntimeMapOptions struct {
	MapDefinition     string
	RequestedFeatures int
	Session           string
	TargetMapName     string
}

type DescribeRuntimeMapOptions struct {
	MapName           string
	RequestedFeatures int
	Session           string
}

// QueryMapFeaturesOptions parameterizes a selection or tooltip query.
// Zero values mean "not set"; the session controller merges caller options
// over its defaults before dispatch.
type QueryMapFeaturesOptions struct {
	MapName              string `json:"mapname"`
	Session              string `json:"session"`
	Geometry             string `json:"geometry,omitempty"`
	SelectionVariant     string `json:"selectionvariant,omitempty"`
	SelectionColor       string `json:"selectioncolor,omitempty"`
	SelectionFormat      string `json:"selectionformat,omitempty"`
	FeatureFilter        string `json:"featurefilter,omitempty"`
	LayerNames           string `json:"layernames,omitempty"`
	MaxFeatures          int    `json:"maxfeatures,omitempty"`
	Persist              int    `json:"persist"`
	RequestData          int    `json:"requestdata,omitempty"`
	LayerAttributeFilter int    `json:"layerattributefilter,omitempty"`
}

type QueryMapFeaturesResponse struct {
	Tooltip          string          `json:"Tooltip,omitempty"`
	Hyperlink        string          `json:"Hyperlink,omitempty"`
	SelectedFeatures json.RawMessage `json:"SelectedFeatures,omitempty"`
	FeatureSet       json.RawMessage `json:"FeatureSet,omitempty"`
}

// HasSelection reports whether the response carries selected features.
func (r *QueryMapFeaturesResponse) HasSelection() bool {
	return r != nil && len(r.SelectedFeatures) > 0
}

// MapImageParams keys a map image request.
type MapImageParams struct {
	MapName        string
	Session        string
	Format         string
	SelectionColor string
	Behavior       int

	// Seq is a cache busting timestamp; zero omits the parameter.
	Seq int64
}
