package domain

import "encoding/json"

// ActiveTool is the interactive tool the surface starts with.
type ActiveTool int

const (
	ToolZoom ActiveTool = iota
	ToolSelect
	ToolPan
	ToolNone
)

// Capabilities are the layout driven feature flags of the resolved viewer.
type Capabilities struct {
	HasTaskPane       bool `json:"hasTaskPane"`
	HasTaskBar        bool `json:"hasTaskBar"`
	HasStatusBar      bool `json:"hasStatusBar"`
	HasNavigator      bool `json:"hasNavigator"`
	HasSelectionPanel bool `json:"hasSelectionPanel"`
	HasLegend         bool `json:"hasLegend"`
	HasToolbar        bool `json:"hasToolbar"`
	HasViewSize       bool `json:"hasViewSize"`
}

// ViewerConfig collects rendering settings picked up from the layout. When
// multiple map groups declare them, the first declaration wins.
type ViewerConfig struct {
	SelectionColor          string `json:"selectionColor,omitempty"`
	ImageFormat             string `json:"imageFormat,omitempty"`
	SelectionImageFormat    string `json:"selectionImageFormat,omitempty"`
	PointSelectionBuffer    int    `json:"pointSelectionBuffer,omitempty"`
	CoordinateProjection    string `json:"coordinateProjection,omitempty"`
	CoordinateDecimals      int    `json:"coordinateDecimals,omitempty"`
	CoordinateDisplayFormat string `json:"coordinateDisplayFormat,omitempty"`
}

// InitPayload is the unified result of a successful bootstrap. It is an
// immutable snapshot once dispatched; interactive state lives in the map
// session controller.
type InitPayload struct {
	ActiveMapName          string                     `json:"activeMapName"`
	InitialURL             string                     `json:"initialUrl"`
	InitialTaskPaneWidth   int                        `json:"initialTaskPaneWidth,omitempty"`
	InitialInfoPaneWidth   int                        `json:"initialInfoPaneWidth,omitempty"`
	Locale                 string                     `json:"locale"`
	Maps                   map[string]MapInfo         `json:"maps"`
	Config                 ViewerConfig               `json:"config"`
	Capabilities           Capabilities               `json:"capabilities"`
	Toolbars               PreparedMenuSet            `json:"toolbars"`
	Warnings               []string                   `json:"warnings"`
	InitialActiveTool      ActiveTool                 `json:"initialActiveTool"`
	FeatureTooltipsEnabled bool                       `json:"featureTooltipsEnabled"`
	Title                  string                     `json:"title,omitempty"`

	InitialView       *MapView `json:"initialView,omitempty"`
	InitialShowLayers []string `json:"initialShowLayers,omitempty"`
	InitialShowGroups []string `json:"initialShowGroups,omitempty"`
	InitialHideLayers []string `json:"initialHideLayers,omitempty"`
	InitialHideGroups []string `json:"initialHideGroups,omitempty"`

	// InitialSelections maps map names to selection sets restored from the
	// persisted session store. Populated only when a session was reused.
	InitialSelections map[string]json.RawMessage `json:"initialSelections,omitempty"`
}
