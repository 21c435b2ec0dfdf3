package domain

// Widget type tags of an ApplicationDefinition (Fusion "flexible" layout).
const (
	WidgetTypeTaskPane          = "TaskPane"
	WidgetTypeViewSize          = "ViewSize"
	WidgetTypeLegend            = "Legend"
	WidgetTypeSelectionPanel    = "SelectionPanel"
	WidgetTypeCursorPosition    = "CursorPosition"
	WidgetTypeSelectionInfo     = "SelectionInfo"
	WidgetTypeNavigator         = "Navigator"
	WidgetTypeSearch            = "Search"
	WidgetTypeInvokeURL         = "InvokeURL"
	WidgetTypeCoordinateTracker = "CoordinateTracker"
)

// Container item functions.
const (
	ContainerItemWidget    = "Widget"
	ContainerItemSeparator = "Separator"
	ContainerItemFlyout    = "Flyout"
)

// Map provider kinds in a flexible layout map group.
const (
	MapTypeMapServer     = "MapGuide"
	MapTypeGoogle        = "Google"
	MapTypeVirtualEarth  = "VirtualEarth"
	MapTypeOpenStreetMap = "OpenStreetMap"
	MapTypeStamen        = "Stamen"
	MapTypeXYZ           = "XYZ"
)

// UIWidgetTag marks widgets that can appear in toolbars and menus.
const UIWidgetTag = "UiWidgetType"

// WidgetExtension holds the arbitrary per-widget configuration. Only the
// fields this viewer understands are declared.
type WidgetExtension struct {
	URL                     string         `json:"Url,omitempty"`
	Target                  string         `json:"Target,omitempty"`
	InitialTask             string         `json:"InitialTask,omitempty"`
	DisableIfSelectionEmpty bool           `json:"DisableIfSelectionEmpty,omitempty"`
	AdditionalParameter     []KeyValuePair `json:"AdditionalParameter,omitempty"`

	Layer         string   `json:"Layer,omitempty"`
	Prompt        string   `json:"Prompt,omitempty"`
	Filter        string   `json:"Filter,omitempty"`
	Title         string   `json:"Title,omitempty"`
	ResultColumns []string `json:"ResultColumns,omitempty"`
	MatchLimit    int      `json:"MatchLimit,omitempty"`

	// CoordinateTracker / CursorPosition
	Projection        []string `json:"Projection,omitempty"`
	DisplayProjection string   `json:"DisplayProjection,omitempty"`
	Precision         int      `json:"Precision,omitempty"`
	Template          string   `json:"Template,omitempty"`
}

// Widget is a single widget declaration inside a widget set.
type Widget struct {
	WidgetType string `json:"WidgetType"`
	Name       string `json:"Name"`
	Type       string `json:"Type"`

	// UI widget presentation, meaningful only when WidgetType == UIWidgetTag.
	Label      string `json:"Label,omitempty"`
	Tooltip    string `json:"Tooltip,omitempty"`
	ImageURL   string `json:"ImageUrl,omitempty"`
	ImageClass string `json:"ImageClass,omitempty"`

	Extension WidgetExtension `json:"Extension"`
}

// IsUI reports whether the widget may be placed into a toolbar container.
func (w Widget) IsUI() bool {
	return w.WidgetType == UIWidgetTag
}

// ContainerItem is one entry of a toolbar container: a widget reference,
// a separator, or a nested flyout with child items.
type ContainerItem struct {
	Function   string          `json:"Function"`
	Widget     string          `json:"Widget,omitempty"`
	Label      string          `json:"Label,omitempty"`
	Tooltip    string          `json:"Tooltip,omitempty"`
	ImageURL   string          `json:"ImageUrl,omitempty"`
	ImageClass string          `json:"ImageClass,omitempty"`
	Item       []ContainerItem `json:"Item,omitempty"`
}

type Container struct {
	Name string          `json:"Name"`
	Item []ContainerItem `json:"Item"`
}

type WidgetSet struct {
	Container []Container `json:"Container"`
	Widget    []Widget    `json:"Widget"`
}

// MapExtensionOptions carries provider specific settings of an external map.
type MapExtensionOptions struct {
	Name []string `json:"name,omitempty"`
	Type []string `json:"type,omitempty"`
	URLs []string `json:"urls,omitempty"`
}

type MapExtension struct {
	ResourceID      string              `json:"ResourceId,omitempty"`
	SelectionColor  string              `json:"SelectionColor,omitempty"`
	ImageFormat     string              `json:"ImageFormat,omitempty"`
	SelectionFormat string              `json:"SelectionFormat,omitempty"`
	Options         MapExtensionOptions `json:"Options,omitempty"`
}

// MapConfiguration is one map entry of a map group, either the map-server
// backed map or an external base layer provider.
type MapConfiguration struct {
	Type      string       `json:"Type"`
	Extension MapExtension `json:"Extension"`
}

type MapGroup struct {
	ID          string             `json:"@id"`
	InitialView *InitialView       `json:"InitialView,omitempty"`
	Map         []MapConfiguration `json:"Map"`
}

type MapSet struct {
	MapGroup []MapGroup `json:"MapGroup"`
}

type AppDefExtension struct {
	BingMapKey string `json:"BingMapKey,omitempty"`
}

// ApplicationDefinition is the flexible layout resource document.
type ApplicationDefinition struct {
	Title     string          `json:"Title,omitempty"`
	Extension AppDefExtension `json:"Extension,omitempty"`
	MapSet    *MapSet         `json:"MapSet,omitempty"`
	WidgetSet []WidgetSet     `json:"WidgetSet"`
}
