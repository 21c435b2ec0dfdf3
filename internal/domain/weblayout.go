package domain

// Command type discriminators used in WebLayout command sets.
const (
	CommandTypeBasic         = "BasicCommandType"
	CommandTypeInvokeURL     = "InvokeURLCommandType"
	CommandTypeSearch        = "SearchCommandType"
	CommandTypeInvokeScript  = "InvokeScriptCommandType"
	CommandTypeViewOptions   = "ViewOptionsCommandType"
	CommandTypeMeasure       = "MeasureCommandType"
	CommandTypeHelp          = "HelpCommandType"
	CommandTypeBuffer        = "BufferCommandType"
	CommandTypeSelectWithin  = "SelectWithinCommandType"
	CommandTypePrintablePage = "GetPrintablePageCommandType"
)

// UI item functions in WebLayout toolbars and menus.
const (
	UIItemCommand   = "Command"
	UIItemSeparator = "Separator"
	UIItemFlyout    = "Flyout"
)

type KeyValuePair struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

// CommandDef is a single command declared in a WebLayout command set.
// The Type discriminator decides which of the variant fields are meaningful.
type CommandDef struct {
	Type         string `json:"@xsi:type"`
	Name         string `json:"Name"`
	Label        string `json:"Label"`
	Tooltip      string `json:"Tooltip"`
	Description  string `json:"Description"`
	ImageURL     string `json:"ImageURL"`
	TargetViewer string `json:"TargetViewer"`

	// Basic commands
	Action string `json:"Action,omitempty"`

	// Targeted commands
	Target      string `json:"Target,omitempty"`
	TargetFrame string `json:"TargetFrame,omitempty"`

	// Invoke URL commands
	URL                     string         `json:"URL,omitempty"`
	DisableIfSelectionEmpty bool           `json:"DisableIfSelectionEmpty,omitempty"`
	AdditionalParameter     []KeyValuePair `json:"AdditionalParameter,omitempty"`

	// Search commands
	Layer         string   `json:"Layer,omitempty"`
	Prompt        string   `json:"Prompt,omitempty"`
	Filter        string   `json:"Filter,omitempty"`
	ResultColumns []string `json:"ResultColumns,omitempty"`
	MatchLimit    int      `json:"MatchLimit,omitempty"`
}

func (c CommandDef) IsBasic() bool {
	return c.Type == CommandTypeBasic
}

func (c CommandDef) IsInvokeURL() bool {
	return c.Type == CommandTypeInvokeURL
}

func (c CommandDef) IsSearch() bool {
	return c.Type == CommandTypeSearch
}

// IsTargeted reports whether the command carries target/target-frame routing.
func (c CommandDef) IsTargeted() bool {
	switch c.Type {
	case CommandTypeInvokeURL, CommandTypeSearch, CommandTypeInvokeScript, CommandTypeHelp:
		return true
	}
	return false
}

// UIItem is one node of a WebLayout toolbar, task bar or context menu.
type UIItem struct {
	Function string   `json:"Function"`
	Command  string   `json:"Command,omitempty"`
	Label    string   `json:"Label,omitempty"`
	Tooltip  string   `json:"Tooltip,omitempty"`
	SubItem  []UIItem `json:"SubItem,omitempty"`
}

type InitialView struct {
	CenterX float64 `json:"CenterX"`
	CenterY float64 `json:"CenterY"`
	Scale   float64 `json:"Scale"`
}

// WebLayout is the legacy layout resource document.
type WebLayout struct {
	Title string `json:"Title"`
	Map   struct {
		ResourceID  string       `json:"ResourceId"`
		InitialView *InitialView `json:"InitialView,omitempty"`
	} `json:"Map"`
	CommandSet struct {
		Command []CommandDef `json:"Command"`
	} `json:"CommandSet"`
	ToolBar struct {
		Visible bool     `json:"Visible"`
		Button  []UIItem `json:"Button"`
	} `json:"ToolBar"`
	TaskPane struct {
		Visible     bool   `json:"Visible"`
		InitialTask string `json:"InitialTask"`
		Width       int    `json:"Width"`
		TaskBar     struct {
			Visible    bool     `json:"Visible"`
			MenuButton []UIItem `json:"MenuButton"`
		} `json:"TaskBar"`
	} `json:"TaskPane"`
	ContextMenu struct {
		Visible  bool     `json:"Visible"`
		MenuItem []UIItem `json:"MenuItem"`
	} `json:"ContextMenu"`
	InformationPane struct {
		Visible           bool `json:"Visible"`
		Width             int  `json:"Width"`
		LegendVisible     bool `json:"LegendVisible"`
		PropertiesVisible bool `json:"PropertiesVisible"`
	} `json:"InformationPane"`
	StatusBar struct {
		Visible bool `json:"Visible"`
	} `json:"StatusBar"`
	ZoomControl struct {
		Visible bool `json:"Visible"`
	} `json:"ZoomControl"`
	SelectionColor       string `json:"SelectionColor,omitempty"`
	MapImageFormat       string `json:"MapImageFormat,omitempty"`
	SelectionImageFormat string `json:"SelectionImageFormat,omitempty"`
	PointSelectionBuffer int    `json:"PointSelectionBuffer,omitempty"`
}
