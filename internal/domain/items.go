package domain

// ItemKind discriminates the nodes of a converted UI item tree.
type ItemKind string

const (
	ItemCommand   ItemKind = "command"
	ItemSeparator ItemKind = "separator"
	ItemFlyout    ItemKind = "flyout"
	ItemUnknown   ItemKind = "unknown"
)

// ItemSpec is one node of the unified toolbar/menu model both layout
// families are normalized into. Per-item conversion failures become
// ItemUnknown placeholders carrying a localized message, they never abort
// the conversion of the containing toolbar.
type ItemSpec struct {
	Kind        ItemKind          `json:"kind"`
	Command     string            `json:"command,omitempty"`
	Label       string            `json:"label,omitempty"`
	Tooltip     string            `json:"tooltip,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	SpriteClass string            `json:"spriteClass,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`

	// FlyoutID references a hoisted flyout in the prepared set. Set during
	// submenu preparation; inline Children are cleared at that point.
	FlyoutID string     `json:"flyoutId,omitempty"`
	Children []ItemSpec `json:"children,omitempty"`

	// Error holds the localized message of an unknown-command placeholder.
	Error string `json:"error,omitempty"`
}

type Toolbar struct {
	Items []ItemSpec `json:"items"`
}

type Flyout struct {
	Label       string     `json:"label,omitempty"`
	Tooltip     string     `json:"tooltip,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	SpriteClass string     `json:"spriteClass,omitempty"`
	Children    []ItemSpec `json:"children"`
}

// PreparedMenuSet is the post-preparation shape: toolbars contain no nested
// flyout definitions, only references into the flat Flyouts mapping. Context
// menu children stay inline inside their flyout entry.
type PreparedMenuSet struct {
	Toolbars map[string]Toolbar `json:"toolbars"`
	Flyouts  map[string]Flyout  `json:"flyouts"`
}

// Well known toolbar slots.
const (
	ToolbarMain        = "toolbar-main"
	ToolbarTaskMenu    = "taskpane-menu"
	ToolbarContextMenu = "map-contextmenu"
)
