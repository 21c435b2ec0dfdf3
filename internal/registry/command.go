package registry

import (
	"sync"

	"github.com/mapfront/mapfront-viewer/internal/domain"
)

// Default command names every viewer build understands.
const (
	CmdSelect          = "Select"
	CmdPan             = "Pan"
	CmdZoom            = "Zoom"
	CmdMapTip          = "MapTip"
	CmdZoomIn          = "ZoomIn"
	CmdZoomOut         = "ZoomOut"
	CmdZoomExtents     = "ZoomExtents"
	CmdSelectRadius    = "SelectRadius"
	CmdSelectPolygon   = "SelectPolygon"
	CmdClearSelection  = "ClearSelection"
	CmdZoomToSelection = "ZoomToSelection"
	CmdRefreshMap      = "RefreshMap"
	CmdPreviousView    = "PreviousView"
	CmdNextView        = "NextView"
	CmdViewerOptions   = "ViewerOptions"
	CmdMeasure         = "Measure"
	CmdHelp            = "Help"
	CmdBuffer          = "Buffer"
	CmdSelectWithin    = "SelectWithin"
	CmdQuickPlot       = "QuickPlot"
)

// State is the application state snapshot command predicates evaluate
// against. Predicates are pure and evaluated at render time, never at
// registration time.
type State struct {
	BusyCount        int
	HasSelection     bool
	ViewHistoryIndex int
	ViewHistoryLen   int
}

// Condition is a pure predicate over the application state.
type Condition func(s State) bool

func IsNotBusy(s State) bool       { return s.BusyCount == 0 }
func HasSelection(s State) bool    { return s.HasSelection }
func HasPreviousView(s State) bool { return s.ViewHistoryIndex > 0 }
func HasNextView(s State) bool     { return s.ViewHistoryIndex < s.ViewHistoryLen-1 }

func always(State) bool { return true }
func never(State) bool  { return false }

// InvokeKind discriminates what invoking a command does.
type InvokeKind int

const (
	InvokeBuiltin InvokeKind = iota
	InvokeURL
	InvokeSearch
)

type SearchSpec struct {
	Layer         string
	Prompt        string
	Filter        string
	ResultColumns []string
	MatchLimit    int
}

// Command is a runtime command descriptor referenced by toolbar items.
type Command struct {
	Name        string
	Title       string
	Icon        string
	SpriteClass string
	Enabled     Condition
	Selected    Condition

	Kind        InvokeKind
	URL         string
	Parameters  []domain.KeyValuePair
	Target      string
	TargetFrame string
	Search      *SearchSpec
}

// InvokeURLCommand describes an invoke-URL registration.
type InvokeURLCommand struct {
	URL                     string
	Icon                    string
	DisableIfSelectionEmpty bool
	Target                  string
	TargetFrame             string
	Parameters              []domain.KeyValuePair
	Title                   string
}

// SearchCommand describes a search registration.
type SearchCommand struct {
	Layer         string
	Prompt        string
	Filter        string
	ResultColumns []string
	MatchLimit    int
	Target        string
	TargetFrame   string
	Title         string
}

// Commands maps command names to descriptors. Registration is last-write
// wins; the registry lives for the process and is passed explicitly to its
// consumers.
type Commands struct {
	mu     sync.RWMutex
	byName map[string]*Command
}

func NewCommands() *Commands {
	return &Commands{byName: make(map[string]*Command)}
}

// Register stores a command unconditionally, replacing any prior
// registration under the same name.
func (r *Commands) Register(name string, cmd *Command) {
	if cmd.Enabled == nil {
		cmd.Enabled = always
	}
	if cmd.Selected == nil {
		cmd.Selected = never
	}
	cmd.Name = name
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = cmd
}

// RegisterInvokeURL registers an invoke-URL command. When the command is
// marked DisableIfSelectionEmpty its enabled predicate requires a selection.
func (r *Commands) RegisterInvokeURL(name string, def InvokeURLCommand) {
	enabled := always
	if def.DisableIfSelectionEmpty {
		enabled = HasSelection
	}
	icon := def.Icon
	if icon == "" {
		icon = "invoke-url.png"
	}
	r.Register(name, &Command{
		Title:       def.Title,
		Icon:        icon,
		Enabled:     enabled,
		Kind:        InvokeURL,
		URL:         def.URL,
		Parameters:  def.Parameters,
		Target:      def.Target,
		TargetFrame: def.TargetFrame,
	})
}

// RegisterSearch registers a search command.
func (r *Commands) RegisterSearch(name string, def SearchCommand) {
	r.Register(name, &Command{
		Title:       def.Title,
		Kind:        InvokeSearch,
		Target:      def.Target,
		TargetFrame: def.TargetFrame,
		Search: &SearchSpec{
			Layer:         def.Layer,
			Prompt:        def.Prompt,
			Filter:        def.Filter,
			ResultColumns: def.ResultColumns,
			MatchLimit:    def.MatchLimit,
		},
	})
}

// Lookup returns the descriptor registered under name, or nil.
func (r *Commands) Lookup(name string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Names returns the registered command names, in no particular order.
func (r *Commands) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}
