package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/i18n"
	"github.com/mapfront/mapfront-viewer/internal/layout"
	"github.com/mapfront/mapfront-viewer/internal/projection"
	"github.com/mapfront/mapfront-viewer/internal/registry"
)

// DefaultTaskPaneURL is the task pane content shown when a layout declares
// no initial task.
const DefaultTaskPaneURL = "server/TaskPane.html"

// LayoutAPI is the slice of the mapagent client the orchestrator needs on
// top of runtime map provisioning.
type LayoutAPI interface {
	RuntimeMapAPI
	CreateSession(ctx context.Context, username, password string) (string, error)
	GetWebLayout(ctx context.Context, resourceID, session string) (*domain.WebLayout, error)
	GetApplicationDefinition(ctx context.Context, resourceID, session string) (*domain.ApplicationDefinition, error)
}

// SelectionStore persists selection sets across viewer loads of the same
// session.
type SelectionStore interface {
	GetSelectionSet(ctx context.Context, session, mapName string) (json.RawMessage, error)
	ClearSessionStore(ctx context.Context, session string) error
}

// LocaleFetcher loads a message bundle for a non-default locale.
type LocaleFetcher func(ctx context.Context, locale string) (map[string]string, error)

// Options parameterizes one bootstrap run.
type Options struct {
	ResourceID string `validate:"required"`
	Locale     string `validate:"omitempty,min=2"`

	// Session reuses an existing server session instead of creating one.
	Session  string
	Username string
	Password string

	// ExternalBaseLayers apply to the single map of a legacy layout;
	// flexible layouts declare their own per map group.
	ExternalBaseLayers []domain.ExternalBaseLayer

	InitialView            *domain.MapView
	InitialActiveMap       string
	InitialShowLayers      []string
	InitialShowGroups      []string
	InitialHideLayers      []string
	InitialHideGroups      []string
	FeatureTooltipsEnabled bool

	// Surface, when set, receives the resolved projection table before the
	// init payload is dispatched.
	Surface projection.SurfaceRegistrar
}

func (o *Options) applyDefaults() {
	if o.Locale == "" {
		o.Locale = i18n.DefaultLocale
	}
	if o.Username == "" {
		o.Username = "Anonymous"
	}
}

// Orchestrator drives the bootstrap state machine: locale, session, layout
// resource, runtime maps, toolbars, payload. Any failure past option
// validation is dispatched as a single init-error event.
type Orchestrator struct {
	log         *zap.SugaredLogger
	api         LayoutAPI
	bundles     *i18n.Bundles
	commands    *registry.Commands
	provisioner *Provisioner
	converter   *layout.Converter
	selections  SelectionStore
	fetchBundle LocaleFetcher
	dispatcher  Dispatcher
	validate    *validator.Validate
}

func NewOrchestrator(log *zap.SugaredLogger, api LayoutAPI, bundles *i18n.Bundles, commands *registry.Commands, provisioner *Provisioner, converter *layout.Converter, selections SelectionStore, fetchBundle LocaleFetcher, dispatcher Dispatcher) *Orchestrator {
	return &Orchestrator{
		log:         log,
		api:         api,
		bundles:     bundles,
		commands:    commands,
		provisioner: provisioner,
		converter:   converter,
		selections:  selections,
		fetchBundle: fetchBundle,
		dispatcher:  dispatcher,
		validate:    validator.New(),
	}
}

// InitLayout runs the full bootstrap. On success the init payload is
// dispatched and returned; on failure a structured init-error event is
// dispatched exactly once and the error returned.
func (o *Orchestrator) InitLayout(ctx context.Context, opts Options) (*domain.InitPayload, error) {
	opts.applyDefaults()
	if err := o.validateOptions(opts); err != nil {
		o.dispatchError(err, opts)
		return nil, err
	}
	payload, err := o.initAsync(ctx, opts)
	if err != nil {
		o.dispatchError(err, opts)
		return nil, err
	}
	o.applyOverrides(payload, opts)
	o.dispatcher.Dispatch(InitAppEvent{Payload: payload})
	return payload, nil
}

// AcknowledgeWarnings dismisses the startup warnings of a completed
// bootstrap.
func (o *Orchestrator) AcknowledgeWarnings() {
	o.dispatcher.Dispatch(AcknowledgeWarningsEvent{})
}

func (o *Orchestrator) validateOptions(opts Options) error {
	err := o.validate.Struct(opts)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			if fe.Field() == "ResourceID" {
				return domain.NewViewerError(o.bundles.Tr("INIT_ERROR_MISSING_RESOURCE_PARAM", opts.Locale))
			}
		}
	}
	return fmt.Errorf("validating bootstrap options: %w", err)
}

func (o *Orchestrator) initAsync(ctx context.Context, opts Options) (*domain.InitPayload, error) {
	// English strings are baked in; other locales come from a fetched
	// bundle, and a fetch failure downgrades to the default locale.
	if opts.Locale != i18n.DefaultLocale && o.fetchBundle != nil {
		bundle, err := o.fetchBundle(ctx, opts.Locale)
		if err != nil {
			o.log.Warnw("failed to register string bundle", "locale", opts.Locale, "error", err)
		} else {
			o.bundles.Register(opts.Locale, bundle)
			o.dispatcher.Dispatch(SetLocaleEvent{Locale: opts.Locale})
			o.log.Infow("registered string bundle", "locale", opts.Locale)
		}
	}

	session := opts.Session
	sessionReused := false
	if session == "" {
		var err error
		session, err = o.api.CreateSession(ctx, opts.Username, opts.Password)
		if err != nil {
			return nil, err
		}
	} else {
		o.log.Infow("re-using session", "session", session)
		sessionReused = true
	}

	payload, err := o.sessionAcquired(ctx, opts, session, sessionReused)
	if err != nil {
		return nil, err
	}

	if sessionReused && o.selections != nil {
		restored := make(map[string]json.RawMessage)
		for mapName := range payload.Maps {
			sset, err := o.selections.GetSelectionSet(ctx, session, mapName)
			if err != nil {
				o.log.Warnw("failed to restore selection set", "map", mapName, "error", err)
				continue
			}
			if len(sset) > 0 {
				restored[mapName] = sset
			}
		}
		if len(restored) > 0 {
			payload.InitialSelections = restored
		}
		// Best effort cleanup, a stale store entry is not worth failing
		// the bootstrap over.
		if err := o.selections.ClearSessionStore(ctx, session); err != nil {
			o.log.Warnw("failed to clear session selection store", "error", err)
		}
	}
	return payload, nil
}

func (o *Orchestrator) sessionAcquired(ctx context.Context, opts Options, session string, sessionReused bool) (*domain.InitPayload, error) {
	switch {
	case strings.HasSuffix(opts.ResourceID, "WebLayout"):
		wl, err := o.api.GetWebLayout(ctx, opts.ResourceID, session)
		if err != nil {
			return nil, o.resourceError(err, opts, session)
		}
		return o.initFromWebLayout(ctx, wl, opts, session, sessionReused)
	case strings.HasSuffix(opts.ResourceID, "ApplicationDefinition"):
		appDef, err := o.api.GetApplicationDefinition(ctx, opts.ResourceID, session)
		if err != nil {
			return nil, o.resourceError(err, opts, session)
		}
		return o.initFromAppDef(ctx, appDef, opts, session, sessionReused)
	default:
		return nil, domain.NewViewerError(o.bundles.Tr("INIT_ERROR_UNKNOWN_RESOURCE_TYPE", opts.Locale, i18n.Args{
			"resourceId": opts.ResourceID,
		}))
	}
}

// resourceError localizes the two well known layout fetch failures.
func (o *Orchestrator) resourceError(err error, opts Options, session string) error {
	switch {
	case domain.IsSessionExpiredError(err):
		return domain.NewViewerError(o.bundles.Tr("INIT_ERROR_EXPIRED_SESSION", opts.Locale, i18n.Args{
			"sessionId": session,
		}))
	case isResourceNotFound(err):
		return domain.NewViewerError(o.bundles.Tr("INIT_ERROR_RESOURCE_NOT_FOUND", opts.Locale, i18n.Args{
			"resourceId": opts.ResourceID,
		}))
	}
	return err
}

func (o *Orchestrator) initFromWebLayout(ctx context.Context, wl *domain.WebLayout, opts Options, session string, sessionReused bool) (*domain.InitPayload, error) {
	refs := layout.MapReferencesFromWebLayout(wl)
	res, err := o.provisioner.Provision(ctx, refs, session, sessionReused, opts.Locale, nil, opts.Surface)
	if err != nil {
		return nil, err
	}

	cmdsByKey := make(map[string]domain.CommandDef, len(wl.CommandSet.Command))
	for _, cmd := range wl.CommandSet.Command {
		if cmd.IsInvokeURL() {
			params := make([]domain.KeyValuePair, len(cmd.AdditionalParameter))
			copy(params, cmd.AdditionalParameter)
			o.commands.RegisterInvokeURL(cmd.Name, registry.InvokeURLCommand{
				URL:                     cmd.URL,
				DisableIfSelectionEmpty: cmd.DisableIfSelectionEmpty,
				Target:                  cmd.Target,
				TargetFrame:             cmd.TargetFrame,
				Parameters:              params,
				Title:                   cmd.Label,
			})
		} else if cmd.IsSearch() {
			o.commands.RegisterSearch(cmd.Name, registry.SearchCommand{
				Layer:         cmd.Layer,
				Prompt:        cmd.Prompt,
				Filter:        cmd.Filter,
				ResultColumns: cmd.ResultColumns,
				MatchLimit:    cmd.MatchLimit,
				Target:        cmd.Target,
				TargetFrame:   cmd.TargetFrame,
				Title:         cmd.Label,
			})
		}
		cmdsByKey[cmd.Name] = cmd
	}

	toolbars := map[string]domain.Toolbar{
		domain.ToolbarMain:        {},
		domain.ToolbarTaskMenu:    {},
		domain.ToolbarContextMenu: {},
	}
	if wl.ToolBar.Visible {
		toolbars[domain.ToolbarMain] = domain.Toolbar{
			Items: o.converter.ConvertWebLayoutItems(wl.ToolBar.Button, cmdsByKey, opts.Locale, true),
		}
	}
	if wl.TaskPane.TaskBar.Visible {
		toolbars[domain.ToolbarTaskMenu] = domain.Toolbar{
			Items: o.converter.ConvertWebLayoutItems(wl.TaskPane.TaskBar.MenuButton, cmdsByKey, opts.Locale, false),
		}
	}
	if wl.ContextMenu.Visible {
		toolbars[domain.ToolbarContextMenu] = domain.Toolbar{
			Items: o.converter.ConvertWebLayoutItems(wl.ContextMenu.MenuItem, cmdsByKey, opts.Locale, false),
		}
	}
	prepared, _ := layout.PrepareSubMenus(toolbars)

	config := domain.ViewerConfig{
		SelectionColor:       wl.SelectionColor,
		ImageFormat:          wl.MapImageFormat,
		SelectionImageFormat: wl.SelectionImageFormat,
		PointSelectionBuffer: wl.PointSelectionBuffer,
	}

	var initialView *domain.MapView
	if wl.Map.InitialView != nil {
		initialView = &domain.MapView{
			X:     wl.Map.InitialView.CenterX,
			Y:     wl.Map.InitialView.CenterY,
			Scale: wl.Map.InitialView.Scale,
		}
	}

	firstMapName := res.Order[0]
	firstMap := res.Maps[firstMapName]
	maps := map[string]domain.MapInfo{
		firstMapName: {
			MapGroupID:         firstMapName,
			Map:                firstMap,
			InitialView:        initialView,
			ExternalBaseLayers: opts.ExternalBaseLayers,
		},
	}

	return &domain.InitPayload{
		ActiveMapName:          firstMapName,
		FeatureTooltipsEnabled: opts.FeatureTooltipsEnabled,
		InitialURL:             ensureParameters(firstOrDefaultTask(wl.TaskPane.InitialTask), firstMapName, firstMap.SessionID, opts.Locale),
		InitialTaskPaneWidth:   wl.TaskPane.Width,
		InitialInfoPaneWidth:   wl.InformationPane.Width,
		Locale:                 opts.Locale,
		Maps:                   maps,
		Config:                 config,
		Capabilities: domain.Capabilities{
			HasTaskPane:       wl.TaskPane.Visible,
			HasTaskBar:        wl.TaskPane.TaskBar.Visible,
			HasStatusBar:      wl.StatusBar.Visible,
			HasNavigator:      wl.ZoomControl.Visible,
			HasSelectionPanel: wl.InformationPane.Visible && wl.InformationPane.PropertiesVisible,
			HasLegend:         wl.InformationPane.Visible && wl.InformationPane.LegendVisible,
			HasToolbar:        wl.ToolBar.Visible,
			HasViewSize:       wl.StatusBar.Visible,
		},
		Toolbars:          prepared,
		Warnings:          []string{},
		InitialActiveTool: domain.ToolPan,
		Title:             wl.Title,
	}, nil
}

func (o *Orchestrator) initFromAppDef(ctx context.Context, appDef *domain.ApplicationDefinition, opts Options, session string, sessionReused bool) (*domain.InitPayload, error) {
	refs, err := layout.MapReferencesFromAppDef(appDef)
	if err != nil {
		return nil, err
	}
	extraEpsgs := layout.ExtraProjectionsFromAppDef(appDef)
	res, err := o.provisioner.Provision(ctx, refs, session, sessionReused, opts.Locale, extraEpsgs, opts.Surface)
	if err != nil {
		return nil, err
	}

	var taskPane, viewSize *domain.Widget
	var hasLegend, hasStatus, hasNavigator, hasSelectionPanel bool
	config := domain.ViewerConfig{}
	widgetsByKey := make(map[string]domain.Widget)

	// Capabilities and command registrations fall out of one widget walk.
	for _, ws := range appDef.WidgetSet {
		for i, widget := range ws.Widget {
			ext := widget.Extension
			switch widget.Type {
			case domain.WidgetTypeTaskPane:
				taskPane = &ws.Widget[i]
			case domain.WidgetTypeViewSize:
				viewSize = &ws.Widget[i]
			case domain.WidgetTypeLegend:
				hasLegend = true
			case domain.WidgetTypeSelectionPanel:
				hasSelectionPanel = true
			case domain.WidgetTypeCursorPosition, domain.WidgetTypeSelectionInfo:
				hasStatus = true
			case domain.WidgetTypeNavigator:
				hasNavigator = true
			case domain.WidgetTypeSearch:
				title := ext.Title
				if title == "" && widget.IsUI() {
					title = widget.Label
				}
				o.commands.RegisterSearch(widget.Name, registry.SearchCommand{
					Layer:         ext.Layer,
					Prompt:        ext.Prompt,
					Filter:        ext.Filter,
					ResultColumns: ext.ResultColumns,
					MatchLimit:    ext.MatchLimit,
					Target:        layout.ConvertCommandTarget(ext.Target),
					TargetFrame:   ext.Target,
					Title:         title,
				})
			case domain.WidgetTypeInvokeURL:
				var title string
				if widget.IsUI() {
					title = widget.Label
				}
				o.commands.RegisterInvokeURL(widget.Name, registry.InvokeURLCommand{
					URL:                     ext.URL,
					DisableIfSelectionEmpty: ext.DisableIfSelectionEmpty,
					Target:                  layout.ConvertCommandTarget(ext.Target),
					TargetFrame:             ext.Target,
					Parameters:              ext.AdditionalParameter,
					Title:                   title,
				})
			}
			widgetsByKey[widget.Name] = widget
		}
	}

	toolbars := make(map[string]domain.Toolbar)
	for _, ws := range appDef.WidgetSet {
		for _, cont := range ws.Container {
			toolbars[cont.Name] = domain.Toolbar{
				Items: o.converter.ConvertFlexItems(cont.Item, widgetsByKey, opts.Locale, true),
			}
		}
		for _, w := range ws.Widget {
			if w.Type == domain.WidgetTypeCursorPosition {
				config.CoordinateProjection = w.Extension.DisplayProjection
				config.CoordinateDecimals = w.Extension.Precision
				config.CoordinateDisplayFormat = w.Extension.Template
			}
		}
	}

	warnings := []string{}
	maps := o.converter.SetupMaps(appDef, res.Maps, &config, opts.Locale, &warnings)

	initialTask := DefaultTaskPaneURL
	hasTaskBar := false
	if taskPane != nil {
		// Flexible layouts cannot control task bar visibility.
		hasTaskBar = true
		initialTask = firstOrDefaultTask(taskPane.Extension.InitialTask)
	}

	firstMapName := res.Order[0]
	firstMap := res.Maps[firstMapName]

	prepared, foundContextMenu := layout.PrepareSubMenus(toolbars)
	if !foundContextMenu {
		warnings = append(warnings, o.bundles.Tr("INIT_WARNING_NO_CONTEXT_MENU", opts.Locale, i18n.Args{
			"containerName": domain.ToolbarContextMenu,
		}))
	}

	return &domain.InitPayload{
		ActiveMapName:          firstMapName,
		InitialURL:             ensureParameters(initialTask, firstMapName, firstMap.SessionID, opts.Locale),
		FeatureTooltipsEnabled: opts.FeatureTooltipsEnabled,
		Locale:                 opts.Locale,
		Maps:                   maps,
		Config:                 config,
		Capabilities: domain.Capabilities{
			HasTaskPane:       taskPane != nil,
			HasTaskBar:        hasTaskBar,
			HasStatusBar:      hasStatus,
			HasNavigator:      hasNavigator,
			HasSelectionPanel: hasSelectionPanel,
			HasLegend:         hasLegend,
			HasToolbar:        len(toolbars) > 0,
			HasViewSize:       viewSize != nil,
		},
		Toolbars:          prepared,
		Warnings:          warnings,
		InitialActiveTool: domain.ToolPan,
		Title:             appDef.Title,
	}, nil
}

// applyOverrides layers caller supplied view and visibility preferences
// over the layout derived payload.
func (o *Orchestrator) applyOverrides(payload *domain.InitPayload, opts Options) {
	if opts.InitialView != nil {
		view := *opts.InitialView
		payload.InitialView = &view
	}
	if opts.InitialActiveMap != "" {
		payload.ActiveMapName = opts.InitialActiveMap
	}
	payload.InitialShowLayers = opts.InitialShowLayers
	payload.InitialShowGroups = opts.InitialShowGroups
	payload.InitialHideLayers = opts.InitialHideLayers
	payload.InitialHideGroups = opts.InitialHideGroups
}

func (o *Orchestrator) dispatchError(err error, opts Options) {
	o.log.Errorw("viewer bootstrap failed", "resource", opts.ResourceID, "error", err)
	o.dispatcher.Dispatch(InitErrorEvent{
		Error:   ErrorRecord{Message: err.Error(), Stack: []string{}},
		Options: opts,
	})
}

func isResourceNotFound(err error) bool {
	return errors.Is(err, domain.ErrResourceNotFound)
}

func firstOrDefaultTask(initialTask string) string {
	if initialTask == "" {
		return DefaultTaskPaneURL
	}
	return initialTask
}

// ensureParameters stamps the map name, session and locale onto a task
// pane URL unless the URL already carries them. Component URIs address
// built-in panes and pass through untouched.
func ensureParameters(rawURL, mapName, session, locale string) string {
	if rawURL == "" || strings.HasPrefix(rawURL, "component://") {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	have := make(map[string]bool, len(q))
	for k := range q {
		have[strings.ToUpper(k)] = true
	}
	if !have["MAPNAME"] && mapName != "" {
		q.Set("MAPNAME", mapName)
	}
	if !have["SESSION"] && session != "" {
		q.Set("SESSION", session)
	}
	if !have["LOCALE"] && locale != "" {
		q.Set("LOCALE", locale)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
