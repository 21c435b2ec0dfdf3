package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/client"
	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/i18n"
	"github.com/mapfront/mapfront-viewer/internal/layout"
	"github.com/mapfront/mapfront-viewer/internal/projection"
	"github.com/mapfront/mapfront-viewer/internal/registry"
)

type fakeLayoutAPI struct {
	mu sync.Mutex

	sessions      int
	sessionErr    error
	webLayouts    map[string]*domain.WebLayout
	appDefs       map[string]*domain.ApplicationDefinition
	layoutErr     error
	runtimeMaps   map[string]*domain.RuntimeMap
	describeErr   error
	createErr     error
	describeCalls []string
	createCalls   []string
}

func (a *fakeLayoutAPI) CreateSession(ctx context.Context, username, password string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sessionErr != nil {
		return "", a.sessionErr
	}
	a.sessions++
	return fmt.Sprintf("session-%d", a.sessions), nil
}

func (a *fakeLayoutAPI) GetWebLayout(ctx context.Context, resourceID, session string) (*domain.WebLayout, error) {
	if a.layoutErr != nil {
		return nil, a.layoutErr
	}
	wl, ok := a.webLayouts[resourceID]
	if !ok {
		return nil, fmt.Errorf("fetching resource %s: %w", resourceID, domain.ErrResourceNotFound)
	}
	return wl, nil
}

func (a *fakeLayoutAPI) GetApplicationDefinition(ctx context.Context, resourceID, session string) (*domain.ApplicationDefinition, error) {
	if a.layoutErr != nil {
		return nil, a.layoutErr
	}
	appDef, ok := a.appDefs[resourceID]
	if !ok {
		return nil, fmt.Errorf("fetching resource %s: %w", resourceID, domain.ErrResourceNotFound)
	}
	return appDef, nil
}

func (a *fakeLayoutAPI) CreateRuntimeMap(ctx context.Context, opts client.CreateRuntimeMapOptions) (*domain.RuntimeMap, error) {
	a.mu.Lock()
	a.createCalls = append(a.createCalls, opts.TargetMapName)
	a.mu.Unlock()
	if a.createErr != nil {
		return nil, a.createErr
	}
	rtm, ok := a.runtimeMaps[opts.TargetMapName]
	if !ok {
		return nil, fmt.Errorf("creating runtime map %s: %w", opts.TargetMapName, domain.ErrResourceNotFound)
	}
	out := *rtm
	out.SessionID = opts.Session
	return &out, nil
}

func (a *fakeLayoutAPI) DescribeRuntimeMap(ctx context.Context, opts client.DescribeRuntimeMapOptions) (*domain.RuntimeMap, error) {
	a.mu.Lock()
	a.describeCalls = append(a.describeCalls, opts.MapName)
	a.mu.Unlock()
	if a.describeErr != nil {
		return nil, a.describeErr
	}
	rtm, ok := a.runtimeMaps[opts.MapName]
	if !ok {
		return nil, fmt.Errorf("describing runtime map %s: %w", opts.MapName, domain.ErrResourceNotFound)
	}
	out := *rtm
	out.SessionID = opts.Session
	return &out, nil
}

type fakeSelectionStore struct {
	mu       sync.Mutex
	sets     map[string]json.RawMessage
	cleared  []string
	getErr   error
	clearErr error
}

func (s *fakeSelectionStore) GetSelectionSet(ctx context.Context, session, mapName string) (json.RawMessage, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[session+"/"+mapName], nil
}

func (s *fakeSelectionStore) ClearSessionStore(ctx context.Context, session string) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = append(s.cleared, session)
	return nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) Dispatch(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) byType(eventType string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.EventType() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func testRuntimeMap(name, mapDefinition, epsg string) *domain.RuntimeMap {
	return &domain.RuntimeMap{
		Name:          name,
		MapDefinition: mapDefinition,
		CoordinateSystem: domain.CoordinateSystemType{
			EpsgCode:      epsg,
			MetersPerUnit: 1,
		},
	}
}

type orchestratorEnv struct {
	api        *fakeLayoutAPI
	store      *fakeSelectionStore
	recorder   *eventRecorder
	bundles    *i18n.Bundles
	commands   *registry.Commands
	fetchCalls []string
	fetchErr   error
	bundle     map[string]string
}

func newOrchestrator(env *orchestratorEnv) *Orchestrator {
	log := zap.NewNop().Sugar()
	if env.bundles == nil {
		env.bundles = i18n.NewBundles()
	}
	if env.commands == nil {
		env.commands = registry.NewCommands()
	}
	resolver := projection.NewResolver(log, "http://registry.invalid", projection.NewTable())
	provisioner := NewProvisioner(log, env.api, resolver, env.bundles)
	fetch := func(ctx context.Context, locale string) (map[string]string, error) {
		env.fetchCalls = append(env.fetchCalls, locale)
		if env.fetchErr != nil {
			return nil, env.fetchErr
		}
		if env.bundle != nil {
			return env.bundle, nil
		}
		return map[string]string{}, nil
	}
	return NewOrchestrator(log, env.api, env.bundles, env.commands, provisioner,
		layout.NewConverter(log, env.bundles), env.store, fetch, env.recorder)
}

func simpleWebLayout(mapDefinition string) *domain.WebLayout {
	wl := &domain.WebLayout{Title: "Test Layout"}
	wl.Map.ResourceID = mapDefinition
	wl.ToolBar.Visible = true
	wl.TaskPane.Visible = true
	wl.TaskPane.TaskBar.Visible = true
	wl.StatusBar.Visible = true
	wl.ZoomControl.Visible = true
	wl.InformationPane.Visible = true
	wl.InformationPane.LegendVisible = true
	wl.InformationPane.PropertiesVisible = true
	return wl
}
