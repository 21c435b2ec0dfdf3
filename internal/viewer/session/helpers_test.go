package session

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/client"
	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/i18n"
	"github.com/mapfront/mapfront-viewer/internal/projection"
)

type fakeSurface struct {
	mu sync.Mutex

	views          []domain.MapView
	layerURLs      []string
	selectionURLs  []string
	visibility     []VisibilityChanges
	prompts        []string
	promptsCleared int
	tooltips       []string
	tooltipsHidden int

	onSetView func(view domain.MapView)
}

func (s *fakeSurface) RegisterProjections(defs []projection.Definition) {}

func (s *fakeSurface) SetView(view domain.MapView) {
	s.mu.Lock()
	s.views = append(s.views, view)
	cb := s.onSetView
	s.mu.Unlock()
	if cb != nil {
		cb(view)
	}
}

func (s *fakeSurface) UpdateLayersImage(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layerURLs = append(s.layerURLs, url)
}

func (s *fakeSurface) UpdateSelectionImage(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectionURLs = append(s.selectionURLs, url)
}

func (s *fakeSurface) ApplyVisibility(changes VisibilityChanges) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visibility = append(s.visibility, changes)
}

func (s *fakeSurface) SetBaseLayerVisibility(name string, visible bool) {}

func (s *fakeSurface) ShowTooltip(at Coordinate, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tooltips = append(s.tooltips, html)
}

func (s *fakeSurface) HideTooltip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tooltipsHidden++
}

func (s *fakeSurface) SetPrompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, text)
}

func (s *fakeSurface) ClearPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptsCleared++
}

func (s *fakeSurface) visibilityApplied() []VisibilityChanges {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]VisibilityChanges, len(s.visibility))
	copy(out, s.visibility)
	return out
}

type fakeAgent struct {
	mu      sync.Mutex
	queries []client.QueryMapFeaturesOptions

	timeout    int
	timeoutErr error

	queryResponse *client.QueryMapFeaturesResponse
	queryErr      error
	onQuery       func(opts client.QueryMapFeaturesOptions)
}

func (a *fakeAgent) GetServerSessionTimeout(ctx context.Context, session string) (int, error) {
	if a.timeoutErr != nil {
		return 0, a.timeoutErr
	}
	if a.timeout == 0 {
		return 1200, nil
	}
	return a.timeout, nil
}

func (a *fakeAgent) QueryMapFeatures(ctx context.Context, opts client.QueryMapFeaturesOptions) (*client.QueryMapFeaturesResponse, error) {
	a.mu.Lock()
	a.queries = append(a.queries, opts)
	cb := a.onQuery
	a.mu.Unlock()
	if cb != nil {
		cb(opts)
	}
	if a.queryErr != nil {
		return nil, a.queryErr
	}
	if a.queryResponse != nil {
		return a.queryResponse, nil
	}
	return &client.QueryMapFeaturesResponse{}, nil
}

func (a *fakeAgent) MapImageURL(p client.MapImageParams) string {
	c := client.NewClient(zap.NewNop().Sugar(), "http://agent.test/mapagent.fcgi")
	return c.MapImageURL(p)
}

func (a *fakeAgent) recordedQueries() []client.QueryMapFeaturesOptions {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]client.QueryMapFeaturesOptions, len(a.queries))
	copy(out, a.queries)
	return out
}

type fakeSaver struct {
	mu    sync.Mutex
	saved map[string]json.RawMessage
}

func (s *fakeSaver) SaveSelectionSet(ctx context.Context, session, mapName string, sset json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string]json.RawMessage)
	}
	s.saved[session+"/"+mapName] = sset
	return nil
}

func testController(agent *fakeAgent, surface *fakeSurface, saver *fakeSaver, conf Config) *Controller {
	rtm := &domain.RuntimeMap{
		Name:          "Sheboygan",
		SessionID:     "abc123",
		MapDefinition: "Library://Samples/Sheboygan/Maps/Sheboygan.MapDefinition",
	}
	return NewController(zap.NewNop().Sugar(), agent, surface, rtm, domain.ViewerConfig{SelectionColor: "0x0000FFC0"}, "en", i18n.NewBundles(), saver, conf)
}
