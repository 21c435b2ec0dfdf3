package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	jsoniter "github.com/json-iterator/go"
	"github.com/mapfront/mapfront-viewer/internal/domain"
	"go.uber.org/zap"
)

// Fault message tokens returned by the map agent.
const (
	faultResourceNotFound = "MgResourceNotFoundException"
	faultSessionExpired   = "MgSessionExpiredException"
)

// agentError is the JSON error document of the map agent.
type agentError struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Client talks to the map server's HTTP agent. Layout resources and session
// timeouts are cached with a TTL; runtime map state is never cached here,
// the provisioner owns those copies.
type Client struct {
	log       *zap.SugaredLogger
	agent     string
	http      *http.Client
	resources *ttlcache.Cache[string, []byte]
	timeouts  *ttlcache.Cache[string, int]
}

func NewClient(log *zap.SugaredLogger, agentURL string) *Client {
	return &Client{
		log:   log,
		agent: strings.TrimRight(agentURL, "/"),
		http:  &http.Client{Timeout: 30 * time.Second},
		resources: ttlcache.New(
			ttlcache.WithTTL[string, []byte](5 * time.Minute),
		),
		timeouts: ttlcache.New(
			ttlcache.WithTTL[string, int](time.Minute),
		),
	}
}

// AgentURL returns the base URL of the map agent, as used by the map
// surface for image requests.
func (c *Client) AgentURL() string {
	return c.agent
}

func (c *Client) do(ctx context.Context, params url.Values, out interface{}) error {
	params.Set("VERSION", "3.0.0")
	params.Set("FORMAT", "application/json")
	params.Set("CLIENTAGENT", "mapfront-viewer")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.agent, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("map agent request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("map agent response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return c.decodeFault(resp.StatusCode, body)
	}
	if out != nil {
		if err := jsoniter.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding map agent response: %w", err)
		}
	}
	return nil
}

// decodeFault maps known agent fault tokens to domain sentinels so callers
// can match them with errors.Is.
func (c *Client) decodeFault(status int, body []byte) error {
	var fault agentError
	if err := jsoniter.Unmarshal(body, &fault); err == nil && fault.Message != "" {
		switch {
		case strings.Contains(fault.Message, faultResourceNotFound):
			return fmt.Errorf("%s: %w", fault.Detail, domain.ErrResourceNotFound)
		case strings.Contains(fault.Message, faultSessionExpired):
			return fmt.Errorf("%s: %w", fault.Detail, domain.ErrSessionExpired)
		}
		return fmt.Errorf("map agent fault (%d): %s", status, fault.Message)
	}
	return fmt.Errorf("map agent fault (%d): %s", status, strings.TrimSpace(string(body)))
}

// CreateSession requests a new server session for the given credentials.
func (c *Client) CreateSession(ctx context.Context, username, password string) (string, error) {
	params := url.Values{}
	params.Set("OPERATION", "CREATESESSION")
	params.Set("USERNAME", username)
	params.Set("PASSWORD", password)
	var res struct {
		Session string `json:"Session"`
	}
	if err := c.do(ctx, params, &res); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return res.Session, nil
}

// GetServerSessionTimeout returns the server declared session timeout in
// seconds. Values are cached briefly so the keep-alive tick does not flood
// the server when multiple controllers share a session.
func (c *Client) GetServerSessionTimeout(ctx context.Context, session string) (int, error) {
	if item := c.timeouts.Get(session); item != nil {
		return item.Value(), nil
	}
	params := url.Values{}
	params.Set("OPERATION", "GETSESSIONTIMEOUT")
	params.Set("SESSION", session)
	var res struct {
		Timeout int `json:"Timeout"`
	}
	if err := c.do(ctx, params, &res); err != nil {
		return 0, fmt.Errorf("getting session timeout: %w", err)
	}
	c.timeouts.Set(session, res.Timeout, ttlcache.DefaultTTL)
	return res.Timeout, nil
}

func (c *Client) getResource(ctx context.Context, resourceID, session string, out interface{}) error {
	key := session + "|" + resourceID
	if item := c.resources.Get(key); item != nil {
		return jsoniter.Unmarshal(item.Value(), out)
	}
	params := url.Values{}
	params.Set("OPERATION", "GETRESOURCECONTENT")
	params.Set("RESOURCEID", resourceID)
	params.Set("SESSION", session)
	var raw jsoniter.RawMessage
	if err := c.do(ctx, params, &raw); err != nil {
		return fmt.Errorf("fetching resource %s: %w", resourceID, err)
	}
	c.resources.Set(key, raw, ttlcache.DefaultTTL)
	return jsoniter.Unmarshal(raw, out)
}

// GetWebLayout fetches and decodes a legacy web layout resource.
func (c *Client) GetWebLayout(ctx context.Context, resourceID, session string) (*domain.WebLayout, error) {
	var wl domain.WebLayout
	if err := c.getResource(ctx, resourceID, session, &wl); err != nil {
		return nil, err
	}
	return &wl, nil
}

// GetApplicationDefinition fetches and decodes a flexible layout resource.
func (c *Client) GetApplicationDefinition(ctx context.Context, resourceID, session string) (*domain.ApplicationDefinition, error) {
	var appDef domain.ApplicationDefinition
	if err := c.getResource(ctx, resourceID, session, &appDef); err != nil {
		return nil, err
	}
	return &appDef, nil
}

// CreateRuntimeMap creates a new runtime map from a map definition under
// the given session.
func (c *Client) CreateRuntimeMap(ctx context.Context, opts CreateRuntimeMapOptions) (*domain.RuntimeMap, error) {
	params := url.Values{}
	params.Set("OPERATION", "CREATERUNTIMEMAP")
	params.Set("MAPDEFINITION", opts.MapDefinition)
	params.Set("REQUESTEDFEATURES", strconv.Itoa(opts.RequestedFeatures))
	params.Set("SESSION", opts.Session)
	params.Set("TARGETMAPNAME", opts.TargetMapName)
	var m domain.RuntimeMap
	if err := c.do(ctx, params, &m); err != nil {
		return nil, fmt.Errorf("creating runtime map %s: %w", opts.TargetMapName, err)
	}
	return &m, nil
}

// DescribeRuntimeMap recovers the state of an existing runtime map by name.
// A missing map surfaces as domain.ErrResourceNotFound in the error chain.
func (c *Client) DescribeRuntimeMap(ctx context.Context, opts DescribeRuntimeMapOptions) (*domain.RuntimeMap, error) {
	params := url.Values{}
	params.Set("OPERATION", "DESCRIBERUNTIMEMAP")
	params.Set("MAPNAME", opts.MapName)
	params.Set("REQUESTEDFEATURES", strconv.Itoa(opts.RequestedFeatures))
	params.Set("SESSION", opts.Session)
	var m domain.RuntimeMap
	if err := c.do(ctx, params, &m); err != nil {
		return nil, fmt.Errorf("describing runtime map %s: %w", opts.MapName, err)
	}
	return &m, nil
}

// QueryMapFeatures runs a selection or tooltip feature query.
func (c *Client) QueryMapFeatures(ctx context.Context, opts QueryMapFeaturesOptions) (*QueryMapFeaturesResponse, error) {
	params := url.Values{}
	params.Set("OPERATION", "QUERYMAPFEATURES")
	params.Set("MAPNAME", opts.MapName)
	params.Set("SESSION", opts.Session)
	params.Set("PERSIST", strconv.Itoa(opts.Persist))
	if opts.Geometry != "" {
		params.Set("GEOMETRY", opts.Geometry)
	}
	if opts.SelectionVariant != "" {
		params.Set("SELECTIONVARIANT", opts.SelectionVariant)
	}
	if opts.SelectionColor != "" {
		params.Set("SELECTIONCOLOR", opts.SelectionColor)
	}
	if opts.SelectionFormat != "" {
		params.Set("SELECTIONFORMAT", opts.SelectionFormat)
	}
	if opts.FeatureFilter != "" {
		params.Set("FEATUREFILTER", opts.FeatureFilter)
	}
	if opts.LayerNames != "" {
		params.Set("LAYERNAMES", opts.LayerNames)
	}
	if opts.MaxFeatures != 0 {
		params.Set("MAXFEATURES", strconv.Itoa(opts.MaxFeatures))
	}
	if opts.RequestData != 0 {
		params.Set("REQUESTDATA", strconv.Itoa(opts.RequestData))
	}
	if opts.LayerAttributeFilter != 0 {
		params.Set("LAYERATTRIBUTEFILTER", strconv.Itoa(opts.LayerAttributeFilter))
	}
	var res QueryMapFeaturesResponse
	if err := c.do(ctx, params, &res); err != nil {
		return nil, fmt.Errorf("querying map features: %w", err)
	}
	return &res, nil
}

// MapImageURL builds the URL of a dynamic map image request. Callers force
// a refresh by stamping Seq with the current time.
func (c *Client) MapImageURL(p MapImageParams) string {
	params := url.Values{}
	params.Set("OPERATION", "GETDYNAMICMAPOVERLAYIMAGE")
	params.Set("VERSION", "2.0.0")
	params.Set("MAPNAME", p.MapName)
	params.Set("SESSION", p.Session)
	params.Set("FORMAT", p.Format)
	params.Set("BEHAVIOR", strconv.Itoa(p.Behavior))
	if p.SelectionColor != "" {
		params.Set("SELECTIONCOLOR", p.SelectionColor)
	}
	if p.Seq != 0 {
		params.Set("SEQ", strconv.FormatInt(p.Seq, 10))
	}
	return c.agent + "?" + params.Encode()
}

// GetLocaleBundle fetches a strings/<locale>.json message bundle relative
// to the viewer root URL. Callers treat failures as non-fatal.
func GetLocaleBundle(ctx context.Context, baseURL, locale string) (map[string]string, error) {
	u := strings.TrimRight(baseURL, "/") + "/strings/" + locale + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching locale bundle %s: %w", locale, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching locale bundle %s: status %d", locale, resp.StatusCode)
	}
	var bundle map[string]string
	if err := jsoniter.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decoding locale bundle %s: %w", locale, err)
	}
	return bundle, nil
}
