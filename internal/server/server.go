// Package server hosts the HTTP/websocket gateway in front of the viewer
// bootstrap pipeline and the per map session controllers.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/client"
	"github.com/mapfront/mapfront-viewer/internal/i18n"
	"github.com/mapfront/mapfront-viewer/internal/infrastructure/ws"
	"github.com/mapfront/mapfront-viewer/internal/projection"
	"github.com/mapfront/mapfront-viewer/internal/registry"
	"github.com/mapfront/mapfront-viewer/internal/viewer"
)

type Config struct {
	Debug bool

	// AgentURL is the map server HTTP agent endpoint.
	AgentURL string

	// ViewerRoot is the base URL locale bundles are fetched from.
	ViewerRoot string

	// ProjectionRegistryURL is the epsg.io style lookup endpoint.
	ProjectionRegistryURL string
}

type Server struct {
	Config Config
	echo   *echo.Echo
	log    *zap.SugaredLogger

	bundles    *i18n.Bundles
	client     *client.Client
	commands   *registry.Commands
	resolver   *projection.Resolver
	selections viewer.SelectionStore
	saver      SelectionSaver
	vws        *ws.ViewerWS
	busyGauge  *promclient.GaugeVec

	mu      sync.Mutex
	viewers map[string]*viewerInstance
}

type JSONSerializer struct{}

// Serialize converts an interface into a json and writes it to the response.
// You can optionally use the indent parameter to produce pretty JSONs.
func (d JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

// Deserialize reads a JSON from a request body and converts it into an interface.
func (d JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsoniter.NewDecoder(c.Request().Body).Decode(i)
	if ute, ok := err.(*json.UnmarshalTypeError); ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Unmarshal type error: expected=%v, got=%v, field=%v, offset=%v", ute.Type, ute.Value, ute.Field, ute.Offset)).SetInternal(err)
	} else if se, ok := err.(*json.SyntaxError); ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Syntax error: offset=%v, error=%v", se.Offset, se.Error())).SetInternal(err)
	}
	return err
}

// SelectionSaver joins the bootstrap restore interface with the
// controller persistence interface, both served by the redis store.
type SelectionSaver interface {
	SaveSelectionSet(ctx context.Context, session, mapName string, sset json.RawMessage) error
}

func NewServer(log *zap.SugaredLogger, cfg Config, bundles *i18n.Bundles, mgClient *client.Client, selections viewer.SelectionStore, saver SelectionSaver, vws *ws.ViewerWS) *Server {
	e := echo.New()
	e.HideBanner = true

	p := prometheus.NewPrometheus("viewer", nil)
	p.Use(e)

	e.JSONSerializer = &JSONSerializer{}
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		if code == http.StatusInternalServerError {
			log.Error(err)
		}
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())

	busyGauge := promclient.NewGaugeVec(promclient.GaugeOpts{
		Name: "viewer_busy_workers",
		Help: "In-flight worker count per viewer.",
	}, []string{"viewer"})
	if err := promclient.Register(busyGauge); err != nil {
		if are, ok := err.(promclient.AlreadyRegisteredError); ok {
			busyGauge = are.ExistingCollector.(*promclient.GaugeVec)
		}
	}

	s := &Server{
		Config:     cfg,
		log:        log,
		echo:       e,
		bundles:    bundles,
		client:     mgClient,
		commands:   registry.NewCommands(),
		resolver:   projection.NewResolver(log, cfg.ProjectionRegistryURL, projection.NewTable()),
		selections: selections,
		saver:      saver,
		vws:        vws,
		busyGauge:  busyGauge,
		viewers:    make(map[string]*viewerInstance),
	}
	vws.SetMessageHandler(s.handleViewerMessage)
	s.AddRoutes(e)
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, inst := range s.viewers {
		inst.teardown()
	}
	s.viewers = make(map[string]*viewerInstance)
	s.mu.Unlock()
	return s.echo.Shutdown(ctx)
}
