package projection

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ResolutionError is raised when an EPSG code cannot be resolved against
// the external registry. It carries the originating map definition so the
// failure can be reported against the right map.
type ResolutionError struct {
	MapDefinition string
	EPSG          string
	Err           error
}

func (e *ResolutionError) Error() string {
	if e.MapDefinition != "" {
		return fmt.Sprintf("resolving projection EPSG:%s for %s: %v", e.EPSG, e.MapDefinition, e.Err)
	}
	return fmt.Sprintf("resolving projection EPSG:%s: %v", e.EPSG, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// SurfaceRegistrar is the one-way handoff of resolved projections to the
// map surface.
type SurfaceRegistrar interface {
	RegisterProjections(defs []Definition)
}

// Resolver resolves EPSG codes against an external projection registry
// (an epsg.io style JSON endpoint), memoizing results in the projection
// table. Concurrent requests for the same code share one lookup.
type Resolver struct {
	log      *zap.SugaredLogger
	endpoint string
	table    *Table
	http     *http.Client
	group    singleflight.Group
}

func NewResolver(log *zap.SugaredLogger, endpoint string, table *Table) *Resolver {
	return &Resolver{
		log:      log,
		endpoint: strings.TrimRight(endpoint, "/"),
		table:    table,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *Resolver) Table() *Table {
	return r.table
}

// Resolve resolves one EPSG code and registers the definition into the
// table, so repeated requests for the same code are no-ops. Built-in codes
// bypass the registry.
func (r *Resolver) Resolve(ctx context.Context, epsg, locale, mapDefinition string) (Definition, error) {
	code := "EPSG:" + epsg
	if def, ok := r.table.Get(code); ok {
		return def, nil
	}
	res, err, _ := r.group.Do(code, func() (interface{}, error) {
		def, err := r.fetch(ctx, epsg)
		if err != nil {
			return Definition{}, err
		}
		r.table.Register(def)
		r.log.Infow("registered projection", "code", def.Code)
		return def, nil
	})
	if err != nil {
		return Definition{}, &ResolutionError{MapDefinition: mapDefinition, EPSG: epsg, Err: err}
	}
	return res.(Definition), nil
}

func (r *Resolver) fetch(ctx context.Context, epsg string) (Definition, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", epsg)
	u := r.endpoint + "/?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Definition{}, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return Definition{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Definition{}, fmt.Errorf("projection registry status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var doc struct {
		NumberResult int `json:"number_result"`
		Results      []struct {
			Code  string `json:"code"`
			Name  string `json:"name"`
			Proj4 string `json:"proj4"`
			Unit  string `json:"unit"`
		} `json:"results"`
	}
	if err := jsoniter.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Definition{}, fmt.Errorf("decoding projection registry response: %w", err)
	}
	for _, result := range doc.Results {
		if result.Proj4 != "" {
			return Definition{
				Code:         "EPSG:" + result.Code,
				Name:         result.Name,
				Proj4:        result.Proj4,
				IsGeographic: result.Unit == "degree" || result.Unit == "degrees",
			}, nil
		}
	}
	return Definition{}, fmt.Errorf("no matching definition for EPSG:%s", epsg)
}

// ConnectSurface hands the projection table over to the map surface. The
// surface does not observe late registrations, so this must run after all
// custom projections for the session have been resolved.
func (r *Resolver) ConnectSurface(surface SurfaceRegistrar) {
	surface.RegisterProjections(r.table.Definitions())
	r.log.Debugw("connected projection table to map surface")
}
