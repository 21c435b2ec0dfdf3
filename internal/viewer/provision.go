package viewer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mapfront/mapfront-viewer/internal/client"
	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/i18n"
	"github.com/mapfront/mapfront-viewer/internal/layout"
	"github.com/mapfront/mapfront-viewer/internal/projection"
)

// RuntimeMapAPI is the slice of the mapagent client the provisioner needs.
type RuntimeMapAPI interface {
	CreateRuntimeMap(ctx context.Context, opts client.CreateRuntimeMapOptions) (*domain.RuntimeMap, error)
	DescribeRuntimeMap(ctx context.Context, opts client.DescribeRuntimeMapOptions) (*domain.RuntimeMap, error)
}

// Provisioner turns map definition references into runtime map state and
// resolves the projections those maps require.
type Provisioner struct {
	log      *zap.SugaredLogger
	api      RuntimeMapAPI
	resolver *projection.Resolver
	bundles  *i18n.Bundles
}

func NewProvisioner(log *zap.SugaredLogger, api RuntimeMapAPI, resolver *projection.Resolver, bundles *i18n.Bundles) *Provisioner {
	return &Provisioner{
		log:      log,
		api:      api,
		resolver: resolver,
		bundles:  bundles,
	}
}

// ProvisionResult holds the runtime maps keyed by runtime name, in the
// order their references were given.
type ProvisionResult struct {
	Maps  map[string]*domain.RuntimeMap
	Order []string
}

// Provision obtains a runtime map for every reference. When the session was
// reused it first asks the server to describe an existing runtime map and
// falls back to creating one only when the server reports the runtime state
// is gone. Fresh sessions always create. All maps are processed
// concurrently and the first failure aborts the batch.
//
// After the maps are known, every distinct EPSG code (the maps' own codes
// plus extraEpsgs) is resolved concurrently and the assembled projection
// table is connected to the surface in one ordered handoff.
func (p *Provisioner) Provision(ctx context.Context, refs []layout.MapReference, session string, sessionReused bool, locale string, extraEpsgs []string, surface projection.SurfaceRegistrar) (*ProvisionResult, error) {
	maps := make([]*domain.RuntimeMap, len(refs))

	grp, grpCtx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		grp.Go(func() error {
			rtm, err := p.obtainRuntimeMap(grpCtx, ref, session, sessionReused)
			if err != nil {
				return err
			}
			maps[i] = rtm
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	res := &ProvisionResult{Maps: make(map[string]*domain.RuntimeMap, len(maps))}
	for _, rtm := range maps {
		res.Maps[rtm.Name] = rtm
		res.Order = append(res.Order, rtm.Name)
	}

	if err := p.resolveProjections(ctx, maps, refs, extraEpsgs, locale); err != nil {
		return nil, err
	}
	if surface != nil {
		p.resolver.ConnectSurface(surface)
	}
	return res, nil
}

func (p *Provisioner) obtainRuntimeMap(ctx context.Context, ref layout.MapReference, session string, sessionReused bool) (*domain.RuntimeMap, error) {
	if sessionReused {
		rtm, err := p.api.DescribeRuntimeMap(ctx, client.DescribeRuntimeMapOptions{
			MapName:           ref.Name,
			Session:           session,
			RequestedFeatures: client.DefaultRuntimeMapFeatures,
		})
		if err == nil {
			return rtm, nil
		}
		if !errors.Is(err, domain.ErrResourceNotFound) {
			return nil, fmt.Errorf("describe runtime map %s: %w", ref.Name, err)
		}
		p.log.Infow("Runtime map not found in reused session, creating", "map", ref.Name)
	}
	rtm, err := p.api.CreateRuntimeMap(ctx, client.CreateRuntimeMapOptions{
		MapDefinition:     ref.MapDefinition,
		TargetMapName:     ref.Name,
		Session:           session,
		RequestedFeatures: client.DefaultRuntimeMapFeatures,
	})
	if err != nil {
		return nil, fmt.Errorf("create runtime map %s: %w", ref.MapDefinition, err)
	}
	return rtm, nil
}

func (p *Provisioner) resolveProjections(ctx context.Context, maps []*domain.RuntimeMap, refs []layout.MapReference, extraEpsgs []string, locale string) error {
	epsgByMapDef := make(map[string]string)
	for i, rtm := range maps {
		code := rtm.CoordinateSystem.EpsgCode
		if code == "0" {
			return domain.NewViewerError(p.bundles.Tr("INIT_ERROR_UNSUPPORTED_COORD_SYS", locale, i18n.Args{
				"mapDefinition": refs[i].MapDefinition,
			}))
		}
		if _, seen := epsgByMapDef[code]; !seen {
			epsgByMapDef[code] = refs[i].MapDefinition
		}
	}
	for _, code := range extraEpsgs {
		if _, seen := epsgByMapDef[code]; !seen && code != "" {
			epsgByMapDef[code] = ""
		}
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	for code, mapDef := range epsgByMapDef {
		code, mapDef := code, mapDef
		grp.Go(func() error {
			_, err := p.resolver.Resolve(grpCtx, code, locale, mapDef)
			return err
		})
	}
	return grp.Wait()
}
