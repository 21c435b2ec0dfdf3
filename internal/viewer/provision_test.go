package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/i18n"
	"github.com/mapfront/mapfront-viewer/internal/layout"
	"github.com/mapfront/mapfront-viewer/internal/projection"
)

func testProvisioner(api *fakeLayoutAPI) *Provisioner {
	log := zap.NewNop().Sugar()
	resolver := projection.NewResolver(log, "http://registry.invalid", projection.NewTable())
	return NewProvisioner(log, api, resolver, i18n.NewBundles())
}

type capturingRegistrar struct {
	mu   sync.Mutex
	defs []projection.Definition
}

func (c *capturingRegistrar) RegisterProjections(defs []projection.Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs = append(c.defs, defs...)
}

func (c *capturingRegistrar) codes() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]bool, len(c.defs))
	for _, d := range c.defs {
		out[d.Code] = true
	}
	return out
}

func TestProvisionFreshSessionCreates(t *testing.T) {
	api := &fakeLayoutAPI{
		runtimeMaps: map[string]*domain.RuntimeMap{
			"Sheboygan": testRuntimeMap("Sheboygan", "Library://Samples/Sheboygan.MapDefinition", "4326"),
			"Redding":   testRuntimeMap("Redding", "Library://Samples/Redding.MapDefinition", "3857"),
		},
	}
	p := testProvisioner(api)

	refs := []layout.MapReference{
		{Name: "Sheboygan", MapDefinition: "Library://Samples/Sheboygan.MapDefinition"},
		{Name: "Redding", MapDefinition: "Library://Samples/Redding.MapDefinition"},
	}
	res, err := p.Provision(context.Background(), refs, "sess-1", false, "en", nil, nil)
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, []string{"Sheboygan", "Redding"}, res.Order)
	assert.Equal(t, "sess-1", res.Maps["Sheboygan"].SessionID)
	assert.Empty(t, api.describeCalls)
	assert.ElementsMatch(t, []string{"Sheboygan", "Redding"}, api.createCalls)
}

func TestProvisionReusedSessionDescribes(t *testing.T) {
	api := &fakeLayoutAPI{
		runtimeMaps: map[string]*domain.RuntimeMap{
			"Sheboygan": testRuntimeMap("Sheboygan", "Library://Samples/Sheboygan.MapDefinition", "4326"),
		},
	}
	p := testProvisioner(api)

	refs := []layout.MapReference{{Name: "Sheboygan", MapDefinition: "Library://Samples/Sheboygan.MapDefinition"}}
	res, err := p.Provision(context.Background(), refs, "sess-1", true, "en", nil, nil)
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, []string{"Sheboygan"}, api.describeCalls)
	assert.Empty(t, api.createCalls)
	assert.Equal(t, "Sheboygan", res.Maps["Sheboygan"].Name)
}

func TestProvisionReusedSessionFallsBackToCreate(t *testing.T) {
	api := &fakeLayoutAPI{
		runtimeMaps: map[string]*domain.RuntimeMap{
			"Sheboygan": testRuntimeMap("Sheboygan", "Library://Samples/Sheboygan.MapDefinition", "4326"),
		},
		describeErr: fmt.Errorf("describing: %w", domain.ErrResourceNotFound),
	}
	p := testProvisioner(api)

	refs := []layout.MapReference{{Name: "Sheboygan", MapDefinition: "Library://Samples/Sheboygan.MapDefinition"}}
	_, err := p.Provision(context.Background(), refs, "sess-1", true, "en", nil, nil)
	if !assert.NoError(t, err) {
		return
	}

	assert.Equal(t, []string{"Sheboygan"}, api.describeCalls)
	assert.Equal(t, []string{"Sheboygan"}, api.createCalls)
}

func TestProvisionReusedSessionOtherDescribeErrorAborts(t *testing.T) {
	sentinel := errors.New("network down")
	api := &fakeLayoutAPI{describeErr: sentinel}
	p := testProvisioner(api)

	refs := []layout.MapReference{{Name: "Sheboygan", MapDefinition: "Library://Samples/Sheboygan.MapDefinition"}}
	_, err := p.Provision(context.Background(), refs, "sess-1", true, "en", nil, nil)

	assert.ErrorIs(t, err, sentinel)
	assert.Empty(t, api.createCalls)
}

func TestProvisionUnresolvableEpsgFails(t *testing.T) {
	api := &fakeLayoutAPI{
		runtimeMaps: map[string]*domain.RuntimeMap{
			"Arbitrary": testRuntimeMap("Arbitrary", "Library://Samples/Arbitrary.MapDefinition", "0"),
		},
	}
	p := testProvisioner(api)

	refs := []layout.MapReference{{Name: "Arbitrary", MapDefinition: "Library://Samples/Arbitrary.MapDefinition"}}
	_, err := p.Provision(context.Background(), refs, "sess-1", false, "en", nil, nil)

	var verr *domain.ViewerError
	if assert.ErrorAs(t, err, &verr) {
		assert.Contains(t, verr.Message, "Library://Samples/Arbitrary.MapDefinition")
	}
}

func TestProvisionConnectsSurfaceWithExtraProjections(t *testing.T) {
	api := &fakeLayoutAPI{
		runtimeMaps: map[string]*domain.RuntimeMap{
			"Sheboygan": testRuntimeMap("Sheboygan", "Library://Samples/Sheboygan.MapDefinition", "4326"),
		},
	}
	p := testProvisioner(api)
	surface := &capturingRegistrar{}

	refs := []layout.MapReference{{Name: "Sheboygan", MapDefinition: "Library://Samples/Sheboygan.MapDefinition"}}
	_, err := p.Provision(context.Background(), refs, "sess-1", false, "en", []string{"3857"}, surface)
	if !assert.NoError(t, err) {
		return
	}

	codes := surface.codes()
	assert.True(t, codes["4326"])
	assert.True(t, codes["3857"])
}
