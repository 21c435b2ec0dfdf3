package layout

import (
	"strings"

	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/i18n"
)

// MapReference names one map-server map a layout wants loaded.
type MapReference struct {
	Name          string
	MapDefinition string
}

// TargetMapName derives the runtime map name from a map definition
// resource path: the basename without extension, or a generated unique
// name if the path cannot be parsed.
func TargetMapName(mapDefinition string) string {
	lastSlash := strings.LastIndex(mapDefinition, "/")
	lastDot := strings.LastIndex(mapDefinition, ".")
	if lastSlash >= 0 && lastDot >= 0 && lastDot > lastSlash {
		return mapDefinition[lastSlash+1 : lastDot]
	}
	return "Map_" + shortID()
}

// MapReferencesFromWebLayout returns the single map reference of a legacy
// layout.
func MapReferencesFromWebLayout(wl *domain.WebLayout) []MapReference {
	resourceID := wl.Map.ResourceID
	return []MapReference{{Name: TargetMapName(resourceID), MapDefinition: resourceID}}
}

// MapReferencesFromAppDef returns the map-server map references of a
// flexible layout, keyed by map group id.
func MapReferencesFromAppDef(appDef *domain.ApplicationDefinition) ([]MapReference, error) {
	var refs []MapReference
	if appDef.MapSet != nil {
		for _, group := range appDef.MapSet.MapGroup {
			for _, m := range group.Map {
				if m.Type == domain.MapTypeMapServer {
					refs = append(refs, MapReference{Name: group.ID, MapDefinition: m.Extension.ResourceID})
				}
			}
		}
	}
	if len(refs) == 0 {
		return nil, domain.ErrNoMapDefinition
	}
	return refs, nil
}

// ExtraProjectionsFromAppDef collects EPSG codes required by widgets that
// are unrelated to any map, currently the coordinate tracker and cursor
// position widgets.
func ExtraProjectionsFromAppDef(appDef *domain.ApplicationDefinition) []string {
	seen := make(map[string]bool)
	var epsgs []string
	add := func(code string) {
		parts := strings.Split(code, ":")
		epsg := parts[len(parts)-1]
		if epsg != "" && !seen[epsg] {
			seen[epsg] = true
			epsgs = append(epsgs, epsg)
		}
	}
	for _, ws := range appDef.WidgetSet {
		for _, w := range ws.Widget {
			switch w.Type {
			case domain.WidgetTypeCoordinateTracker:
				for _, p := range w.Extension.Projection {
					add(p)
				}
			case domain.WidgetTypeCursorPosition:
				if w.Extension.DisplayProjection != "" {
					add(w.Extension.DisplayProjection)
				}
			}
		}
	}
	return epsgs
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}

// convertExternalLayer dispatches one non map-server map entry to an
// external base layer, or returns a warning for unsupported providers.
func (c *Converter) convertExternalLayer(m domain.MapConfiguration, bingKey, locale string, warnings *[]string) *domain.ExternalBaseLayer {
	name := firstOr(m.Extension.Options.Name, "")
	typ := firstOr(m.Extension.Options.Type, "")
	switch m.Type {
	case domain.MapTypeGoogle:
		*warnings = append(*warnings, c.bundles.Tr("INIT_WARNING_UNSUPPORTED_GOOGLE_MAPS", locale))
		return nil
	case domain.MapTypeVirtualEarth:
		var imagerySet string
		switch typ {
		case "Aerial", "a":
			imagerySet = "Aerial"
		case "AerialWithLabels":
			imagerySet = "AerialWithLabels"
		case "Road":
			imagerySet = "Road"
		default:
			*warnings = append(*warnings, c.bundles.Tr("INIT_WARNING_BING_UNKNOWN_LAYER", locale, i18n.Args{"type": typ}))
			return nil
		}
		if bingKey == "" {
			*warnings = append(*warnings, c.bundles.Tr("INIT_WARNING_BING_API_KEY_REQD", locale))
			return nil
		}
		return &domain.ExternalBaseLayer{
			Name: name,
			Kind: domain.ExternalKindBing,
			Options: map[string]string{
				"imagerySet": imagerySet,
				"key":        bingKey,
			},
		}
	case domain.MapTypeOpenStreetMap:
		options := map[string]string{}
		switch typ {
		case "CycleMap":
			options["url"] = "http://{a-c}.tile.opencyclemap.org/cycle/{z}/{x}/{y}.png"
		case "TransportMap":
			options["url"] = "http://tile2.opencyclemap.org/transport/{z}/{x}/{y}.png"
		}
		return &domain.ExternalBaseLayer{Name: name, Kind: domain.ExternalKindOSM, Options: options}
	case domain.MapTypeStamen:
		return &domain.ExternalBaseLayer{
			Name:    name,
			Kind:    domain.ExternalKindStamen,
			Options: map[string]string{"layer": typ},
		}
	case domain.MapTypeXYZ:
		// Fusion app defs carry OpenLayers 2 style ${x} placeholder tokens;
		// the surface expects {x} style tokens.
		urls := make([]string, len(m.Extension.Options.URLs))
		for i, u := range m.Extension.Options.URLs {
			urls[i] = strings.ReplaceAll(u, "${", "{")
		}
		return &domain.ExternalBaseLayer{
			Name:    name,
			Kind:    domain.ExternalKindXYZ,
			Options: map[string]string{"layer": typ},
			URLs:    urls,
		}
	}
	return nil
}

// SetupMaps builds the per-map MapInfo mapping of a flexible layout:
// matches runtime maps back to their map groups, converts external base
// layers (first one visible), and captures initial views. Rendering
// settings of the first declaring map group win.
func (c *Converter) SetupMaps(appDef *domain.ApplicationDefinition, mapsByName map[string]*domain.RuntimeMap, config *domain.ViewerConfig, locale string, warnings *[]string) map[string]domain.MapInfo {
	infos := make(map[string]domain.MapInfo)
	if appDef.MapSet == nil {
		return infos
	}
	for _, group := range appDef.MapSet.MapGroup {
		var mapName string
		var externalBaseLayers []domain.ExternalBaseLayer
		for _, m := range group.Map {
			if m.Type == domain.MapTypeMapServer {
				if config.SelectionColor == "" && m.Extension.SelectionColor != "" {
					config.SelectionColor = m.Extension.SelectionColor
				}
				if config.ImageFormat == "" && m.Extension.ImageFormat != "" {
					config.ImageFormat = m.Extension.ImageFormat
				}
				if config.SelectionImageFormat == "" && m.Extension.SelectionFormat != "" {
					config.SelectionImageFormat = m.Extension.SelectionFormat
				}
				for name, rtm := range mapsByName {
					if rtm.MapDefinition == m.Extension.ResourceID {
						mapName = name
						break
					}
				}
			} else if layer := c.convertExternalLayer(m, appDef.Extension.BingMapKey, locale, warnings); layer != nil {
				externalBaseLayers = append(externalBaseLayers, *layer)
			}
		}
		// first come, first served
		if len(externalBaseLayers) > 0 {
			externalBaseLayers[0].Visible = true
		}
		var initialView *domain.MapView
		if group.InitialView != nil {
			initialView = &domain.MapView{
				X:     group.InitialView.CenterX,
				Y:     group.InitialView.CenterY,
				Scale: group.InitialView.Scale,
			}
		}
		if mapName != "" {
			infos[mapName] = domain.MapInfo{
				MapGroupID:         group.ID,
				Map:                mapsByName[mapName],
				InitialView:        initialView,
				ExternalBaseLayers: externalBaseLayers,
			}
		}
	}
	return infos
}
