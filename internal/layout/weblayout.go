package layout

import (
	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/i18n"
	"github.com/mapfront/mapfront-viewer/internal/registry"
)

// Semantic sprite classes for legacy stock icons.
const (
	SpriteInvokeURL    = "sprite-icon-invoke-url"
	SpriteInvokeScript = "sprite-icon-invoke-script"
)

// Converter normalizes both layout schema families into the unified
// toolbar/flyout item model.
type Converter struct {
	log     *zap.SugaredLogger
	bundles *i18n.Bundles
}

func NewConverter(log *zap.SugaredLogger, bundles *i18n.Bundles) *Converter {
	return &Converter{log: log, bundles: bundles}
}

// translateImageURL maps the two known stock icon URLs to semantic sprite
// classes. Anything else passes through as a plain icon URL. A broader
// mapping is a configuration concern, not something to generalize here.
func translateImageURL(imageURL string) (spriteClass string, ok bool) {
	switch imageURL {
	case "../stdicons/icon_invokeurl.gif":
		return SpriteInvokeURL, true
	case "../stdicons/icon_invokescript.gif":
		return SpriteInvokeScript, true
	}
	return "", false
}

// normalizeBasicAction renames the three legacy action aliases to their
// modern command names; all other actions keep their token.
func normalizeBasicAction(action string) string {
	switch action {
	case "ZoomRectangle":
		return registry.CmdZoom
	case "FitToWindow":
		return registry.CmdZoomExtents
	case "Refresh":
		return registry.CmdRefreshMap
	}
	return action
}

// customCommandName maps the closed set of known legacy custom command
// types to default command names. The command's own declared name is the
// fallback arm for anything else.
func customCommandName(cmd domain.CommandDef) string {
	switch cmd.Type {
	case domain.CommandTypeViewOptions:
		return registry.CmdViewerOptions
	case domain.CommandTypeMeasure:
		return registry.CmdMeasure
	case domain.CommandTypeHelp:
		return registry.CmdHelp
	case domain.CommandTypeBuffer:
		return registry.CmdBuffer
	case domain.CommandTypeSelectWithin:
		return registry.CmdSelectWithin
	case domain.CommandTypePrintablePage:
		return registry.CmdQuickPlot
	}
	return cmd.Name
}

// ConvertWebLayoutItems converts a legacy toolbar/menu item list. Unknown
// command references become error placeholder items; per-item failures
// never abort the conversion.
func (c *Converter) ConvertWebLayoutItems(items []domain.UIItem, cmdsByKey map[string]domain.CommandDef, locale string, noToolbarLabels bool) []domain.ItemSpec {
	converted := make([]domain.ItemSpec, 0, len(items))
	for _, item := range items {
		switch item.Function {
		case domain.UIItemCommand:
			cmdDef, ok := cmdsByKey[item.Command]
			if !ok {
				c.log.Warnw("invalid command reference", "command", item.Command)
				converted = append(converted, domain.ItemSpec{
					Kind:  domain.ItemUnknown,
					Error: c.bundles.Tr("UNKNOWN_COMMAND_REFERENCE", locale, i18n.Args{"command": item.Command}),
				})
				continue
			}
			if cmdDef.TargetViewer == "Dwf" {
				continue
			}
			converted = append(converted, c.convertCommandItem(cmdDef, noToolbarLabels))
		case domain.UIItemSeparator:
			converted = append(converted, domain.ItemSpec{Kind: domain.ItemSeparator})
		case domain.UIItemFlyout:
			converted = append(converted, domain.ItemSpec{
				Kind:     domain.ItemFlyout,
				Label:    item.Label,
				Tooltip:  item.Tooltip,
				Children: c.ConvertWebLayoutItems(item.SubItem, cmdsByKey, locale, false),
			})
		}
	}
	return converted
}

func (c *Converter) convertCommandItem(cmdDef domain.CommandDef, noToolbarLabels bool) domain.ItemSpec {
	spec := domain.ItemSpec{
		Kind:    domain.ItemCommand,
		Tooltip: cmdDef.Tooltip,
	}
	if !noToolbarLabels {
		spec.Label = cmdDef.Label
	}
	if cmdDef.ImageURL != "" {
		if sprite, ok := translateImageURL(cmdDef.ImageURL); ok {
			spec.SpriteClass = sprite
		} else {
			spec.Icon = cmdDef.ImageURL
		}
	}
	if cmdDef.IsTargeted() {
		spec.Parameters = map[string]string{
			"Target":      cmdDef.Target,
			"TargetFrame": cmdDef.TargetFrame,
		}
	}
	if cmdDef.IsBasic() {
		spec.Command = normalizeBasicAction(cmdDef.Action)
	} else {
		spec.Command = customCommandName(cmdDef)
	}
	return spec
}
