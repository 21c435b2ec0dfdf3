package layout

import (
	"github.com/mapfront/mapfront-viewer/internal/domain"
)

// ConvertCommandTarget normalizes a fusion command target to the viewer's
// closed target set. An empty target means a new window.
func ConvertCommandTarget(fusionTarget string) string {
	if fusionTarget == "" {
		return "NewWindow"
	}
	switch fusionTarget {
	case "SearchWindow", "InvokeUrlWindow":
		return "NewWindow"
	case "TaskPane":
		return "TaskPane"
	}
	return "SpecifiedFrame"
}

// convertWidget turns a UI widget into a command reference item. The
// command name is the widget name; registration happened during the
// widget walk of the bootstrap.
func convertWidget(widget domain.Widget, noToolbarLabels bool) domain.ItemSpec {
	spec := domain.ItemSpec{
		Kind:        domain.ItemCommand,
		Command:     widget.Name,
		Tooltip:     widget.Tooltip,
		Icon:        widget.ImageURL,
		SpriteClass: widget.ImageClass,
	}
	if !noToolbarLabels {
		spec.Label = widget.Label
	}
	return spec
}

// ConvertFlexItems converts one toolbar container of a flexible layout.
// Container items referencing non-UI widgets are silently skipped: fusion
// layouts may legitimately place non-visual widgets in containers.
func (c *Converter) ConvertFlexItems(items []domain.ContainerItem, widgetsByKey map[string]domain.Widget, locale string, noToolbarLabels bool) []domain.ItemSpec {
	converted := make([]domain.ItemSpec, 0, len(items))
	for _, item := range items {
		switch item.Function {
		case domain.ContainerItemWidget:
			widget, ok := widgetsByKey[item.Widget]
			if ok && widget.IsUI() {
				converted = append(converted, convertWidget(widget, noToolbarLabels))
			}
		case domain.ContainerItemSeparator:
			converted = append(converted, domain.ItemSpec{Kind: domain.ItemSeparator})
		case domain.ContainerItemFlyout:
			converted = append(converted, domain.ItemSpec{
				Kind:        domain.ItemFlyout,
				Label:       item.Label,
				Tooltip:     item.Tooltip,
				Icon:        item.ImageURL,
				SpriteClass: item.ImageClass,
				Children:    c.ConvertFlexItems(item.Item, widgetsByKey, locale, false),
			})
		}
	}
	return converted
}
