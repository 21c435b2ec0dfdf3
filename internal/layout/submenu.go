package layout

import (
	"github.com/gofrs/uuid"

	"github.com/mapfront/mapfront-viewer/internal/domain"
)

func shortID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return "id"
	}
	return id.String()[:8]
}

// PrepareSubMenus flattens nested flyout definitions out of the converted
// toolbars. The task-menu and context-menu slots become flat flyouts
// unconditionally; inline flyouts anywhere else are hoisted into generated
// top-level flyout entries and replaced in place by a reference item, so
// the prepared shape holds flyout references only. Context menu children
// stay inline. The second result reports whether a context-menu slot was
// present at all; its absence is a warning for the caller, not an error.
func PrepareSubMenus(toolbars map[string]domain.Toolbar) (domain.PreparedMenuSet, bool) {
	prepared := domain.PreparedMenuSet{
		Toolbars: make(map[string]domain.Toolbar),
		Flyouts:  make(map[string]domain.Flyout),
	}
	foundContextMenu := false
	for name, tb := range toolbars {
		if name == domain.ToolbarContextMenu {
			foundContextMenu = true
		}
		if name == domain.ToolbarTaskMenu || name == domain.ToolbarContextMenu {
			prepared.Flyouts[name] = domain.Flyout{Children: tb.Items}
			continue
		}
		out := domain.Toolbar{Items: make([]domain.ItemSpec, 0, len(tb.Items))}
		for _, item := range tb.Items {
			if item.Kind == domain.ItemFlyout {
				flyoutID := item.Label + "_" + shortID()
				out.Items = append(out.Items, domain.ItemSpec{
					Kind:        domain.ItemCommand,
					Label:       item.Label,
					Tooltip:     item.Tooltip,
					Icon:        item.Icon,
					SpriteClass: item.SpriteClass,
					FlyoutID:    flyoutID,
				})
				prepared.Flyouts[flyoutID] = domain.Flyout{
					Label:       item.Label,
					Tooltip:     item.Tooltip,
					Icon:        item.Icon,
					SpriteClass: item.SpriteClass,
					Children:    item.Children,
				}
			} else {
				out.Items = append(out.Items, item)
			}
		}
		prepared.Toolbars[name] = out
	}
	return prepared, foundContextMenu
}
