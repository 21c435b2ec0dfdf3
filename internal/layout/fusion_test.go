package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mapfront/mapfront-viewer/internal/domain"
)

func TestConvertCommandTarget(t *testing.T) {
	assert.Equal(t, "NewWindow", ConvertCommandTarget(""))
	assert.Equal(t, "NewWindow", ConvertCommandTarget("SearchWindow"))
	assert.Equal(t, "NewWindow", ConvertCommandTarget("InvokeUrlWindow"))
	assert.Equal(t, "TaskPane", ConvertCommandTarget("TaskPane"))
	assert.Equal(t, "SpecifiedFrame", ConvertCommandTarget("someFrame"))
}

func TestConvertFlexItemsSkipsNonUIWidgets(t *testing.T) {
	c := testConverter()
	items := []domain.ContainerItem{
		{Function: domain.ContainerItemWidget, Widget: "Pan"},
		{Function: domain.ContainerItemWidget, Widget: "Invisible"},
		{Function: domain.ContainerItemWidget, Widget: "Missing"},
		{Function: domain.ContainerItemSeparator},
	}
	widgets := map[string]domain.Widget{
		"Pan":       {WidgetType: domain.UIWidgetTag, Name: "Pan", Label: "Pan"},
		"Invisible": {Name: "Invisible"},
	}

	converted := c.ConvertFlexItems(items, widgets, "en", false)
	if assert.Len(t, converted, 2) {
		assert.Equal(t, "Pan", converted[0].Command)
		assert.Equal(t, domain.ItemSeparator, converted[1].Kind)
	}
}

func TestConvertFlexItemsNestedFlyout(t *testing.T) {
	c := testConverter()
	items := []domain.ContainerItem{
		{
			Function: domain.ContainerItemFlyout,
			Label:    "Tools",
			Item: []domain.ContainerItem{
				{Function: domain.ContainerItemWidget, Widget: "Measure"},
			},
		},
	}
	widgets := map[string]domain.Widget{
		"Measure": {WidgetType: domain.UIWidgetTag, Name: "Measure", Label: "Measure"},
	}

	converted := c.ConvertFlexItems(items, widgets, "en", true)
	if assert.Len(t, converted, 1) {
		assert.Equal(t, domain.ItemFlyout, converted[0].Kind)
		if assert.Len(t, converted[0].Children, 1) {
			// Flyout children keep labels even when the toolbar hides them.
			assert.Equal(t, "Measure", converted[0].Children[0].Label)
		}
	}
}
