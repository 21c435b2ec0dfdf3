package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterLastWriteWins(t *testing.T) {
	r := NewCommands()
	r.RegisterInvokeURL("Report", InvokeURLCommand{URL: "old.php", Title: "Old"})
	r.RegisterInvokeURL("Report", InvokeURLCommand{URL: "new.php", Title: "New"})

	cmd := r.Lookup("Report")
	if assert.NotNil(t, cmd) {
		assert.Equal(t, "new.php", cmd.URL)
		assert.Equal(t, "New", cmd.Title)
	}
}

func TestRegisterInvokeURLSelectionPredicate(t *testing.T) {
	r := NewCommands()
	r.RegisterInvokeURL("NeedsSelection", InvokeURLCommand{URL: "x.php", DisableIfSelectionEmpty: true})
	r.RegisterInvokeURL("AlwaysOn", InvokeURLCommand{URL: "y.php"})

	needs := r.Lookup("NeedsSelection")
	assert.False(t, needs.Enabled(State{}))
	assert.True(t, needs.Enabled(State{HasSelection: true}))
	assert.True(t, r.Lookup("AlwaysOn").Enabled(State{}))

	// Default icon applies only when none was given.
	assert.Equal(t, "invoke-url.png", needs.Icon)
}

func TestRegisterSearch(t *testing.T) {
	r := NewCommands()
	r.RegisterSearch("FindParcel", SearchCommand{
		Layer:      "Parcels",
		Prompt:     "Enter owner name",
		Filter:     "RNAME LIKE '%$USER_VARIABLE%'",
		MatchLimit: 100,
	})

	cmd := r.Lookup("FindParcel")
	if assert.NotNil(t, cmd) {
		assert.Equal(t, InvokeSearch, cmd.Kind)
		if assert.NotNil(t, cmd.Search) {
			assert.Equal(t, "Parcels", cmd.Search.Layer)
			assert.Equal(t, 100, cmd.Search.MatchLimit)
		}
	}
	assert.Nil(t, r.Lookup("Missing"))
}

func TestViewHistoryConditions(t *testing.T) {
	assert.False(t, HasPreviousView(State{ViewHistoryIndex: 0, ViewHistoryLen: 3}))
	assert.True(t, HasPreviousView(State{ViewHistoryIndex: 1, ViewHistoryLen: 3}))
	assert.True(t, HasNextView(State{ViewHistoryIndex: 1, ViewHistoryLen: 3}))
	assert.False(t, HasNextView(State{ViewHistoryIndex: 2, ViewHistoryLen: 3}))
}
