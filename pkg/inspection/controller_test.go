package inspection

import (
	"encoding/json"
	"testing"

	"ai-oneshot-console/pkg/ask"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleTab(t *testing.T) {
	var c Controller
	assert.Equal(t, TabNone, c.ActiveTab())

	c.ToggleTab(TabMonitoring)
	assert.Equal(t, TabMonitoring, c.ActiveTab())

	c.ToggleTab(TabMonitoring)
	assert.Equal(t, TabNone, c.ActiveTab())

	c.ToggleTab(TabMonitoring)
	c.ToggleTab(TabThoughtProcess)
	assert.Equal(t, TabThoughtProcess, c.ActiveTab())
}

func TestShowCitationTogglesClosed(t *testing.T) {
	var c Controller

	c.ShowCitation("a.pdf")
	assert.Equal(t, "a.pdf", c.ActiveCitation())
	assert.Equal(t, TabCitation, c.ActiveTab())

	c.ShowCitation("a.pdf")
	assert.Equal(t, "", c.ActiveCitation())
	assert.Equal(t, TabNone, c.ActiveTab())
}

func TestShowCitationSwitches(t *testing.T) {
	var c Controller

	c.ShowCitation("a.pdf")
	c.ShowCitation("b.pdf")
	assert.Equal(t, "b.pdf", c.ActiveCitation())
	assert.Equal(t, TabCitation, c.ActiveTab())
}

func TestShowCitationTakesPriorityOverOpenTab(t *testing.T) {
	var c Controller

	c.ShowCitation("a.pdf")
	c.ToggleTab(TabSupportingContent)
	require.Equal(t, TabSupportingContent, c.ActiveTab())

	// Same citation, but its pane is not open: it is shown again, not closed.
	c.ShowCitation("a.pdf")
	assert.Equal(t, "a.pdf", c.ActiveCitation())
	assert.Equal(t, TabCitation, c.ActiveTab())
}

func TestReset(t *testing.T) {
	var c Controller
	c.ShowCitation("a.pdf")

	c.Reset()
	assert.Equal(t, TabNone, c.ActiveTab())
	assert.Equal(t, "", c.ActiveCitation())
}

func TestParseTab(t *testing.T) {
	for _, tab := range Tabs {
		got, err := ParseTab(string(tab))
		require.NoError(t, err)
		assert.Equal(t, tab, got)
	}

	_, err := ParseTab("")
	assert.Error(t, err)
	_, err = ParseTab("Monitoring")
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	empty := &ask.Response{Answer: "x"}
	full := &ask.Response{
		Answer:     "x",
		Monitoring: &ask.Monitoring{},
		Thoughts:   []ask.LabeledValue{{Label: "step"}},
		DataPoints: []json.RawMessage{json.RawMessage(`{"id":"a"}`)},
	}

	tests := []struct {
		tab       Tab
		resp      *ask.Response
		wantEmpty bool
	}{
		{TabMonitoring, empty, true},
		{TabThoughtProcess, empty, true},
		{TabSupportingContent, empty, true},
		{TabCitation, empty, false},
		{TabMonitoring, full, false},
		{TabThoughtProcess, full, false},
		{TabSupportingContent, full, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.wantEmpty, Disabled(tt.tab, tt.resp), tt.tab)
	}

	for _, tab := range Tabs {
		assert.True(t, Disabled(tab, nil), tab)
	}
}

func TestDisabledTabStillOpens(t *testing.T) {
	var c Controller
	resp := &ask.Response{Answer: "x"}
	require.True(t, Disabled(TabMonitoring, resp))

	c.ToggleTab(TabMonitoring)
	assert.Equal(t, TabMonitoring, c.ActiveTab())
}
