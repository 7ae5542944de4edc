// Package inspection governs which analysis pane of an answer is open.
package inspection

import (
	"fmt"

	"ai-oneshot-console/pkg/ask"
)

type Tab string

const (
	TabNone              Tab = ""
	TabMonitoring        Tab = "monitoring"
	TabThoughtProcess    Tab = "thoughtProcess"
	TabSupportingContent Tab = "supportingContent"
	TabCitation          Tab = "citation"
)

// Tabs lists the selectable panes in display order.
var Tabs = []Tab{TabMonitoring, TabThoughtProcess, TabSupportingContent, TabCitation}

func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, nil
		}
	}
	return TabNone, fmt.Errorf("unknown tab %q", s)
}

// Controller is the pane state machine. The zero value is the initial state.
// It is not safe for concurrent use; the owning session serializes access.
type Controller struct {
	activeTab      Tab
	activeCitation string
}

func (c *Controller) ActiveTab() Tab {
	return c.activeTab
}

// ActiveCitation returns the selected citation, or "" when none is selected.
func (c *Controller) ActiveCitation() string {
	return c.activeCitation
}

// ToggleTab opens t, or closes the panel when t is already open.
func (c *Controller) ToggleTab(t Tab) {
	if c.activeTab == t {
		c.activeTab = TabNone
		return
	}
	c.activeTab = t
}

// ShowCitation opens the citation pane on citation, taking priority over any
// other open pane. Showing the already-open citation closes the pane.
func (c *Controller) ShowCitation(citation string) {
	if c.activeCitation == citation && c.activeTab == TabCitation {
		c.activeCitation = ""
		c.activeTab = TabNone
		return
	}
	c.activeCitation = citation
	c.activeTab = TabCitation
}

// Reset returns to the initial state; called at the start of every submission.
func (c *Controller) Reset() {
	c.activeTab = TabNone
	c.activeCitation = ""
}

// Disabled reports whether t has no backing data in resp. Disabling is
// advisory: a disabled tab can still be toggled open.
func Disabled(t Tab, resp *ask.Response) bool {
	if resp == nil {
		return true
	}
	switch t {
	case TabMonitoring:
		return resp.Monitoring == nil
	case TabThoughtProcess:
		return resp.Thoughts == nil
	case TabSupportingContent:
		return len(resp.DataPoints) == 0
	default:
		return false
	}
}
