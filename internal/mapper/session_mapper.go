package mapper

import (
	"ai-oneshot-console/internal/dto"
	"ai-oneshot-console/pkg/ask"
	"ai-oneshot-console/pkg/inspection"
	"ai-oneshot-console/pkg/session"
	"ai-oneshot-console/pkg/supporting"
)

var tabLabels = map[inspection.Tab]string{
	inspection.TabMonitoring:        "Monitoring",
	inspection.TabThoughtProcess:    "Thought process",
	inspection.TabSupportingContent: "Supporting content",
	inspection.TabCitation:          "Citation",
}

func ToSessionView(state session.SessionState) *dto.SessionView {
	view := &dto.SessionView{
		Id:                       state.ID,
		Version:                  state.Version,
		Configuration:            state.Configuration,
		SemanticCaptionsEditable: state.Configuration.SemanticCaptionsEnabled(),
		LastQuestion:             state.LastQuestion,
		IsLoading:                state.IsLoading,
		ShowExamples:             state.LastQuestion == "",
		Answer:                   state.Answer,
		ActiveTab:                state.ActiveTab,
		ActiveCitation:           state.ActiveCitation,
	}

	if state.Err != nil {
		view.Error = state.Err.Error()
	}
	view.ShowAnswer = !state.IsLoading && state.Answer != nil && state.Err == nil
	view.ShowAnalysisPanel = state.ActiveTab != inspection.TabNone && state.Answer != nil

	if state.ActiveCitation != "" {
		view.CitationPath = ask.CitationFilePath(state.ActiveCitation)
	}

	if state.Answer != nil {
		view.SupportingContent = supporting.ParseAll(state.Answer.DataPoints)
		view.Tabs = ToTabViews(state.Answer)
	}

	return view
}

func ToTabViews(resp *ask.Response) []dto.TabView {
	tabs := make([]dto.TabView, 0, len(inspection.Tabs))
	for _, t := range inspection.Tabs {
		tabs = append(tabs, dto.TabView{
			Tab:      t,
			Label:    tabLabels[t],
			Disabled: inspection.Disabled(t, resp),
		})
	}
	return tabs
}
