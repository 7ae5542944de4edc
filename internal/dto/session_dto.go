package dto

import (
	"ai-oneshot-console/pkg/ask"
	"ai-oneshot-console/pkg/inspection"
	"ai-oneshot-console/pkg/supporting"
)

type AskRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}

// UpdateConfigurationRequest carries only the fields the user touched.
type UpdateConfigurationRequest struct {
	Approach            *string  `json:"approach,omitempty" validate:"omitempty,oneof=rr rrrr rrr rrrt"`
	Deployment          *string  `json:"deployment,omitempty" validate:"omitempty,oneof=gpt-35-turbo gpt-4"`
	Index               *string  `json:"index,omitempty" validate:"omitempty,oneof=ifrs jgaap"`
	SearchOption        *string  `json:"search_option,omitempty"`
	RetrieveCount       *int     `json:"retrieve_count,omitempty" validate:"omitempty,min=1,max=50"`
	Temperature         *float64 `json:"temperature,omitempty" validate:"omitempty,min=0,max=1"`
	UseSemanticCaptions *bool    `json:"use_semantic_captions,omitempty"`
}

type ToggleTabRequest struct {
	Tab string `json:"tab" validate:"required,oneof=monitoring thoughtProcess supportingContent citation"`
}

type ShowCitationRequest struct {
	Citation string `json:"citation" validate:"required"`
}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type TabView struct {
	Tab      inspection.Tab `json:"tab"`
	Label    string         `json:"label"`
	Disabled bool           `json:"disabled"`
}

// SessionView is everything the rendering layer needs to draw a session.
type SessionView struct {
	Id                       string            `json:"id"`
	Version                  uint64            `json:"version"`
	Configuration            ask.Configuration `json:"configuration"`
	SemanticCaptionsEditable bool              `json:"semantic_captions_editable"`
	LastQuestion             string            `json:"last_question"`
	IsLoading                bool              `json:"is_loading"`
	Error                    string            `json:"error,omitempty"`
	ShowExamples             bool              `json:"show_examples"`
	ShowAnswer               bool              `json:"show_answer"`
	Answer                   *ask.Response     `json:"answer,omitempty"`
	SupportingContent        []supporting.Item `json:"supporting_content,omitempty"`
	ActiveTab                inspection.Tab    `json:"active_tab,omitempty"`
	ActiveCitation           string            `json:"active_citation,omitempty"`
	CitationPath             string            `json:"citation_path,omitempty"`
	ShowAnalysisPanel        bool              `json:"show_analysis_panel"`
	Tabs                     []TabView         `json:"tabs,omitempty"`
}

type OptionsResponse struct {
	ask.Catalog
}
