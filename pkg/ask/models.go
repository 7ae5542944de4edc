package ask

import (
	"bytes"
	"encoding/json"
)

// Approach identifies the retrieval/generation strategy run by the answering service.
type Approach string

const (
	ApproachRetrieveRead                    Approach = "rr"
	ApproachRetrieveReformulateRetrieveRead Approach = "rrrr"
	ApproachRetrieveReadRead                Approach = "rrr"
	ApproachRetrieveReadRetry               Approach = "rrrt"
)

var Approaches = []Approach{
	ApproachRetrieveRead,
	ApproachRetrieveReformulateRetrieveRead,
	ApproachRetrieveReadRead,
	ApproachRetrieveReadRetry,
}

func (a Approach) Valid() bool {
	for _, v := range Approaches {
		if v == a {
			return true
		}
	}
	return false
}

// Deployment is the generative model profile used to answer.
type Deployment string

const (
	DeploymentGpt35Turbo Deployment = "gpt-35-turbo"
	DeploymentGpt4       Deployment = "gpt-4"
)

var Deployments = []Deployment{DeploymentGpt35Turbo, DeploymentGpt4}

func (d Deployment) Valid() bool {
	for _, v := range Deployments {
		if v == d {
			return true
		}
	}
	return false
}

// Index is the knowledge partition searched by the service.
type Index string

const (
	IndexIFRS  Index = "ifrs"
	IndexJGAAP Index = "jgaap"
)

var Indexes = []Index{IndexIFRS, IndexJGAAP}

func (i Index) Valid() bool {
	for _, v := range Indexes {
		if v == i {
			return true
		}
	}
	return false
}

// SearchOption selects the search mode of the retrieval step.
type SearchOption string

const (
	SearchOptionBM25                 SearchOption = "BM25"
	SearchOptionSemantic             SearchOption = "Semantic Search"
	SearchOptionVectorEmbedding      SearchOption = "Embeddings"
	SearchOptionVectorBM25Hybrid     SearchOption = "VectorBM25"
	SearchOptionVectorSemanticHybrid SearchOption = "VectorSemantic"
)

// SearchOptionOrder is the wire contract with the answering service:
// overrides.search_option carries the position of an option in this list.
// Append only. Reordering breaks every deployed service.
var SearchOptionOrder = [...]SearchOption{
	SearchOptionBM25,
	SearchOptionSemantic,
	SearchOptionVectorEmbedding,
	SearchOptionVectorBM25Hybrid,
	SearchOptionVectorSemanticHybrid,
}

// Ordinal returns the zero-based wire position of o, or -1 if o is unknown.
func (o SearchOption) Ordinal() int {
	for i, v := range SearchOptionOrder {
		if v == o {
			return i
		}
	}
	return -1
}

func (o SearchOption) Valid() bool {
	return o.Ordinal() >= 0
}

// SupportsSemanticCaptions reports whether the captions toggle is enabled for o.
func (o SearchOption) SupportsSemanticCaptions() bool {
	return o == SearchOptionSemantic || o == SearchOptionVectorSemanticHybrid
}

// Overrides are optional per-request tuning parameters. Nil fields are omitted.
type Overrides struct {
	SemanticRanker       *bool    `json:"semantic_ranker,omitempty"`
	SemanticCaptions     *bool    `json:"semantic_captions,omitempty"`
	Top                  *int     `json:"top,omitempty"`
	Temperature          *float64 `json:"temperature,omitempty"`
	PromptTemplate       *string  `json:"prompt_template,omitempty"`
	PromptTemplatePrefix *string  `json:"prompt_template_prefix,omitempty"`
	PromptTemplateSuffix *string  `json:"prompt_template_suffix,omitempty"`
	ExcludeCategory      *string  `json:"exclude_category,omitempty"`
	SearchOption         *int     `json:"search_option,omitempty"`
}

// Request is the body of POST /ask.
type Request struct {
	Question   string     `json:"question"`
	Approach   Approach   `json:"approach"`
	Deployment Deployment `json:"deployment"`
	Index      Index      `json:"index"`
	Overrides  Overrides  `json:"overrides"`
}

// Response is the body returned by POST /ask. It is never mutated after decoding.
type Response struct {
	Approach   Approach          `json:"approach"`
	Answer     string            `json:"answer"`
	Monitoring *Monitoring       `json:"monitoring,omitempty"`
	Thoughts   []LabeledValue    `json:"thoughts"`
	DataPoints []json.RawMessage `json:"data_points"`
	Error      string            `json:"error,omitempty"`
}

type Monitoring struct {
	Time  Breakdown      `json:"time"`
	Cost  Breakdown      `json:"cost"`
	Usage []LabeledValue `json:"usage"`
}

// Breakdown is a total with its contributing items, as computed by the
// service. Total is display text; services send it as a number or a string.
type Breakdown struct {
	Total Value          `json:"total"`
	Items []LabeledValue `json:"items"`
}

type LabeledValue struct {
	Label string `json:"label"`
	Value Value  `json:"value"`
}

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueScalar ValueKind = iota
	ValueStructured
)

// Value is an untyped service value split at the JSON boundary into a
// scalar (string, number, bool, null) or a structured record (object, array).
type Value struct {
	Kind ValueKind
	Raw  json.RawMessage
}

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	v.Raw = append(v.Raw[:0], trimmed...)
	v.Kind = ValueScalar
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		v.Kind = ValueStructured
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.Raw) == 0 {
		return []byte("null"), nil
	}
	return v.Raw, nil
}

// IsStructured reports whether v holds an object or array.
func (v Value) IsStructured() bool {
	return v.Kind == ValueStructured
}

// Text renders a scalar for display. JSON strings are unquoted, null is empty,
// other literals are returned verbatim.
func (v Value) Text() string {
	if len(v.Raw) == 0 || string(v.Raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Raw, &s); err == nil {
		return s
	}
	return string(v.Raw)
}

// Indent renders v as indented JSON for structured display.
func (v Value) Indent() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, v.Raw, "", "  "); err != nil {
		return string(v.Raw)
	}
	return buf.String()
}

// TokenUsage is the structured value of a monitoring usage entry.
type TokenUsage struct {
	CompletionTokens int `json:"completion_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Usage decodes v as token usage. ok is false for scalars or other shapes.
func (v Value) Usage() (TokenUsage, bool) {
	var u TokenUsage
	if !v.IsStructured() {
		return u, false
	}
	if err := json.Unmarshal(v.Raw, &u); err != nil {
		return u, false
	}
	return u, true
}
