package ask

// Option describes one choice of a settings control.
type Option struct {
	Key         string `json:"key"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
}

// NumericRange describes a bounded numeric settings control.
type NumericRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

// Catalog is everything a settings panel needs to render its controls.
type Catalog struct {
	Approaches    []Option     `json:"approaches"`
	Deployments   []Option     `json:"deployments"`
	Indexes       []Option     `json:"indexes"`
	SearchOptions []Option     `json:"search_options"`
	RetrieveCount NumericRange `json:"retrieve_count"`
	Temperature   NumericRange `json:"temperature"`
	Examples      []string     `json:"examples"`
}

// Examples are offered before the first question of a session.
var Examples = []string{
	"What should I do to take personal time off?",
	"How can I check how many days of time off I have left?",
	"Is there any benefit I can receive for getting married?",
}

func DefaultCatalog() Catalog {
	return Catalog{
		Approaches: []Option{
			{Key: string(ApproachRetrieveRead), Text: "Approach 1", Description: "Retrieve → Read"},
			{Key: string(ApproachRetrieveReformulateRetrieveRead), Text: "Approach 2", Description: "Retrieve → Reformulate → Retrieve → Read"},
			{Key: string(ApproachRetrieveReadRead), Text: "Approach 3", Description: "Retrieve → Read → Read"},
			{Key: string(ApproachRetrieveReadRetry), Text: "Approach 4", Description: "Approach 1 → Check → Approach 2"},
		},
		Deployments: []Option{
			{Key: string(DeploymentGpt35Turbo), Text: string(DeploymentGpt35Turbo), Description: "(Prompt & Completion) ¥0.281 per 1,000 tokens"},
			{Key: string(DeploymentGpt4), Text: string(DeploymentGpt4), Description: "(Prompt) ¥4.215 per 1,000 tokens, (Completion) ¥8.430 per 1,000 tokens"},
		},
		Indexes: []Option{
			{Key: string(IndexIFRS), Text: "IFRS"},
			{Key: string(IndexJGAAP), Text: "J-GAAP"},
		},
		SearchOptions: []Option{
			{Key: string(SearchOptionBM25), Text: string(SearchOptionBM25)},
			{Key: string(SearchOptionSemantic), Text: string(SearchOptionSemantic)},
			{Key: string(SearchOptionVectorEmbedding), Text: "Embeddings"},
			{Key: string(SearchOptionVectorBM25Hybrid), Text: "Hybrid: Embeddings + " + string(SearchOptionBM25)},
			{Key: string(SearchOptionVectorSemanticHybrid), Text: "Hybrid: Embeddings + " + string(SearchOptionSemantic)},
		},
		RetrieveCount: NumericRange{Min: MinRetrieveCount, Max: MaxRetrieveCount, Step: 1, Default: DefaultRetrieveCount},
		Temperature:   NumericRange{Min: MinTemperature, Max: MaxTemperature, Step: TemperatureStep, Default: DefaultTemperature},
		Examples:      Examples,
	}
}
