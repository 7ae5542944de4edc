package ask

import (
	"errors"
	"fmt"
	"math"
)

const (
	MinRetrieveCount     = 1
	MaxRetrieveCount     = 50
	DefaultRetrieveCount = 3

	MinTemperature     = 0.0
	MaxTemperature     = 1.0
	TemperatureStep    = 0.1
	DefaultTemperature = 0.6
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

// Configuration is the user-selected query setup of a session.
type Configuration struct {
	Approach            Approach     `json:"approach"`
	Deployment          Deployment   `json:"deployment"`
	Index               Index        `json:"index"`
	SearchOption        SearchOption `json:"search_option"`
	RetrieveCount       int          `json:"retrieve_count"`
	Temperature         float64      `json:"temperature"`
	UseSemanticCaptions bool         `json:"use_semantic_captions"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Approach:      ApproachRetrieveRead,
		Deployment:    DeploymentGpt35Turbo,
		Index:         IndexIFRS,
		SearchOption:  SearchOptionBM25,
		RetrieveCount: DefaultRetrieveCount,
		Temperature:   DefaultTemperature,
	}
}

// SemanticCaptionsEnabled reports whether the captions control is usable
// under the current search option.
func (c Configuration) SemanticCaptionsEnabled() bool {
	return c.SearchOption.SupportsSemanticCaptions()
}

// Validate checks every field against its declared domain.
func (c Configuration) Validate() error {
	switch {
	case !c.Approach.Valid():
		return fmt.Errorf("%w: unknown approach %q", ErrInvalidConfiguration, c.Approach)
	case !c.Deployment.Valid():
		return fmt.Errorf("%w: unknown deployment %q", ErrInvalidConfiguration, c.Deployment)
	case !c.Index.Valid():
		return fmt.Errorf("%w: unknown index %q", ErrInvalidConfiguration, c.Index)
	case !c.SearchOption.Valid():
		return fmt.Errorf("%w: unknown search option %q", ErrInvalidConfiguration, c.SearchOption)
	}
	if err := ValidateRetrieveCount(c.RetrieveCount); err != nil {
		return err
	}
	if _, err := NormalizeTemperature(c.Temperature); err != nil {
		return err
	}
	return nil
}

func ValidateRetrieveCount(n int) error {
	if n < MinRetrieveCount || n > MaxRetrieveCount {
		return fmt.Errorf("%w: retrieve count %d outside [%d,%d]", ErrInvalidConfiguration, n, MinRetrieveCount, MaxRetrieveCount)
	}
	return nil
}

// NormalizeTemperature checks t against [0,1] and snaps it to the 0.1 step.
func NormalizeTemperature(t float64) (float64, error) {
	if math.IsNaN(t) || t < MinTemperature || t > MaxTemperature {
		return 0, fmt.Errorf("%w: temperature %v outside [%.1f,%.1f]", ErrInvalidConfiguration, t, MinTemperature, MaxTemperature)
	}
	return math.Round(t/TemperatureStep) / 10, nil
}

// BuildRequest maps a question and the current configuration into the wire
// request. It never fails and never mutates cfg. top, semantic_captions,
// search_option and temperature are always sent; other overrides stay unset.
func BuildRequest(question string, cfg Configuration) Request {
	top := cfg.RetrieveCount
	captions := cfg.UseSemanticCaptions
	searchOption := cfg.SearchOption.Ordinal()
	temperature := cfg.Temperature

	return Request{
		Question:   question,
		Approach:   cfg.Approach,
		Deployment: cfg.Deployment,
		Index:      cfg.Index,
		Overrides: Overrides{
			Top:              &top,
			SemanticCaptions: &captions,
			SearchOption:     &searchOption,
			Temperature:      &temperature,
		},
	}
}
